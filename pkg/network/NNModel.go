package network

import (
	"fmt"

	"LayerNet/pkg/layernet"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
该文件包含多层前馈网络容器的封装和整个网络的前向传播
容器负责在每层输入上追加常数1列以对上层内核要求的偏置列，
层内核本身只接受已带偏置列的输入
训练时容器还可以按层对输入做dropout，层内核对此无感知
*/

// FrankeNet 由若干层串成的前馈网络，按顺序调用各层的前向/后向内核
type FrankeNet struct {
	Layers []*layernet.Layer
	// 每层输入的dropout丢弃率，训练时由容器施加，推理时不生效
	DropRates []float64
}

// 新建网络时各层权重的默认初始化参数
const (
	defaultWeightScale = 0.1
	defaultBiasScale   = 0.1
)

// NewFrankeNet 按层节点数创建网络，隐藏层用 hiddenAct，输出层用 outputAct
// layerSizes 含输入维度，例如 [2,64,64,1] 表示两个隐藏层
func NewFrankeNet(layerSizes []int, hiddenAct layernet.ActFunc, outputAct layernet.ActFunc) *FrankeNet {
	layers := make([]*layernet.Layer, len(layerSizes)-1)
	for i := range layers {
		act := hiddenAct
		if i == len(layers)-1 {
			act = outputAct
		}
		layers[i] = layernet.NewLayer(layerSizes[i], layerSizes[i+1], act)
		layers[i].InitWeights(defaultWeightScale, defaultBiasScale, false)
	}
	return &FrankeNet{
		Layers:    layers,
		DropRates: make([]float64, len(layers)),
	}
}

// 丢弃率低于该阈值时视为不做dropout
const dropThreshold = 0.01

// SetDropRates 设置每层输入的dropout丢弃率，长度必须与层数一致
func (nn *FrankeNet) SetDropRates(rates []float64) error {
	if len(rates) != len(nn.Layers) {
		return fmt.Errorf("丢弃率数量不匹配: 期望 %d 个, 实际 %d 个", len(nn.Layers), len(rates))
	}
	copy(nn.DropRates, rates)
	return nil
}

// WeightCount 返回整个网络的参数总数
func (nn *FrankeNet) WeightCount() int {
	total := 0
	for _, layer := range nn.Layers {
		total += layer.WeightCount()
	}
	return total
}

// AppendBias 在矩阵右侧追加常数1列，层内核的输入都要先经过这一步
func AppendBias(x *mat.Dense) *mat.Dense {
	n, c := x.Dims()
	out := mat.NewDense(n, c+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, x.At(i, j))
		}
		out.Set(i, c, 1)
	}
	return out
}

// layerCache 保存一次前向传播中某一层的中间结果，供后向传播使用
type layerCache struct {
	input *mat.Dense // 该层的输入批（已做dropout、已含偏置列）
	pre   *mat.Dense // 预激活值
	post  *mat.Dense // 激活后的值
	mask  *mat.Dense // dropout掩码（已含1/(1-p)缩放），nil表示该层未做dropout
}

// dropInput 对层输入做dropout：每个元素以概率 rate 置零，
// 保留的元素乘以 1/(1-rate) 以保持期望不变
// 返回处理后的输入和掩码，掩码供后向传播把梯度传回未丢弃的元素
func dropInput(x *mat.Dense, rate float64) (*mat.Dense, *mat.Dense) {
	bern := distuv.Bernoulli{P: 1 - rate}
	scale := 1 / (1 - rate)

	n, c := x.Dims()
	out := mat.NewDense(n, c, nil)
	mask := mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			if bern.Rand() > 0 {
				mask.Set(i, j, scale)
				out.Set(i, j, x.At(i, j)*scale)
			}
		}
	}
	return out, mask
}

// forward 前向传播并保留每层的中间结果
// train 为真时按 DropRates 对各层输入做dropout，推理时恒为恒等变换
func (nn *FrankeNet) forward(x *mat.Dense, train bool) ([]layerCache, *mat.Dense) {
	caches := make([]layerCache, len(nn.Layers))
	cur := x
	var post *mat.Dense
	for i, layer := range nn.Layers {
		var mask *mat.Dense
		if train && nn.DropRates[i] >= dropThreshold {
			cur, mask = dropInput(cur, nn.DropRates[i])
		}
		input := AppendBias(cur)

		var pre *mat.Dense
		post, pre = layer.Feedforward(input, nil)
		caches[i] = layerCache{input: input, pre: pre, post: post, mask: mask}
		cur = post
	}
	return caches, post
}

// FeedForward 整个网络的前向传播，x 为原始输入批（不含偏置列）
func (nn *FrankeNet) FeedForward(x *mat.Dense) *mat.Dense {
	_, out := nn.forward(x, false)
	return out
}

func (nn *FrankeNet) String() string {
	s := "FrankeNet{"
	for i, layer := range nn.Layers {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d->%d %v", layer.InputDim, layer.OutputDim, layer.Activation)
	}
	return s + "}"
}
