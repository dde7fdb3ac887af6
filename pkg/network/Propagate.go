package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

/*
该文件包含整个网络的后向传播、最小二乘损失和评估辅助函数
*/

// Gradients 保存整个网络的梯度信息，每层一个与权重同形的梯度矩阵
type Gradients struct {
	WeightGrads []*mat.Dense
}

// NewGradients 创建与网络各层权重同形的零梯度结构体
func NewGradients(nn *FrankeNet) *Gradients {
	weightGrads := make([]*mat.Dense, len(nn.Layers))
	for i, layer := range nn.Layers {
		weightGrads[i] = mat.NewDense(layer.OutputDim, layer.InputDim+1, nil)
	}
	return &Gradients{WeightGrads: weightGrads}
}

func (g *Gradients) String() string {
	var s string
	s += "权重梯度:\n"
	for i, wg := range g.WeightGrads {
		s += fmt.Sprintf("第 %d 层:\n%v\n", i, mat.Formatted(wg, mat.Prefix("  "), mat.Squeeze()))
	}
	return s
}

// stripBias 去掉输入梯度的最后一列（偏置列的梯度不向前传）
func stripBias(dx *mat.Dense) *mat.Dense {
	n, c := dx.Dims()
	return mat.DenseCopyOf(dx.Slice(0, n, 0, c-1))
}

// CalculateGradients 计算一个批次的梯度（不更新参数）
// 前向传播按 DropRates 施加dropout，梯度与该次前向的掩码保持一致
func (nn *FrankeNet) CalculateGradients(x *mat.Dense, y *mat.Dense) *Gradients {
	caches, out := nn.forward(x, true)
	return nn.backprop(caches, out, y)
}

// backprop 由一次前向传播的中间结果计算整个网络的梯度
func (nn *FrankeNet) backprop(caches []layerCache, out *mat.Dense, y *mat.Dense) *Gradients {
	grads := NewGradients(nn)

	// 最小二乘损失对网络输出的梯度
	upstream := LeastSquaresGrad(out, y)

	// 从后向前逐层传播
	for i := len(nn.Layers) - 1; i >= 0; i-- {
		layer := nn.Layers[i]
		cached := layer.Activation.BackpropCache(caches[i].post, caches[i].pre)
		dw, dx := layer.Backprop(upstream, cached, caches[i].input, nil)
		grads.WeightGrads[i] = dw
		if i > 0 {
			upstream = stripBias(dx)
			// 被丢弃的输入元素不向前传梯度，保留的元素带上1/(1-p)缩放
			if caches[i].mask != nil {
				var masked mat.Dense
				masked.MulElem(upstream, caches[i].mask)
				upstream = &masked
			}
		}
	}
	return grads
}

// LeastSquaresLoss 最小二乘损失 L = sum((pred-y)^2) / (2n)
func LeastSquaresLoss(pred *mat.Dense, y *mat.Dense) float64 {
	n, m := pred.Dims()
	sum := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			d := pred.At(i, j) - y.At(i, j)
			sum += d * d
		}
	}
	return sum / (2 * float64(n))
}

// LeastSquaresGrad 最小二乘损失对预测值的梯度 (pred-y)/n
func LeastSquaresGrad(pred *mat.Dense, y *mat.Dense) *mat.Dense {
	n, m := pred.Dims()
	grad := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			grad.Set(i, j, (pred.At(i, j)-y.At(i, j))/float64(n))
		}
	}
	return grad
}

// CalculateLoss 计算数据集上的最小二乘损失
func (nn *FrankeNet) CalculateLoss(x *mat.Dense, y *mat.Dense) float64 {
	return LeastSquaresLoss(nn.FeedForward(x), y)
}

// Evaluate 计算数据集上的均方误差
func (nn *FrankeNet) Evaluate(x *mat.Dense, y *mat.Dense) float64 {
	pred := nn.FeedForward(x)
	n, m := pred.Dims()
	sum := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			d := pred.At(i, j) - y.At(i, j)
			sum += d * d
		}
	}
	return sum / float64(n)
}
