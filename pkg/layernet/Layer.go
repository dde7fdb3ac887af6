package layernet

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
该文件包含单个可训练网络层的封装和权重的生命周期操作
权重矩阵的大小为 OutputDim*(InputDim+1)，最后一列存放偏置项
第i行存放第i个输出单元的入边权重向量
*/

// 稀疏化初始化时每个输出单元保留全幅值的入边连接数
const sparseKeepCount = 50

// 对零向量求范数时的数值稳定项
const boundEpsilon = 1e-8

// Layer 单个网络层，独占持有自己的权重矩阵
// 优化器只能通过 VectorWeights 拿副本、通过 SetWeights 写回，不持有内部引用
type Layer struct {
	InputDim   int
	OutputDim  int
	Weights    *mat.Dense // 大小为 OutputDim*(InputDim+1)
	Activation ActFunc    // 构造后不可变

	// 已处理样本行数的诊断计数器，只增不清零
	FeedforwardCount int
	BackpropCount    int
}

// NewLayer 创建一个新的网络层，维度在层的生命周期内固定，权重初始化为零
func NewLayer(inputDim int, outputDim int, activation ActFunc) *Layer {
	return &Layer{
		InputDim:   inputDim,
		OutputDim:  outputDim,
		Weights:    mat.NewDense(outputDim, inputDim+1, nil),
		Activation: activation,
	}
}

// WeightCount 返回权重矩阵的元素总数（含偏置列），用于校验外部传入的权重缓冲区
func (l *Layer) WeightCount() int {
	return l.OutputDim * (l.InputDim + 1)
}

// InitWeights 初始化权重矩阵
// 非偏置权重从零均值高斯分布采样并乘以 weightScale，偏置列统一置为 biasScale
// sparsify 为真时每个输出单元随机保留 sparseKeepCount 条全幅值入边，其余乘以0.1
// 入边数不超过 sparseKeepCount 时不做衰减
func (l *Layer) InitWeights(weightScale float64, biasScale float64, sparsify bool) {
	normal := distuv.Normal{
		Mu:    0,
		Sigma: 1,
		Src:   nil, // 使用默认随机源
	}

	for i := 0; i < l.OutputDim; i++ {
		for j := 0; j < l.InputDim; j++ {
			l.Weights.Set(i, j, normal.Rand()*weightScale)
		}
		// 最后一列为偏置
		l.Weights.Set(i, l.InputDim, biasScale)
	}

	if sparsify && l.InputDim > sparseKeepCount {
		for i := 0; i < l.OutputDim; i++ {
			// 打乱列下标，前 sparseKeepCount 个保留全幅值
			perm := rand.Perm(l.InputDim)
			for _, j := range perm[sparseKeepCount:] {
				l.Weights.Set(i, j, l.Weights.At(i, j)*0.1)
			}
		}
	}
}

// SetWeights 用外部缓冲区覆盖本层权重
// 接受精确形状 OutputDim*(InputDim+1) 的矩阵，或元素数恰好等于 WeightCount 的
// 行/列向量（按行主序重排成矩阵），其余情况返回形状不匹配错误
// 只拷贝数据，不持有调用方缓冲区的引用
func (l *Layer) SetWeights(w mat.Matrix) error {
	r, c := w.Dims()
	if r*c != l.WeightCount() {
		return fmt.Errorf("权重数量不匹配: 期望 %d 个元素, 实际 %d 个", l.WeightCount(), r*c)
	}

	if r == l.OutputDim && c == l.InputDim+1 {
		l.Weights.Copy(w)
		return nil
	}
	if r == 1 || c == 1 {
		// 向量按行主序重排
		idx := 0
		for i := 0; i < l.OutputDim; i++ {
			for j := 0; j < l.InputDim+1; j++ {
				if c == 1 {
					l.Weights.Set(i, j, w.At(idx, 0))
				} else {
					l.Weights.Set(i, j, w.At(0, idx))
				}
				idx++
			}
		}
		return nil
	}
	return fmt.Errorf("权重形状不匹配: 期望 %dx%d 或长度为 %d 的向量, 实际 %dx%d",
		l.OutputDim, l.InputDim+1, l.WeightCount(), r, c)
}

// VectorWeights 把权重矩阵按行主序展平成向量
// m 为 nil 时使用本层自己的权重，返回的是副本
// 优化器借此把整个网络的参数当作一个扁平向量处理
func (l *Layer) VectorWeights(m *mat.Dense) (*mat.VecDense, error) {
	if m == nil {
		m = l.Weights
	}
	r, c := m.Dims()
	if r*c != l.WeightCount() {
		return nil, fmt.Errorf("权重数量不匹配: 期望 %d 个元素, 实际 %d 个", l.WeightCount(), r*c)
	}

	v := mat.NewVecDense(l.WeightCount(), nil)
	idx := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v.SetVec(idx, m.At(i, j))
			idx++
		}
	}
	return v, nil
}

// MatrixWeights 把扁平向量按行主序重排成 OutputDim*(InputDim+1) 的权重矩阵
// v 为 nil 时返回本层自己权重的副本
func (l *Layer) MatrixWeights(v *mat.VecDense) (*mat.Dense, error) {
	m := mat.NewDense(l.OutputDim, l.InputDim+1, nil)
	if v == nil {
		m.Copy(l.Weights)
		return m, nil
	}
	if v.Len() != l.WeightCount() {
		return nil, fmt.Errorf("权重数量不匹配: 期望 %d 个元素, 实际 %d 个", l.WeightCount(), v.Len())
	}

	idx := 0
	for i := 0; i < l.OutputDim; i++ {
		for j := 0; j < l.InputDim+1; j++ {
			m.Set(i, j, v.AtVec(idx))
			idx++
		}
	}
	return m, nil
}

// BoundWeights 把每个输出单元的权重行独立投影到半径为 radius 的L2球内
// 行范数已在球内时保持不变，缩放系数为 min(1, radius/范数)
// m 为 nil 时就地作用于本层自己的权重，通常由优化器在每次参数更新后调用
func (l *Layer) BoundWeights(m *mat.Dense, radius float64) error {
	if m == nil {
		m = l.Weights
	}
	r, c := m.Dims()
	if r*c != l.WeightCount() || c != l.InputDim+1 {
		return fmt.Errorf("权重形状不匹配: 期望 %dx%d, 实际 %dx%d", l.OutputDim, l.InputDim+1, r, c)
	}

	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += m.At(i, j) * m.At(i, j)
		}
		// 加稳定项防止零向量
		norm := math.Sqrt(sum + boundEpsilon)
		if norm > radius {
			scale := radius / norm
			for j := 0; j < c; j++ {
				m.Set(i, j, m.At(i, j)*scale)
			}
		}
	}
	return nil
}
