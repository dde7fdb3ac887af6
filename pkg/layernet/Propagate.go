package layernet

import (
	"gonum.org/v1/gonum/mat"
)

/*
该文件包含单层的前向传播和后向传播数值内核
输入批矩阵按行主序存放，每行一个样本，调用方负责在输入上
预先追加常数1列，使列数等于 InputDim+1 以对上偏置列
*/

// Feedforward 前向传播
// pre = input * weights^T，post = Activation.Forward(pre)
// weights 为 nil 时使用本层自己的权重
// 同时返回激活后和激活前两个矩阵，后向传播以及部分激活变体需要激活前的值
func (l *Layer) Feedforward(input *mat.Dense, weights *mat.Dense) (post *mat.Dense, pre *mat.Dense) {
	if weights == nil {
		weights = l.Weights
	}

	var z mat.Dense
	z.Mul(input, weights.T())
	pre = &z
	post = l.Activation.Forward(pre)

	n, _ := input.Dims()
	l.FeedforwardCount += n
	return post, pre
}

// Backprop 后向传播
// cached 必须是本层激活变体通过 BackpropCache 选出的那一个前向结果，
// 且与 input、weights 出自同一次前向调用，传错不会被检测到
// weights 为 nil 时使用本层自己的权重
// 返回的权重梯度是整批累加值而非均值，调用方需要均值时自行除以批大小
func (l *Layer) Backprop(upstream *mat.Dense, cached *mat.Dense, input *mat.Dense, weights *mat.Dense) (weightGrad *mat.Dense, inputGrad *mat.Dense) {
	if weights == nil {
		weights = l.Weights
	}

	// 损失对预激活值的局部梯度，大小为 批大小*OutputDim
	local := l.Activation.Backward(cached, upstream, input, weights)

	// 权重梯度 dW = local^T * input，形状与权重矩阵一致
	var dw mat.Dense
	dw.Mul(local.T(), input)

	// 输入梯度 dX = local * weights，形状与输入批一致，传给前一层
	var dx mat.Dense
	dx.Mul(local, weights)

	n, _ := input.Dims()
	l.BackpropCount += n
	return &dw, &dx
}
