package network

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

/*
该文件包含带动量的Mini-batch SGD训练循环
优化器只通过扁平参数向量接口（VectorWeights/SetWeights）读写各层权重，
每次更新后再调用 BoundWeights 把每个输出单元的权重行约束在L2球内
*/

// SGDConfig 带动量SGD的配置
type SGDConfig struct {
	// 学习率
	LearningRate float64
	// 动量系数
	Momentum float64
	// 批次大小
	BatchSize int
	// 训练轮数
	Epochs int
	// 每个输出单元权重行的L2范数上界
	WeightRadius float64
}

// NewSGDConfig 创建一个默认的SGD配置
func NewSGDConfig() *SGDConfig {
	return &SGDConfig{
		LearningRate: 0.1,
		Momentum:     0.9,
		BatchSize:    32,
		Epochs:       50,
		WeightRadius: 3.0,
	}
}

// Train 使用带动量的Mini-batch SGD训练网络，返回每轮的平均损失
// 损失梯度在 LeastSquaresGrad 里已按批大小归一，这里不再除以批大小
// onEpoch 不为 nil 时在每轮结束后回调（用于训练监控），不影响训练本身
func (nn *FrankeNet) Train(x *mat.Dense, y *mat.Dense, cfg *SGDConfig, onEpoch func(epoch int, loss float64)) []float64 {
	numSamples, _ := x.Dims()

	// 每层一个与扁平参数向量同长的动量速度向量
	velocities := make([]*mat.VecDense, len(nn.Layers))
	for i, layer := range nn.Layers {
		velocities[i] = mat.NewVecDense(layer.WeightCount(), nil)
	}

	lossHistory := make([]float64, cfg.Epochs)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		totalLoss := 0.0

		// 随机打乱数据
		shuffled := shuffleIndices(numSamples)

		// 遍历每个mini-batch
		for start := 0; start < numSamples; start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > numSamples {
				end = numSamples
			}
			bx := gatherRows(x, shuffled[start:end])
			by := gatherRows(y, shuffled[start:end])

			grads := nn.CalculateGradients(bx, by)
			nn.applyUpdate(grads, velocities, cfg)

			batchLoss := nn.CalculateLoss(bx, by)
			totalLoss += batchLoss * float64(end-start)
		}

		avgLoss := totalLoss / float64(numSamples)
		lossHistory[epoch] = avgLoss
		fmt.Printf("第 %d 轮训练 - 平均损失: %.6f\n", epoch+1, avgLoss)
		if onEpoch != nil {
			onEpoch(epoch+1, avgLoss)
		}
	}
	return lossHistory
}

// applyUpdate 用动量速度更新每层参数并做范数约束
func (nn *FrankeNet) applyUpdate(grads *Gradients, velocities []*mat.VecDense, cfg *SGDConfig) {
	for i, layer := range nn.Layers {
		gv, err := layer.VectorWeights(grads.WeightGrads[i])
		if err != nil {
			panic(fmt.Sprintf("第 %d 层梯度展平失败: %v", i, err))
		}
		wv, err := layer.VectorWeights(nil)
		if err != nil {
			panic(fmt.Sprintf("第 %d 层权重展平失败: %v", i, err))
		}

		v := velocities[i]
		for k := 0; k < v.Len(); k++ {
			vk := cfg.Momentum*v.AtVec(k) - cfg.LearningRate*gv.AtVec(k)
			v.SetVec(k, vk)
			wv.SetVec(k, wv.AtVec(k)+vk)
		}

		if err := layer.SetWeights(wv); err != nil {
			panic(fmt.Sprintf("第 %d 层权重写回失败: %v", i, err))
		}
		if err := layer.BoundWeights(nil, cfg.WeightRadius); err != nil {
			panic(fmt.Sprintf("第 %d 层范数约束失败: %v", i, err))
		}
	}
}

// gatherRows 按下标把若干行收集成新矩阵
func gatherRows(m *mat.Dense, indices []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(indices), c, nil)
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(idx, j))
		}
	}
	return out
}

// 辅助函数：打乱索引顺序
func shuffleIndices(length int) []int {
	indices := make([]int, length)
	for i := 0; i < length; i++ {
		indices[i] = i
	}

	// Fisher-Yates 洗牌算法
	for i := length - 1; i > 0; i-- {
		j := int(math.Floor(rand.Float64() * float64(i+1)))
		indices[i], indices[j] = indices[j], indices[i]
	}

	return indices
}
