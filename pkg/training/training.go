package training

import (
	"fmt"
	"time"

	"LayerNet/pkg/dataProcess"
	"LayerNet/pkg/network"
)

/*
该文件包含训练驱动：组织数据、跑SGD训练循环并在前后做评估
*/

// TrainModel 训练模型并打印训练前后的损失和均方误差
// onEpoch 不为 nil 时每轮结束后回调（接训练监控器用）
func TrainModel(nn *network.FrankeNet, trainSet *dataProcess.Dataset, testSet *dataProcess.Dataset, cfg *network.SGDConfig, onEpoch func(epoch int, loss float64)) []float64 {
	// 训练前评估
	initialLoss := nn.CalculateLoss(trainSet.Inputs, trainSet.Targets)
	initialMSE := nn.Evaluate(testSet.Inputs, testSet.Targets)
	fmt.Printf("训练前 - 损失: %.6f, 测试均方误差: %.6f\n", initialLoss, initialMSE)

	// 训练模型
	startTrain := time.Now()
	lossHistory := nn.Train(trainSet.Inputs, trainSet.Targets, cfg, onEpoch)
	elapsed := time.Since(startTrain)
	fmt.Printf("训练耗时: %v\n", elapsed)

	// 训练后评估
	startEval := time.Now()
	finalLoss := nn.CalculateLoss(trainSet.Inputs, trainSet.Targets)
	finalMSE := nn.Evaluate(testSet.Inputs, testSet.Targets)
	elapsedEval := time.Since(startEval)
	fmt.Printf("推理耗时: %v\n", elapsedEval)
	fmt.Printf("训练后 - 损失: %.6f, 测试均方误差: %.6f\n", finalLoss, finalMSE)

	return lossHistory
}
