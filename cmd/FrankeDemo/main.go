package main

import (
	"flag"
	"fmt"
	"log"

	"LayerNet/pkg/dataProcess"
	"LayerNet/pkg/layernet"
	"LayerNet/pkg/monitor"
	"LayerNet/pkg/network"
	"LayerNet/pkg/training"
)

func main() {
	monitorPort := flag.String("monitor", "", "训练监控器的HTTP端口，留空则不启动")
	epochs := flag.Int("epochs", 50, "训练轮数")
	samples := flag.Int("samples", 2000, "生成的样本数")
	useDropout := flag.Bool("dropout", false, "训练时对各层输入做dropout")
	flag.Parse()

	// 生成带噪声的Franke函数回归数据集
	dataset, err := dataProcess.GenerateFranke(*samples, 0.05, 42)
	if err != nil {
		log.Fatalf("生成数据集失败: %v", err)
	}
	trainSet, testSet, err := dataset.Split(0.8)
	if err != nil {
		log.Fatalf("切分数据集失败: %v", err)
	}
	fmt.Printf("训练数据集包含 %d 个样本\n", trainSet.Len())
	fmt.Printf("测试数据集包含 %d 个样本\n", testSet.Len())

	// 创建网络：两个行归一化修正Huber隐藏层加线性输出层
	layerSizes := []int{2, 64, 64, 1}
	nn := network.NewFrankeNet(layerSizes, layernet.ActNormReHu, layernet.ActLinear)
	fmt.Println(nn)

	// 首层输入丢弃率0.2，其余层0.5
	if *useDropout {
		rates := make([]float64, len(nn.Layers))
		for i := range rates {
			if i == 0 {
				rates[i] = 0.2
			} else {
				rates[i] = 0.5
			}
		}
		if err := nn.SetDropRates(rates); err != nil {
			log.Fatalf("设置丢弃率失败: %v", err)
		}
	}

	// SGD配置
	cfg := network.NewSGDConfig()
	cfg.Epochs = *epochs

	// 可选的训练监控器
	var onEpoch func(epoch int, loss float64)
	if *monitorPort != "" {
		m := monitor.NewMonitor(nn, cfg.Epochs)
		onEpoch = m.ReportEpoch
		go func() {
			if err := m.Start(*monitorPort); err != nil {
				log.Fatalf("训练监控器启动失败: %v", err)
			}
		}()
	}

	// 训练模型
	fmt.Println("开始使用带动量的SGD训练模型...")
	training.TrainModel(nn, trainSet, testSet, cfg, onEpoch)

	// 展示一些测试样本的预测结果
	fmt.Println("\n测试样本预测结果:")
	pred := nn.FeedForward(testSet.Inputs)
	for i := 0; i < 10 && i < testSet.Len(); i++ {
		fmt.Printf("样本 %d 的预测值：%.4f, 真实值：%.4f\n", i+1, pred.At(i, 0), testSet.Targets.At(i, 0))
	}
}
