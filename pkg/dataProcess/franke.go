package dataProcess

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
该文件实现Franke二元测试函数回归数据集的生成
输入在单位方格上均匀采样，目标值为Franke函数值加高斯噪声
*/

// Dataset 一份回归数据集，每行一个样本
type Dataset struct {
	Inputs  *mat.Dense // n x 2
	Targets *mat.Dense // n x 1
}

// Franke 经典的Franke二元测试函数，常用作曲面拟合的基准
func Franke(x, y float64) float64 {
	t1 := 0.75 * math.Exp(-math.Pow(9*x-2, 2)/4-math.Pow(9*y-2, 2)/4)
	t2 := 0.75 * math.Exp(-math.Pow(9*x+1, 2)/49-(9*y+1)/10)
	t3 := 0.5 * math.Exp(-math.Pow(9*x-7, 2)/4-math.Pow(9*y-3, 2)/4)
	t4 := -0.2 * math.Exp(-math.Pow(9*x-4, 2)-math.Pow(9*y-7, 2))
	return t1 + t2 + t3 + t4
}

// GenerateFranke 生成 n 个带噪声的Franke函数样本
// noiseSigma 为目标值上高斯噪声的标准差，0表示无噪声
func GenerateFranke(n int, noiseSigma float64, seed uint64) (*Dataset, error) {
	if n <= 0 {
		return nil, fmt.Errorf("样本数必须为正, 实际 %d", n)
	}

	src := rand.NewSource(seed)
	uniform := rand.New(src)
	noise := distuv.Normal{
		Mu:    0,
		Sigma: noiseSigma,
		Src:   src,
	}

	inputs := mat.NewDense(n, 2, nil)
	targets := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := uniform.Float64()
		y := uniform.Float64()
		inputs.Set(i, 0, x)
		inputs.Set(i, 1, y)

		t := Franke(x, y)
		if noiseSigma > 0 {
			t += noise.Rand()
		}
		targets.Set(i, 0, t)
	}
	return &Dataset{Inputs: inputs, Targets: targets}, nil
}

// Split 按比例切分训练集和测试集，frac 为训练集占比
func (d *Dataset) Split(frac float64) (*Dataset, *Dataset, error) {
	if frac <= 0 || frac >= 1 {
		return nil, nil, fmt.Errorf("切分比例必须在(0,1)内, 实际 %v", frac)
	}

	n, _ := d.Inputs.Dims()
	cut := int(float64(n) * frac)
	if cut == 0 || cut == n {
		return nil, nil, fmt.Errorf("样本数 %d 太少, 无法按 %v 切分", n, frac)
	}

	train := &Dataset{
		Inputs:  mat.DenseCopyOf(d.Inputs.Slice(0, cut, 0, 2)),
		Targets: mat.DenseCopyOf(d.Targets.Slice(0, cut, 0, 1)),
	}
	test := &Dataset{
		Inputs:  mat.DenseCopyOf(d.Inputs.Slice(cut, n, 0, 2)),
		Targets: mat.DenseCopyOf(d.Targets.Slice(cut, n, 0, 1)),
	}
	return train, test, nil
}

// Len 返回样本数
func (d *Dataset) Len() int {
	n, _ := d.Inputs.Dims()
	return n
}
