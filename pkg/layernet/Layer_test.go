package layernet

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

/*
该文件测试权重的生命周期操作：计数、设置、展平/重排往返和范数约束
*/

func TestWeightCount(t *testing.T) {
	cases := []struct {
		inputDim  int
		outputDim int
		want      int
	}{
		{1, 1, 2},
		{3, 4, 16},
		{64, 10, 650},
	}
	for _, c := range cases {
		l := NewLayer(c.inputDim, c.outputDim, ActLinear)
		if got := l.WeightCount(); got != c.want {
			t.Errorf("WeightCount(%d,%d) = %d, 期望 %d", c.inputDim, c.outputDim, got, c.want)
		}
	}
}

func TestSetWeightsRoundTrip(t *testing.T) {
	l := NewLayer(2, 3, ActLinear)
	w := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	if err := l.SetWeights(w); err != nil {
		t.Fatalf("SetWeights 失败: %v", err)
	}

	// 展平再重排应该精确还原原矩阵
	v, err := l.VectorWeights(nil)
	if err != nil {
		t.Fatalf("VectorWeights 失败: %v", err)
	}
	m, err := l.MatrixWeights(v)
	if err != nil {
		t.Fatalf("MatrixWeights 失败: %v", err)
	}
	if !mat.Equal(m, w) {
		t.Errorf("往返后的权重矩阵与原矩阵不一致:\n%v", mat.Formatted(m))
	}
}

func TestSetWeightsFlatVector(t *testing.T) {
	l := NewLayer(1, 2, ActLinear)
	// 长度为4的扁平向量按行主序重排成 2x2
	v := mat.NewVecDense(4, []float64{10, 20, 30, 40})
	if err := l.SetWeights(v); err != nil {
		t.Fatalf("SetWeights 失败: %v", err)
	}
	want := mat.NewDense(2, 2, []float64{10, 20, 30, 40})
	if !mat.Equal(l.Weights, want) {
		t.Errorf("扁平向量重排结果错误:\n%v", mat.Formatted(l.Weights))
	}
}

func TestSetWeightsShapeMismatch(t *testing.T) {
	l := NewLayer(2, 3, ActLinear)
	if err := l.SetWeights(mat.NewDense(2, 3, nil)); err == nil {
		t.Error("元素数不匹配的矩阵应该返回错误")
	}
	if err := l.SetWeights(mat.NewVecDense(8, nil)); err == nil {
		t.Error("元素数不匹配的向量应该返回错误")
	}
	if _, err := l.VectorWeights(mat.NewDense(3, 2, nil)); err == nil {
		t.Error("VectorWeights 对元素数不匹配的矩阵应该返回错误")
	}
	if _, err := l.MatrixWeights(mat.NewVecDense(10, nil)); err == nil {
		t.Error("MatrixWeights 对元素数不匹配的向量应该返回错误")
	}
}

func TestInitWeightsBiasColumn(t *testing.T) {
	l := NewLayer(4, 3, ActReLU)
	l.InitWeights(0.01, 0.1, false)
	for i := 0; i < l.OutputDim; i++ {
		if got := l.Weights.At(i, l.InputDim); got != 0.1 {
			t.Errorf("第 %d 行偏置 = %v, 期望 0.1", i, got)
		}
	}

	// 权重尺度为0时非偏置权重全为零
	l.InitWeights(0, 0.5, false)
	for i := 0; i < l.OutputDim; i++ {
		for j := 0; j < l.InputDim; j++ {
			if l.Weights.At(i, j) != 0 {
				t.Errorf("权重尺度为0时 (%d,%d) = %v", i, j, l.Weights.At(i, j))
			}
		}
		if got := l.Weights.At(i, l.InputDim); got != 0.5 {
			t.Errorf("第 %d 行偏置 = %v, 期望 0.5", i, got)
		}
	}
}

func TestInitWeightsSparsify(t *testing.T) {
	// 稀疏化后每行只剩约50条全幅值连接，其余衰减到0.1倍，
	// 行平方和的期望从约1000降到约59.5，用宽松的界做统计断言
	const inputDim = 1000
	l := NewLayer(inputDim, 3, ActReLU)

	l.InitWeights(1.0, 0, false)
	for i := 0; i < l.OutputDim; i++ {
		sum := 0.0
		for j := 0; j < inputDim; j++ {
			sum += l.Weights.At(i, j) * l.Weights.At(i, j)
		}
		if sum < 700 {
			t.Errorf("未稀疏化的第 %d 行平方和 = %v, 小得反常", i, sum)
		}
	}

	l.InitWeights(1.0, 0, true)
	for i := 0; i < l.OutputDim; i++ {
		sum := 0.0
		for j := 0; j < inputDim; j++ {
			sum += l.Weights.At(i, j) * l.Weights.At(i, j)
		}
		if sum > 200 {
			t.Errorf("稀疏化后的第 %d 行平方和 = %v, 大得反常", i, sum)
		}
	}

	// 入边数不超过50时不做衰减，这里只验证不出错
	small := NewLayer(10, 2, ActReLU)
	small.InitWeights(1.0, 0, true)
}

func TestBoundWeights(t *testing.T) {
	l := NewLayer(2, 2, ActLinear)
	if err := l.SetWeights(mat.NewDense(2, 3, []float64{
		3, 4, 0, // 范数为5，需要缩放
		0.1, 0.1, 0.1, // 已在球内，保持不变
	})); err != nil {
		t.Fatalf("SetWeights 失败: %v", err)
	}

	if err := l.BoundWeights(nil, 1.0); err != nil {
		t.Fatalf("BoundWeights 失败: %v", err)
	}

	row0 := 0.0
	for j := 0; j < 3; j++ {
		row0 += l.Weights.At(0, j) * l.Weights.At(0, j)
	}
	if math.Abs(math.Sqrt(row0)-1.0) > 1e-6 {
		t.Errorf("缩放后第0行范数 = %v, 期望约1", math.Sqrt(row0))
	}
	if math.Abs(l.Weights.At(1, 0)-0.1) > 1e-12 {
		t.Errorf("球内的行不应被改动, 得到 %v", l.Weights.At(1, 0))
	}

	// 再次投影应该是（数值容差内的）恒等操作
	before := mat.DenseCopyOf(l.Weights)
	if err := l.BoundWeights(nil, 1.0); err != nil {
		t.Fatalf("第二次 BoundWeights 失败: %v", err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(l.Weights.At(i, j)-before.At(i, j)) > 1e-8 {
				t.Errorf("二次投影改变了 (%d,%d): %v -> %v", i, j, before.At(i, j), l.Weights.At(i, j))
			}
		}
	}

	if err := l.BoundWeights(mat.NewDense(3, 2, nil), 1.0); err == nil {
		t.Error("形状不匹配的矩阵应该返回错误")
	}
}
