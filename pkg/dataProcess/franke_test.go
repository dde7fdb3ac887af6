package dataProcess

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFrankeKnownValues(t *testing.T) {
	// Franke函数在单位方格内取值大致在[-0.2, 1.25]之间
	pts := [][2]float64{{0, 0}, {0.5, 0.5}, {1, 1}, {0.2, 0.8}}
	for _, p := range pts {
		v := Franke(p[0], p[1])
		if v < -0.5 || v > 1.5 {
			t.Errorf("Franke(%v,%v) = %v, 超出合理范围", p[0], p[1], v)
		}
	}
	// (2/9, 2/9) 处第一、二项占主导，函数值应明显为正
	if got := Franke(2.0/9.0, 2.0/9.0); got < 0.7 {
		t.Errorf("Franke 在峰值附近 = %v, 应大于0.7", got)
	}
}

func TestGenerateFranke(t *testing.T) {
	d, err := GenerateFranke(100, 0, 42)
	if err != nil {
		t.Fatalf("GenerateFranke 失败: %v", err)
	}
	if d.Len() != 100 {
		t.Fatalf("样本数 = %d, 期望 100", d.Len())
	}

	// 无噪声时目标值应精确等于Franke函数值
	for i := 0; i < d.Len(); i++ {
		x := d.Inputs.At(i, 0)
		y := d.Inputs.At(i, 1)
		if x < 0 || x >= 1 || y < 0 || y >= 1 {
			t.Errorf("样本 %d 的输入 (%v,%v) 不在单位方格内", i, x, y)
		}
		if got := d.Targets.At(i, 0); got != Franke(x, y) {
			t.Errorf("样本 %d 目标值 = %v, 期望 %v", i, got, Franke(x, y))
		}
	}

	// 相同种子应生成相同数据
	d2, err := GenerateFranke(100, 0, 42)
	if err != nil {
		t.Fatalf("GenerateFranke 失败: %v", err)
	}
	if !mat.Equal(d.Inputs, d2.Inputs) || !mat.Equal(d.Targets, d2.Targets) {
		t.Error("相同种子生成的数据不一致")
	}

	if _, err := GenerateFranke(0, 0, 1); err == nil {
		t.Error("样本数为0应该返回错误")
	}
}

func TestSplit(t *testing.T) {
	d, err := GenerateFranke(10, 0.05, 1)
	if err != nil {
		t.Fatalf("GenerateFranke 失败: %v", err)
	}

	train, test, err := d.Split(0.8)
	if err != nil {
		t.Fatalf("Split 失败: %v", err)
	}
	if train.Len() != 8 || test.Len() != 2 {
		t.Errorf("切分结果 %d/%d, 期望 8/2", train.Len(), test.Len())
	}

	if _, _, err := d.Split(0); err == nil {
		t.Error("比例为0应该返回错误")
	}
	if _, _, err := d.Split(1.5); err == nil {
		t.Error("比例大于1应该返回错误")
	}
}
