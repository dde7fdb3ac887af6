package layernet

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

/*
该文件包含五种激活函数变体的前向变换和后向变换
变体集合是封闭的，用整型标签做分派，不做开放式的动态派发
*/

// ActFunc 激活函数变体标签
type ActFunc int

const (
	ActLinear   ActFunc = iota // 恒等变换
	ActReLU                    // 修正线性单元 max(x,0)
	ActReHu                    // 修正Huber单元，零点附近用二次段平滑ReLU的拐点
	ActNormReHu                // 行归一化的修正Huber单元
	ActTanh                    // 双曲正切
)

// 修正Huber单元二次段与线性段的分界点
const rehuKnee = 0.5

// 行归一化时加在根号内的稳定项
const normEpsilon = 1e-3

func (a ActFunc) String() string {
	switch a {
	case ActLinear:
		return "linear"
	case ActReLU:
		return "relu"
	case ActReHu:
		return "rehu"
	case ActNormReHu:
		return "norm_rehu"
	case ActTanh:
		return "tanh"
	}
	return "unknown"
}

// rehu 修正Huber单元的标量前向规则
// x<=0 时为0，0<x<0.5 时为x^2，x>=0.5 时为x-0.25，整体连续
func rehu(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x < rehuKnee {
		return x * x
	}
	return x - rehuKnee/2
}

// rehuDeriv 修正Huber单元前向规则对输入的导数
func rehuDeriv(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x < rehuKnee {
		return 2 * x
	}
	return 1
}

// Forward 对预激活矩阵做前向变换，返回新矩阵，不修改输入
// 除 ActNormReHu 按行操作外均为逐元素操作
func (a ActFunc) Forward(pre *mat.Dense) *mat.Dense {
	n, m := pre.Dims()
	post := mat.NewDense(n, m, nil)

	switch a {
	case ActLinear:
		post.Copy(pre)
	case ActReLU:
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				if v := pre.At(i, j); v > 0 {
					post.Set(i, j, v)
				}
			}
		}
	case ActReHu:
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				post.Set(i, j, rehu(pre.At(i, j)))
			}
		}
	case ActNormReHu:
		// 先逐元素做修正Huber变换，再把每一行归一到稳定化的单位长度
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < m; j++ {
				v := rehu(pre.At(i, j))
				post.Set(i, j, v)
				sum += v * v
			}
			norm := math.Sqrt(sum + normEpsilon)
			for j := 0; j < m; j++ {
				post.Set(i, j, post.At(i, j)/norm)
			}
		}
	case ActTanh:
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				post.Set(i, j, math.Tanh(pre.At(i, j)))
			}
		}
	default:
		panic("未知的激活函数: " + a.String())
	}
	return post
}

// BackpropCache 返回后向变换需要缓存的那一个前向结果
// ActReLU 需要预激活值，ActReHu 和 ActTanh 需要激活后的值，
// ActLinear 和 ActNormReHu 不使用缓存值（后者在后向时自行重算前向）
// 传错缓存值不会被检测到，只会得到悄然错误的梯度
func (a ActFunc) BackpropCache(post *mat.Dense, pre *mat.Dense) *mat.Dense {
	switch a {
	case ActLinear, ActNormReHu:
		return nil
	case ActReLU:
		return pre
	case ActReHu, ActTanh:
		return post
	}
	panic("未知的激活函数: " + a.String())
}

// Backward 由上游梯度计算损失对预激活值的局部梯度
// cached 必须是 BackpropCache 选出的那一个前向结果
// input 和 weights 只有 ActNormReHu 使用，用于在内部重算前向
func (a ActFunc) Backward(cached *mat.Dense, upstream *mat.Dense, input *mat.Dense, weights *mat.Dense) *mat.Dense {
	n, m := upstream.Dims()
	local := mat.NewDense(n, m, nil)

	switch a {
	case ActLinear:
		// 导数处处为1
		local.Copy(upstream)
	case ActReLU:
		// cached 为预激活值，0视为非正
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				if cached.At(i, j) > 0 {
					local.Set(i, j, upstream.At(i, j))
				}
			}
		}
	case ActReHu:
		// cached 为激活后的值v，分段规则按原样保留：
		// 1e-10<v<0.25 时导数为 2*sqrt(v)，其余 v>0 时为1，v<=0 时为0
		// 二次段上 v=x^2，2*sqrt(v)=2x 正是前向规则的导数
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				v := cached.At(i, j)
				switch {
				case v > 1e-10 && v < rehuKnee*rehuKnee:
					local.Set(i, j, upstream.At(i, j)*2*math.Sqrt(v))
				case v > 0:
					local.Set(i, j, upstream.At(i, j))
				}
			}
		}
	case ActTanh:
		// cached 为激活后的值y，导数为 1-y^2
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				y := cached.At(i, j)
				local.Set(i, j, upstream.At(i, j)*(1-y*y))
			}
		}
	case ActNormReHu:
		local = normReHuBackward(upstream, input, weights)
	default:
		panic("未知的激活函数: " + a.String())
	}
	return local
}

// normReHuBackward 行归一化修正Huber单元的后向变换
// 这是对 L2归一化与修正Huber复合 的向量-雅可比积，不同于其余变体的逐元素导数
// 不使用调用方的缓存值，而是由 input 和 weights 重算一遍前向
func normReHuBackward(upstream *mat.Dense, input *mat.Dense, weights *mat.Dense) *mat.Dense {
	// 重算预激活值 pre = input * weights^T
	var pre mat.Dense
	pre.Mul(input, weights.T())

	n, m := upstream.Dims()
	local := mat.NewDense(n, m, nil)
	a1 := make([]float64, m)

	for i := 0; i < n; i++ {
		// 未归一化的修正Huber输出 A1 及其稳定化行范数 A1N
		sum := 0.0
		for j := 0; j < m; j++ {
			a1[j] = rehu(pre.At(i, j))
			sum += a1[j] * a1[j]
		}
		a1n := math.Sqrt(sum + normEpsilon)

		// 行标量 V = sum(dLdA2 ⊙ A1)
		v := 0.0
		for j := 0; j < m; j++ {
			v += upstream.At(i, j) * a1[j]
		}

		// dLdA1 = dLdA2/A1N - A2*(V/A1N^2)，其中 A2 = A1/A1N
		// 再乘上修正Huber对预激活值的导数得到局部梯度
		for j := 0; j < m; j++ {
			a2 := a1[j] / a1n
			dlda1 := upstream.At(i, j)/a1n - a2*(v/(a1n*a1n))
			local.Set(i, j, dlda1*rehuDeriv(pre.At(i, j)))
		}
	}
	return local
}
