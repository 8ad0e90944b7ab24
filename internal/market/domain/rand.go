package domain

import "math/rand/v2"

// Rand 可注入的随机源。决策与定价逻辑只依赖该接口，
// 测试可注入确定性序列复现场景。
type Rand interface {
	// Float64 返回 [0,1) 区间的随机数
	Float64() float64
	// IntN 返回 [0,n) 区间的随机整数，n 必须为正
	IntN(n int) int
}

type pcgRand struct {
	r *rand.Rand
}

// NewRand 创建基于 PCG 的随机源
func NewRand(seed uint64) Rand {
	return &pcgRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *pcgRand) Float64() float64 { return p.r.Float64() }
func (p *pcgRand) IntN(n int) int   { return p.r.IntN(n) }

// uniform 返回 [min, max) 区间的均匀随机数
func uniform(r Rand, min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// uniformInt 返回 [min, max] 区间的均匀随机整数
func uniformInt(r Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.IntN(max-min+1)
}
