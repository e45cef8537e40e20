// Package sampler draws correlated cost and risk-occurrence samples for a
// single Monte Carlo iteration.
package sampler

import (
	"math"
	"math/rand/v2"
)

// SplitRNG is a counter-based random source: every (masterSeed,
// iterationIndex) pair deterministically produces its own independent
// sub-stream, so iterations can run concurrently and still reproduce
// bit-for-bit given the same seed and iteration count. This replaces a
// single shared generator advanced sequentially across iterations, which
// cannot be parallelized without either locking or losing reproducibility.
type SplitRNG struct {
	r *rand.Rand
}

// NewSplitRNG derives the sub-stream for iteration idx under masterSeed.
// PCG's two 64-bit seed words give each iteration its own stream rather
// than merely a different starting point in a shared one.
func NewSplitRNG(masterSeed uint64, idx int) *SplitRNG {
	src := rand.NewPCG(masterSeed, uint64(idx))
	return &SplitRNG{r: rand.New(src)}
}

// StandardNormal draws n iid samples from the standard normal
// distribution via the Box-Muller transform.
func (s *SplitRNG) StandardNormal(n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i += 2 {
		u1 := s.r.Float64()
		u2 := s.r.Float64()
		// Guard against log(0); Float64 returns [0, 1).
		for u1 == 0 {
			u1 = s.r.Float64()
		}
		r := math.Sqrt(-2 * math.Log(u1))
		theta := 2 * math.Pi * u2
		out[i] = r * math.Cos(theta)
		if i+1 < n {
			out[i+1] = r * math.Sin(theta)
		}
	}
	return out
}

// Uniform draws a single sample from [0, 1).
func (s *SplitRNG) Uniform() float64 {
	return s.r.Float64()
}
