package sampler

import (
	"math"

	"github.com/sells-group/costrisk-sim/internal/correlation"
	"github.com/sells-group/costrisk-sim/internal/distribution"
)

// RiskInput is everything the sampler needs to draw a single risk's
// occurrence and conditional impact.
type RiskInput struct {
	Probability float64
	Impact      distribution.Lognormal
}

// Draws is the result of a single Monte Carlo iteration: one cost per
// item and one (occurred, impact) pair per risk, in the same order the
// items and risks were passed to Sample.
type Draws struct {
	ItemCosts    []float64
	RiskOccurred []bool
	RiskImpacts  []float64
}

// Total sums every item cost plus every occurred risk's impact.
func (d Draws) Total() float64 {
	var sum float64
	for _, c := range d.ItemCosts {
		sum += c
	}
	for i, occurred := range d.RiskOccurred {
		if occurred {
			sum += d.RiskImpacts[i]
		}
	}
	return sum
}

// Sample draws one correlated Monte Carlo iteration. factor is the
// Cholesky factor of the combined item+risk correlation matrix, ordered
// items first then risks, as produced by correlation.Factor. If factor is
// nil, items and risks are sampled independently.
func Sample(rng *SplitRNG, factor *correlation.Matrix, items []distribution.Lognormal, risks []RiskInput) Draws {
	n := len(items) + len(risks)
	u := correlatedUniforms(rng, factor, n)

	draws := Draws{
		ItemCosts:    make([]float64, len(items)),
		RiskOccurred: make([]bool, len(risks)),
		RiskImpacts:  make([]float64, len(risks)),
	}

	for i, item := range items {
		draws.ItemCosts[i] = item.InverseCDF(u[i])
	}

	for i, risk := range risks {
		ui := u[len(items)+i]
		// Occurrence is a Bernoulli trigger independent of the correlated
		// structure; only the conditional impact, once triggered, is drawn
		// from the correlated uniform.
		occurred := rng.Uniform() < risk.Probability
		draws.RiskOccurred[i] = occurred
		if occurred {
			draws.RiskImpacts[i] = risk.Impact.InverseCDF(ui)
		}
	}

	return draws
}

// correlatedUniforms produces n standard-uniform variates whose rank
// correlation follows factor, via a Gaussian copula: z ~ N(0, I), x = L*z,
// u = Phi(x).
func correlatedUniforms(rng *SplitRNG, factor *correlation.Matrix, n int) []float64 {
	z := rng.StandardNormal(n)
	if factor == nil {
		u := make([]float64, n)
		for i, zi := range z {
			u[i] = standardNormalCDF(zi)
		}
		return u
	}

	x := factor.MulVec(z)
	u := make([]float64, n)
	for i, xi := range x {
		u[i] = standardNormalCDF(xi)
	}
	return u
}

func standardNormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
