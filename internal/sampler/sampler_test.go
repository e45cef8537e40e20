package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/costrisk-sim/internal/correlation"
	"github.com/sells-group/costrisk-sim/internal/distribution"
)

func TestSampleIndependentConverges(t *testing.T) {
	item := distribution.Fit(100, 200)
	const iterations = 20000

	var sum float64
	for i := 0; i < iterations; i++ {
		rng := NewSplitRNG(42, i)
		draws := Sample(rng, nil, []distribution.Lognormal{item}, nil)
		sum += draws.ItemCosts[0]
	}
	mean := sum / iterations
	assert.InDelta(t, item.Mean(), mean, item.Mean()*0.05)
}

func TestSampleReproducibleGivenSameSeed(t *testing.T) {
	item := distribution.Fit(50, 500)
	a := Sample(NewSplitRNG(7, 3), nil, []distribution.Lognormal{item}, nil)
	b := Sample(NewSplitRNG(7, 3), nil, []distribution.Lognormal{item}, nil)
	assert.Equal(t, a.ItemCosts, b.ItemCosts)
}

func TestSampleDifferentIterationsDiffer(t *testing.T) {
	item := distribution.Fit(50, 500)
	a := Sample(NewSplitRNG(7, 1), nil, []distribution.Lognormal{item}, nil)
	b := Sample(NewSplitRNG(7, 2), nil, []distribution.Lognormal{item}, nil)
	assert.NotEqual(t, a.ItemCosts, b.ItemCosts)
}

func TestSampleRiskOccurrenceRateMatchesProbability(t *testing.T) {
	risk := RiskInput{Probability: 0.3, Impact: distribution.Fit(1000, 5000)}
	const iterations = 20000

	occurrences := 0
	for i := 0; i < iterations; i++ {
		rng := NewSplitRNG(11, i)
		draws := Sample(rng, nil, nil, []RiskInput{risk})
		if draws.RiskOccurred[0] {
			occurrences++
		}
	}
	rate := float64(occurrences) / iterations
	assert.InDelta(t, 0.3, rate, 0.02)
}

func TestSampleSameOwnerDisciplineCorrelationApproximatesPointNine(t *testing.T) {
	elems := []correlation.Element{
		{ID: "i1", Kind: correlation.ItemElement, Owner: "alice", Discipline: "civil"},
		{ID: "i2", Kind: correlation.ItemElement, Owner: "alice", Discipline: "civil"},
	}
	affinity, _ := correlation.BuildAffinityMatrix(elems)
	factor, _, _, err := correlation.Factor(affinity, correlation.DefaultConfig())
	require.NoError(t, err)

	items := []distribution.Lognormal{distribution.Fit(100, 200), distribution.Fit(100, 200)}
	const iterations = 20000

	a := make([]float64, iterations)
	b := make([]float64, iterations)
	for i := 0; i < iterations; i++ {
		draws := Sample(NewSplitRNG(42, i), factor, items, nil)
		a[i] = draws.ItemCosts[0]
		b[i] = draws.ItemCosts[1]
	}

	assert.InDelta(t, 0.9, pearson(a, b), 0.05)
}

func pearson(a, b []float64) float64 {
	n := float64(len(a))
	var sumA, sumB, sumAB, sumA2, sumB2 float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
		sumAB += a[i] * b[i]
		sumA2 += a[i] * a[i]
		sumB2 += b[i] * b[i]
	}
	cov := sumAB/n - (sumA/n)*(sumB/n)
	varA := sumA2/n - (sumA/n)*(sumA/n)
	varB := sumB2/n - (sumB/n)*(sumB/n)
	return cov / math.Sqrt(varA*varB)
}

func TestDrawsTotalSumsItemsAndOccurredRisks(t *testing.T) {
	d := Draws{
		ItemCosts:    []float64{10, 20},
		RiskOccurred: []bool{true, false},
		RiskImpacts:  []float64{5, 100},
	}
	require.Equal(t, 35.0, d.Total())
}
