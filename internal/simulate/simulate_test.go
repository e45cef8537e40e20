package simulate

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/costrisk-sim/internal/model"
)

func TestSimulateCostEvolutionSingleItemMedianMatchesGeometricMean(t *testing.T) {
	ds := model.Dataset{
		Items: []model.CapexItem{
			{ID: "i1", Name: "widget", P10: 100, P90: 200, BaseDate: date(2026, 1, 1)},
		},
	}
	cfg := Config{
		DataDate:      date(2026, 1, 1),
		Frequency:     Monthly,
		HorizonMonths: 1,
		NIterations:   5000,
		Seed:          seedPtr(1),
	}

	result, err := SimulateCostEvolution(context.Background(), ds, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, result.Checkpoints)

	first := result.Checkpoints[0]
	wantMedian := math.Sqrt(100 * 200)
	assert.InDelta(t, wantMedian, first.Deterministic, 1e-6)
	assert.InDelta(t, wantMedian, first.P50, wantMedian*0.1)
	assert.True(t, first.Resampled)
}

func TestSimulateCostEvolutionRejectsInvalidConfig(t *testing.T) {
	ds := model.Dataset{Items: []model.CapexItem{{ID: "i1", P10: 1, P90: 2, BaseDate: date(2026, 1, 1)}}}
	cfg := Config{DataDate: date(2026, 1, 1), Frequency: "daily", HorizonMonths: 12, NIterations: 10000}

	_, err := SimulateCostEvolution(context.Background(), ds, cfg)
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestSimulateCostEvolutionRejectsEmptyDataset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDate = date(2026, 1, 1)

	_, err := SimulateCostEvolution(context.Background(), model.Dataset{}, cfg)
	require.Error(t, err)
	var dataErr *InsufficientDataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestSimulateCostEvolutionSkipsResamplingWhenUnchanged(t *testing.T) {
	ds := model.Dataset{
		Items: []model.CapexItem{
			{ID: "i1", P10: 100, P90: 200, BaseDate: date(2026, 1, 1)},
		},
	}
	cfg := Config{
		DataDate:      date(2026, 1, 1),
		Frequency:     Monthly,
		HorizonMonths: 3,
		NIterations:   1000,
		Seed:          seedPtr(2),
	}

	result, err := SimulateCostEvolution(context.Background(), ds, cfg)
	require.NoError(t, err)
	require.Len(t, result.Checkpoints, 4)

	assert.True(t, result.Checkpoints[0].Resampled)
	for _, cp := range result.Checkpoints[1:] {
		assert.False(t, cp.Resampled)
		assert.Equal(t, result.Checkpoints[0].P50, cp.P50)
	}
}

func TestAggregatePercentilesAreOrdered(t *testing.T) {
	totals := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	p20, p50, p80 := Aggregate(totals)
	assert.Less(t, p20, p50)
	assert.Less(t, p50, p80)
}

func TestFormatCostScalesSuffix(t *testing.T) {
	assert.Equal(t, "$1.50M", FormatCost(1_500_000))
	assert.Equal(t, "$2.00B", FormatCost(2_000_000_000))
}

func TestSimulateCostEvolutionReportsHeaderFields(t *testing.T) {
	ds := model.Dataset{
		Items: []model.CapexItem{
			{ID: "i1", P10: 100, P90: 200, BaseDate: date(2026, 1, 1)},
		},
		Risks: []model.Risk{
			{ID: "r1", Probability: 0.5, P10Impact: 10, P90Impact: 20},
		},
	}
	cfg := Config{
		DataDate:      date(2026, 1, 1),
		Frequency:     Weekly,
		HorizonMonths: 1,
		NIterations:   1000,
	}

	result, err := SimulateCostEvolution(context.Background(), ds, cfg)
	require.NoError(t, err)
	assert.NotZero(t, result.SeedUsed)
	assert.Equal(t, 1000, result.NIterations)
	assert.Equal(t, 1, result.NItems)
	assert.Equal(t, 1, result.NRisks)
}

func TestSimulateCostEvolutionReproducesGivenExplicitSeed(t *testing.T) {
	ds := model.Dataset{
		Items: []model.CapexItem{
			{ID: "i1", P10: 100, P90: 200, BaseDate: date(2026, 1, 1)},
		},
	}
	cfg := Config{
		DataDate:      date(2026, 1, 1),
		Frequency:     Weekly,
		HorizonMonths: 1,
		NIterations:   1000,
		Seed:          seedPtr(99),
	}

	result, err := SimulateCostEvolution(context.Background(), ds, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(99), result.SeedUsed)
}

func seedPtr(v int64) *int64 {
	return &v
}

func findCheckpoint(t *testing.T, result *Result, d time.Time) CheckpointResult {
	t.Helper()
	for _, cp := range result.Checkpoints {
		if cp.Date.Equal(d) {
			return cp
		}
	}
	t.Fatalf("no checkpoint at %s", d)
	return CheckpointResult{}
}

func TestSimulateCostEvolutionCostAdjustmentActionTiming(t *testing.T) {
	base := date(2025, 1, 1)
	ds := model.Dataset{
		Items: []model.CapexItem{{ID: "i1", P10: 100, P90: 200, BaseDate: base}},
		ItemActions: []model.CapexAction{
			{ID: "a1", ItemID: "i1", Kind: model.CapexAdjustment, P10: 20, P90: 40, EffectiveDate: base.AddDate(0, 0, 42)},
		},
	}
	cfg := Config{DataDate: base, Frequency: Weekly, HorizonMonths: 3, NIterations: 20000, Seed: seedPtr(42)}

	result, err := SimulateCostEvolution(context.Background(), ds, cfg)
	require.NoError(t, err)

	before := findCheckpoint(t, result, base.AddDate(0, 0, 35))
	after := findCheckpoint(t, result, base.AddDate(0, 0, 42))

	assert.InDelta(t, 141.4, before.Deterministic, 141.4*0.02)
	assert.InDelta(t, 169.7, after.Deterministic, 169.7*0.02)
}

func TestSimulateCostEvolutionRiskContributesToDeterministic(t *testing.T) {
	base := date(2025, 1, 1)
	ds := model.Dataset{
		Items: []model.CapexItem{{ID: "i1", P10: 100, P90: 200, BaseDate: base}},
		Risks: []model.Risk{{ID: "r1", Probability: 0.5, P10Impact: 50, P90Impact: 100}},
	}
	cfg := Config{DataDate: base, Frequency: Weekly, HorizonMonths: 1, NIterations: 1000}

	result, err := SimulateCostEvolution(context.Background(), ds, cfg)
	require.NoError(t, err)

	first := result.Checkpoints[0]
	assert.InDelta(t, 176.75, first.Deterministic, 176.75*0.02)
}

func TestSimulateCostEvolutionRiskEliminationAction(t *testing.T) {
	base := date(2025, 1, 1)
	ds := model.Dataset{
		Items: []model.CapexItem{{ID: "i1", P10: 100, P90: 200, BaseDate: base}},
		Risks: []model.Risk{{ID: "r1", Probability: 0.5, P10Impact: 50, P90Impact: 100}},
		RiskActions: []model.RiskAction{
			{ID: "elim", RiskID: "r1", Kind: model.RiskElimination, EffectiveDate: base.AddDate(0, 0, 28)},
		},
	}
	cfg := Config{DataDate: base, Frequency: Weekly, HorizonMonths: 2, NIterations: 1000}

	result, err := SimulateCostEvolution(context.Background(), ds, cfg)
	require.NoError(t, err)

	before := findCheckpoint(t, result, base.AddDate(0, 0, 21))
	after := findCheckpoint(t, result, base.AddDate(0, 0, 28))

	assert.InDelta(t, 176.75, before.Deterministic, 176.75*0.02)
	assert.InDelta(t, 141.4, after.Deterministic, 141.4*0.02)
}

func TestSimulateCostEvolutionRiskLoggedMidHorizon(t *testing.T) {
	base := date(2025, 1, 1)
	logDate := base.AddDate(0, 0, 56)
	ds := model.Dataset{
		Items: []model.CapexItem{{ID: "i1", P10: 100, P90: 200, BaseDate: base}},
		Risks: []model.Risk{{ID: "r1", Probability: 0.5, P10Impact: 50, P90Impact: 100, RiskLogDate: &logDate}},
	}
	cfg := Config{DataDate: base, Frequency: Weekly, HorizonMonths: 3, NIterations: 1000}

	result, err := SimulateCostEvolution(context.Background(), ds, cfg)
	require.NoError(t, err)

	before := findCheckpoint(t, result, base.AddDate(0, 0, 49))
	after := findCheckpoint(t, result, logDate)

	assert.InDelta(t, 141.4, before.Deterministic, 141.4*0.02)
	assert.InDelta(t, 176.75, after.Deterministic, 176.75*0.02)
}
