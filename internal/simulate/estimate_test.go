package simulate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/costrisk-sim/internal/model"
)

func TestDeterministicEstimateIgnoresMLQuote(t *testing.T) {
	ml := 1000.0
	snap := snapshot{
		items: []model.CapexItem{{ID: "i1", P10: 100, P90: 400, ML: &ml}},
	}

	got := deterministicEstimate(snap)
	assert.InDelta(t, math.Sqrt(100*400), got, 1e-6)
}

func TestPertEstimateUsesMLWhenGiven(t *testing.T) {
	ml := 150.0
	snap := snapshot{
		items: []model.CapexItem{{ID: "i1", P10: 100, P90: 400, ML: &ml}},
	}

	got := pertEstimate(snap)
	want := (100 + 4*150 + 400) / 6.0
	assert.InDelta(t, want, got, 1e-6)
}

func TestMitigationImpactsOneEntryPerAction(t *testing.T) {
	ds := model.Dataset{
		Items: []model.CapexItem{{ID: "i1", P10: 100, P90: 200}},
		ItemActions: []model.CapexAction{
			{ID: "adj", ItemID: "i1", Name: "early trim", Kind: model.CapexAdjustment, P10: -10, P90: -10, EffectiveDate: date(2026, 1, 10)},
			{ID: "rep", ItemID: "i1", Name: "late replace", Kind: model.CapexReplacement, P10: 50, P90: 100, EffectiveDate: date(2026, 1, 20)},
		},
	}

	impacts := mitigationImpacts(ds, date(2026, 1, 31))
	require.Len(t, impacts, 2)

	assert.Equal(t, "adj", impacts[0].ID)
	assert.Equal(t, "early trim", impacts[0].Name)
	assert.Equal(t, "rep", impacts[1].ID)
	assert.Equal(t, "late replace", impacts[1].Name)

	// The replacement's own saving is measured against the state the
	// adjustment left behind, not the original quote.
	afterAdjustment := pointEstimate(90, 190)
	afterReplacement := pointEstimate(50, 100)
	assert.InDelta(t, afterAdjustment-afterReplacement, impacts[1].Amount, 1e-9)
}

func TestMitigationImpactsOmitsActionsNotYetEffective(t *testing.T) {
	ds := model.Dataset{
		Items: []model.CapexItem{{ID: "i1", P10: 100, P90: 200}},
		ItemActions: []model.CapexAction{
			{ID: "future", ItemID: "i1", Kind: model.CapexAdjustment, P10: 10, P90: 10, EffectiveDate: date(2026, 6, 1)},
		},
	}

	impacts := mitigationImpacts(ds, date(2026, 1, 1))
	assert.Empty(t, impacts)
}
