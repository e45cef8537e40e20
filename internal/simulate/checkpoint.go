package simulate

import (
	"sort"
	"time"

	"github.com/sells-group/costrisk-sim/internal/model"
)

// Actions apply in chronological order by EffectiveDate; these priorities
// only break ties among actions sharing the same EffectiveDate. A cost
// replacement lands before a cost adjustment, and among risk actions
// probability reductions land before impact reductions, which land
// before elimination.
const (
	priorityCostReplacement = 0
	priorityCostAdjustment  = 1
	priorityProbabilityCut  = 2
	priorityImpactCut       = 3
	priorityElimination     = 4
)

// generateCheckpoints builds the sorted, deduplicated set of dates the
// evolution loop evaluates: the regular weekly/monthly cadence from
// cfg.DataDate through the horizon, plus every action effective date and
// risk log date that falls inside the horizon. Irregular dates are
// inserted so a mitigation or a newly logged risk is picked up exactly
// when it takes effect rather than rounded to the next regular tick.
func generateCheckpoints(cfg Config, ds model.Dataset) []time.Time {
	end := cfg.DataDate.AddDate(0, cfg.HorizonMonths, 0)

	set := make(map[time.Time]struct{})
	for d := cfg.DataDate; !d.After(end); {
		set[d] = struct{}{}
		if cfg.Frequency == Weekly {
			d = d.AddDate(0, 0, 7)
		} else {
			d = d.AddDate(0, 1, 0)
		}
	}

	addIfInRange := func(d time.Time) {
		if !d.Before(cfg.DataDate) && !d.After(end) {
			set[d] = struct{}{}
		}
	}
	for _, a := range ds.ItemActions {
		addIfInRange(a.EffectiveDate)
	}
	for _, a := range ds.RiskActions {
		addIfInRange(a.EffectiveDate)
	}
	for _, r := range ds.Risks {
		if r.RiskLogDate != nil {
			addIfInRange(*r.RiskLogDate)
		}
	}

	out := make([]time.Time, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// snapshot is the fully-mitigated, fully-logged state of the dataset as
// of a single checkpoint date.
type snapshot struct {
	items []model.CapexItem
	risks []model.Risk
}

// buildSnapshot applies every action effective on or before asOf and
// drops risks not yet logged as of asOf. Actions apply in chronological
// order, with the fixed priority order breaking same-date ties.
func buildSnapshot(ds model.Dataset, asOf time.Time) snapshot {
	itemActionsByItem := make(map[string][]model.CapexAction)
	for _, a := range ds.ItemActions {
		if !a.EffectiveDate.After(asOf) {
			itemActionsByItem[a.ItemID] = append(itemActionsByItem[a.ItemID], a)
		}
	}
	riskActionsByRisk := make(map[string][]model.RiskAction)
	for _, a := range ds.RiskActions {
		if !a.EffectiveDate.After(asOf) {
			riskActionsByRisk[a.RiskID] = append(riskActionsByRisk[a.RiskID], a)
		}
	}

	items := make([]model.CapexItem, len(ds.Items))
	for i, item := range ds.Items {
		items[i] = applyCapexActions(item, itemActionsByItem[item.ID])
	}

	risks := make([]model.Risk, 0, len(ds.Risks))
	for _, risk := range ds.Risks {
		if risk.RiskLogDate != nil && risk.RiskLogDate.After(asOf) {
			continue
		}
		risks = append(risks, applyRiskActions(risk, riskActionsByRisk[risk.ID]))
	}

	return snapshot{items: items, risks: risks}
}

func applyCapexActions(item model.CapexItem, actions []model.CapexAction) model.CapexItem {
	sortItemActions(actions)
	for _, a := range actions {
		item = applyOneCapexAction(item, a)
	}
	return item
}

func applyRiskActions(risk model.Risk, actions []model.RiskAction) model.Risk {
	sortRiskActions(actions)
	for _, a := range actions {
		risk = applyOneRiskAction(risk, a)
	}
	return risk
}

// sortItemActions and sortRiskActions put a checkpoint's applicable
// actions in chronological order, breaking ties among actions sharing an
// EffectiveDate by the fixed kind priority above.
func sortItemActions(actions []model.CapexAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		if !actions[i].EffectiveDate.Equal(actions[j].EffectiveDate) {
			return actions[i].EffectiveDate.Before(actions[j].EffectiveDate)
		}
		return capexActionPriority(actions[i].Kind) < capexActionPriority(actions[j].Kind)
	})
}

func sortRiskActions(actions []model.RiskAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		if !actions[i].EffectiveDate.Equal(actions[j].EffectiveDate) {
			return actions[i].EffectiveDate.Before(actions[j].EffectiveDate)
		}
		return riskActionPriority(actions[i].Kind) < riskActionPriority(actions[j].Kind)
	})
}

func applyOneCapexAction(item model.CapexItem, a model.CapexAction) model.CapexItem {
	switch a.Kind {
	case model.CapexReplacement:
		item.P10, item.P90 = a.P10, a.P90
		item.ML = nil
	case model.CapexAdjustment:
		item.P10 += a.P10
		item.P90 += a.P90
	}
	return item
}

func applyOneRiskAction(risk model.Risk, a model.RiskAction) model.Risk {
	switch a.Kind {
	case model.RiskProbabilityReduction:
		switch {
		case a.ProbabilityMultiplier != 0:
			risk.Probability *= a.ProbabilityMultiplier
		case a.ProbabilityCap != nil:
			if risk.Probability > *a.ProbabilityCap {
				risk.Probability = *a.ProbabilityCap
			}
		}
		risk.Probability = clamp01(risk.Probability)
	case model.RiskImpactReduction:
		risk.P10Impact, risk.P90Impact = a.P10Impact, a.P90Impact
		risk.ML = nil
	case model.RiskElimination:
		risk.Probability = 0
	}
	return risk
}

func capexActionPriority(kind model.CapexActionKind) int {
	if kind == model.CapexReplacement {
		return priorityCostReplacement
	}
	return priorityCostAdjustment
}

func riskActionPriority(kind model.RiskActionKind) int {
	switch kind {
	case model.RiskProbabilityReduction:
		return priorityProbabilityCut
	case model.RiskImpactReduction:
		return priorityImpactCut
	default:
		return priorityElimination
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// changed reports whether two snapshots differ in any cost- or
// risk-relevant field, used to decide whether a checkpoint needs a fresh
// Monte Carlo pass or can carry the previous checkpoint's result forward.
func (s snapshot) changed(prev snapshot) bool {
	if len(s.items) != len(prev.items) || len(s.risks) != len(prev.risks) {
		return true
	}
	for i, item := range s.items {
		p := prev.items[i]
		if item.P10 != p.P10 || item.P90 != p.P90 || !mlEqual(item.ML, p.ML) {
			return true
		}
	}
	for i, risk := range s.risks {
		p := prev.risks[i]
		if risk.Probability != p.Probability || risk.P10Impact != p.P10Impact || risk.P90Impact != p.P90Impact || !mlEqual(risk.ML, p.ML) {
			return true
		}
	}
	return false
}

func mlEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
