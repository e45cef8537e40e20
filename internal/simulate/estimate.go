package simulate

import (
	"sort"
	"time"

	"github.com/sells-group/costrisk-sim/internal/correlation"
	"github.com/sells-group/costrisk-sim/internal/distribution"
	"github.com/sells-group/costrisk-sim/internal/model"
)

// pointEstimate is the official non-simulated point value for a quote:
// the fitted lognormal's median. An explicit ML quote is a display-only
// diagnostic and never substitutes for it; see mostLikely.
func pointEstimate(p10, p90 float64) float64 {
	return distribution.Fit(p10, p90).Median()
}

// mostLikely returns an item or risk-impact's three-point PERT input:
// its explicit most-likely quote if one was given, otherwise the fitted
// lognormal's median.
func mostLikely(p10 float64, ml *float64, p90 float64) float64 {
	if ml != nil {
		return *ml
	}
	return pointEstimate(p10, p90)
}

// deterministicEstimate sums every item's point cost with every risk's
// probability-weighted point impact, with no sampling involved. This is
// the engine's one official non-simulated estimate.
func deterministicEstimate(snap snapshot) float64 {
	var total float64
	for _, item := range snap.items {
		total += pointEstimate(item.P10, item.P90)
	}
	for _, risk := range snap.risks {
		total += risk.Probability * pointEstimate(risk.P10Impact, risk.P90Impact)
	}
	return total
}

// pertEstimate is the three-point PERT analogue of deterministicEstimate,
// kept as an additional diagnostic only.
func pertEstimate(snap snapshot) float64 {
	var total float64
	for _, item := range snap.items {
		ml := mostLikely(item.P10, item.ML, item.P90)
		total += distribution.PERT(item.P10, ml, item.P90)
	}
	for _, risk := range snap.risks {
		ml := mostLikely(risk.P10Impact, risk.ML, risk.P90Impact)
		total += risk.Probability * distribution.PERT(risk.P10Impact, ml, risk.P90Impact)
	}
	return total
}

// mitigationImpacts reports one entry per capex or risk action already
// in effect as of asOf, each carrying the action's own id, name, and the
// expected saving it contributes on its own — the point estimate just
// before the action applied minus the point estimate just after. Actions
// on the same element are walked in the same chronological, priority-
// tie-broken order the checkpoint snapshot itself applies them in, so an
// action whose effect nets to zero still appears.
func mitigationImpacts(ds model.Dataset, asOf time.Time) []Impact {
	type dated struct {
		date time.Time
		id   string
		imp  Impact
	}
	var collected []dated

	itemActionsByItem := make(map[string][]model.CapexAction)
	for _, a := range ds.ItemActions {
		if !a.EffectiveDate.After(asOf) {
			itemActionsByItem[a.ItemID] = append(itemActionsByItem[a.ItemID], a)
		}
	}
	for _, item := range ds.Items {
		actions := itemActionsByItem[item.ID]
		if len(actions) == 0 {
			continue
		}
		sortItemActions(actions)
		cur := item
		for _, a := range actions {
			before := pointEstimate(cur.P10, cur.P90)
			cur = applyOneCapexAction(cur, a)
			after := pointEstimate(cur.P10, cur.P90)
			collected = append(collected, dated{
				date: a.EffectiveDate,
				id:   a.ID,
				imp:  Impact{Kind: MitigationImpact, ID: a.ID, Name: a.Name, Amount: before - after},
			})
		}
	}

	riskActionsByRisk := make(map[string][]model.RiskAction)
	for _, a := range ds.RiskActions {
		if !a.EffectiveDate.After(asOf) {
			riskActionsByRisk[a.RiskID] = append(riskActionsByRisk[a.RiskID], a)
		}
	}
	for _, risk := range ds.Risks {
		actions := riskActionsByRisk[risk.ID]
		if len(actions) == 0 {
			continue
		}
		sortRiskActions(actions)
		cur := risk
		for _, a := range actions {
			before := cur.Probability * pointEstimate(cur.P10Impact, cur.P90Impact)
			cur = applyOneRiskAction(cur, a)
			after := cur.Probability * pointEstimate(cur.P10Impact, cur.P90Impact)
			collected = append(collected, dated{
				date: a.EffectiveDate,
				id:   a.ID,
				imp:  Impact{Kind: MitigationImpact, ID: a.ID, Name: a.Name, Amount: before - after},
			})
		}
	}

	sort.Slice(collected, func(i, j int) bool {
		if !collected[i].date.Equal(collected[j].date) {
			return collected[i].date.Before(collected[j].date)
		}
		return collected[i].id < collected[j].id
	})

	impacts := make([]Impact, len(collected))
	for i, c := range collected {
		impacts[i] = c.imp
	}
	return impacts
}

// riskImpacts reports every logged risk's current probability-weighted
// point impact, including risks whose probability has been reduced to
// zero — a risk retired to zero probability still belongs in the
// diagnostic view of what was on the register.
func riskImpacts(snap snapshot) []Impact {
	impacts := make([]Impact, 0, len(snap.risks))
	for _, risk := range snap.risks {
		amount := risk.Probability * pointEstimate(risk.P10Impact, risk.P90Impact)
		impacts = append(impacts, Impact{Kind: RiskImpact, ID: risk.ID, Name: risk.Name, Amount: amount})
	}
	return impacts
}

func itemElement(item model.CapexItem, lookups model.Lookups) correlation.Element {
	return correlation.Element{
		ID:             item.ID,
		Kind:           correlation.ItemElement,
		Owner:          item.Owner,
		Discipline:     item.Discipline,
		Phase:          item.Phase,
		PhaseOrder:     phaseOrder(lookups, item.Phase),
		Location:       item.Location,
		ParentLocation: parentLocation(lookups, item.Location),
	}
}

func riskElement(risk model.Risk, lookups model.Lookups) correlation.Element {
	return correlation.Element{
		ID:             risk.ID,
		Kind:           correlation.RiskElement,
		Owner:          risk.Owner,
		Discipline:     risk.Discipline,
		Phase:          risk.Phase,
		PhaseOrder:     phaseOrder(lookups, risk.Phase),
		Location:       risk.Location,
		ParentLocation: parentLocation(lookups, risk.Location),
		RiskCategory:   risk.RiskCategory,
		RiskLog:        risk.RiskLog,
	}
}

func phaseOrder(lookups model.Lookups, phaseID string) int {
	if p, ok := lookups.Phases[phaseID]; ok {
		return p.PhaseOrder
	}
	return 0
}

func parentLocation(lookups model.Lookups, locationID string) string {
	if loc, ok := lookups.Locations[locationID]; ok && loc.ParentLocation != nil {
		return *loc.ParentLocation
	}
	return ""
}
