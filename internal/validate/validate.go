// Package validate type-checks and range-checks a simulation dataset
// before it reaches the distribution fitter or correlation builder.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/costrisk-sim/internal/model"
)

// RowError describes a single failing row. Table/RowID/Field identify the
// offending row precisely enough for a caller to report it back to a user.
type RowError struct {
	Table   string `json:"table"`
	RowID   string `json:"row_id"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	if e.Field != "" {
		return fmt.Sprintf("%s[%s].%s: %s", e.Table, e.RowID, e.Field, e.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Table, e.RowID, e.Message)
}

// ValidationError aggregates every failing row across every table. It is
// never returned after only the first failure — every row is checked.
type ValidationError struct {
	Errors  []RowError
	ByTable map[string][]RowError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "validate: no errors"
	}
	lines := make([]string, 0, len(e.Errors))
	for _, row := range e.Errors {
		lines = append(lines, row.String())
	}
	return fmt.Sprintf("validate: %d error(s):\n%s", len(e.Errors), strings.Join(lines, "\n"))
}

func (e *ValidationError) add(table string, row RowError) {
	row.Table = table
	e.Errors = append(e.Errors, row)
	if e.ByTable == nil {
		e.ByTable = make(map[string][]RowError)
	}
	e.ByTable[table] = append(e.ByTable[table], row)
}

func newCollector() *ValidationError {
	return &ValidationError{ByTable: make(map[string][]RowError)}
}

func finalize(c *ValidationError) *ValidationError {
	if len(c.Errors) == 0 {
		return nil
	}
	return c
}

// Validate checks every table in ds and returns a normalized dataset on
// success, or a single aggregated *ValidationError listing every
// offending row. It never stops at the first failure.
func Validate(ds model.Dataset) (model.Dataset, *ValidationError) {
	c := newCollector()

	itemIdx := validateCapexItems(c, ds.Items)
	riskIdx := validateRisks(c, ds.Risks)
	validateCapexActions(c, ds.ItemActions, itemIdx)
	validateRiskActions(c, ds.RiskActions, riskIdx)

	if err := finalize(c); err != nil {
		return model.Dataset{}, err
	}
	return ds, nil
}

func validateCapexItems(c *ValidationError, items []model.CapexItem) map[string]bool {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.ID == "" {
			c.add("capex_items", RowError{RowID: "<blank>", Message: "item id is required"})
			continue
		}
		if seen[item.ID] {
			c.add("capex_items", RowError{RowID: item.ID, Message: "duplicate item id"})
		}
		seen[item.ID] = true

		validateQuote(c, "capex_items", item.ID, item.P10, item.ML, item.P90)
		if item.BaseDate.IsZero() {
			c.add("capex_items", RowError{RowID: item.ID, Field: "base_date", Message: "base date is required"})
		}
	}
	return seen
}

func validateRisks(c *ValidationError, risks []model.Risk) map[string]bool {
	seen := make(map[string]bool, len(risks))
	for _, risk := range risks {
		if risk.ID == "" {
			c.add("risks", RowError{RowID: "<blank>", Message: "risk id is required"})
			continue
		}
		if seen[risk.ID] {
			c.add("risks", RowError{RowID: risk.ID, Message: "duplicate risk id"})
		}
		seen[risk.ID] = true

		if math.IsNaN(risk.Probability) || math.IsInf(risk.Probability, 0) || risk.Probability < 0 || risk.Probability > 1 {
			c.add("risks", RowError{RowID: risk.ID, Field: "probability", Message: "probability must be in [0, 1]"})
		}
		validateQuote(c, "risks", risk.ID, risk.P10Impact, risk.ML, risk.P90Impact)
	}
	return seen
}

func validateCapexActions(c *ValidationError, actions []model.CapexAction, itemIDs map[string]bool) {
	seen := make(map[string]bool, len(actions))
	for _, a := range actions {
		if a.ID == "" {
			c.add("capex_actions", RowError{RowID: "<blank>", Message: "action id is required"})
			continue
		}
		if seen[a.ID] {
			c.add("capex_actions", RowError{RowID: a.ID, Message: "duplicate action id"})
		}
		seen[a.ID] = true

		if !itemIDs[a.ItemID] {
			c.add("capex_actions", RowError{RowID: a.ID, Field: "item_id", Message: fmt.Sprintf("references unknown item %q", a.ItemID)})
		}
		validateQuote(c, "capex_actions", a.ID, a.P10, nil, a.P90)
		if a.EffectiveDate.IsZero() {
			c.add("capex_actions", RowError{RowID: a.ID, Field: "effective_date", Message: "effective date is required"})
		}
	}
}

func validateRiskActions(c *ValidationError, actions []model.RiskAction, riskIDs map[string]bool) {
	seen := make(map[string]bool, len(actions))
	for _, a := range actions {
		if a.ID == "" {
			c.add("risk_actions", RowError{RowID: "<blank>", Message: "action id is required"})
			continue
		}
		if seen[a.ID] {
			c.add("risk_actions", RowError{RowID: a.ID, Message: "duplicate action id"})
		}
		seen[a.ID] = true

		if !riskIDs[a.RiskID] {
			c.add("risk_actions", RowError{RowID: a.ID, Field: "risk_id", Message: fmt.Sprintf("references unknown risk %q", a.RiskID)})
		}
		if a.EffectiveDate.IsZero() {
			c.add("risk_actions", RowError{RowID: a.ID, Field: "effective_date", Message: "effective date is required"})
		}

		switch a.Kind {
		case model.RiskImpactReduction:
			validateQuote(c, "risk_actions", a.ID, a.P10Impact, nil, a.P90Impact)
		case model.RiskProbabilityReduction:
			if a.ProbabilityMultiplier < 0 {
				c.add("risk_actions", RowError{RowID: a.ID, Field: "probability_multiplier", Message: "must be non-negative"})
			}
			if a.ProbabilityCap != nil && (*a.ProbabilityCap < 0 || *a.ProbabilityCap > 1) {
				c.add("risk_actions", RowError{RowID: a.ID, Field: "probability_cap", Message: "must be in [0, 1]"})
			}
		}
	}
}

// validateQuote checks the shared P10/ML/P90 invariant: both positive,
// finite, P10 <= P90 (equal quotes are the degenerate zero-sigma case), and
// ML (if present) within [P10, P90].
func validateQuote(c *ValidationError, table, rowID string, p10 float64, ml *float64, p90 float64) {
	if math.IsNaN(p10) || math.IsInf(p10, 0) || p10 <= 0 {
		c.add(table, RowError{RowID: rowID, Field: "p10", Message: "must be a positive, finite number"})
	}
	if math.IsNaN(p90) || math.IsInf(p90, 0) || p90 <= 0 {
		c.add(table, RowError{RowID: rowID, Field: "p90", Message: "must be a positive, finite number"})
	}
	if p10 > 0 && p90 > 0 && p10 > p90 {
		c.add(table, RowError{RowID: rowID, Field: "p10", Message: "p10 must not exceed p90"})
	}
	if ml != nil {
		if math.IsNaN(*ml) || math.IsInf(*ml, 0) {
			c.add(table, RowError{RowID: rowID, Field: "ml", Message: "must be a finite number"})
		} else if *ml < p10 || *ml > p90 {
			c.add(table, RowError{RowID: rowID, Field: "ml", Message: "must lie within [p10, p90]"})
		}
	}
}
