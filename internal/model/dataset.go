package model

// Dataset is the normalized, validated input to a simulation run: every
// foreign key has been checked to resolve, every row has passed its
// range checks, and no further validation is needed downstream.
type Dataset struct {
	Items       []CapexItem
	ItemActions []CapexAction
	Risks       []Risk
	RiskActions []RiskAction
	Lookups     Lookups
}

// NItems and NRisks report the element counts used to size the
// correlation matrix and the per-iteration sample vectors.
func (d Dataset) NItems() int { return len(d.Items) }
func (d Dataset) NRisks() int { return len(d.Risks) }
