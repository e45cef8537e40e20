package simulate

import "time"

// ImpactKind distinguishes a mitigation effect from a raw risk exposure in
// the diagnostic impact lists a checkpoint reports.
type ImpactKind int

const (
	MitigationImpact ImpactKind = iota
	RiskImpact
)

// Impact is one line of a checkpoint's diagnostic impact tracking: how
// much a single action or risk moved the deterministic estimate.
type Impact struct {
	Kind   ImpactKind `json:"kind"`
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Amount float64    `json:"amount"`
}

// CheckpointResult is the simulation outcome as of a single checkpoint
// date.
type CheckpointResult struct {
	Date time.Time `json:"date"`

	P20 float64 `json:"p20"`
	P50 float64 `json:"p50"`
	P80 float64 `json:"p80"`
	// Deterministic is the median-based point estimate: the sum of every
	// item's point cost plus every risk's probability-weighted point
	// impact, with no sampling involved.
	Deterministic float64 `json:"deterministic"`
	// PERTEstimate is an optional three-point diagnostic alongside
	// Deterministic; it is never used as the official estimate.
	PERTEstimate float64 `json:"pert_estimate"`

	MitigationImpacts []Impact `json:"mitigation_impacts,omitempty"`
	RiskImpacts       []Impact `json:"risk_impacts,omitempty"`

	MinCorrelationEigenvalue float64 `json:"min_correlation_eigenvalue"`
	CorrelationRepaired      bool    `json:"correlation_repaired"`
	// Resampled is false when this checkpoint's snapshot was identical to
	// the previous checkpoint's and the Monte Carlo pass was skipped.
	Resampled bool `json:"resampled"`
}

// CorrelationSummary describes the correlation structure the run actually
// used, captured from the first checkpoint that built a category
// affinity matrix (correlation structure rarely changes checkpoint to
// checkpoint, so one summary speaks for the run).
type CorrelationSummary struct {
	// NonZeroPairs counts off-diagonal element pairs with a positive
	// affinity score.
	NonZeroPairs int `json:"non_zero_pairs"`
	// MeanOffDiagonal is the mean affinity score across every off-diagonal
	// pair, zero pairs included.
	MeanOffDiagonal float64 `json:"mean_off_diagonal"`
	// RepairNeeded reports whether the affinity matrix required PSD
	// repair before it was usable as a Cholesky factor.
	RepairNeeded bool `json:"repair_needed"`
}

// Result is the full output of a simulation run: the header fields
// describe the run as a whole, Checkpoints holds one CheckpointResult per
// evaluated date in chronological order.
type Result struct {
	// SeedUsed is the master seed this run actually sampled with — either
	// the caller's Config.Seed or, if none was given, a seed generated for
	// this run and reported back here so it can be reproduced.
	SeedUsed int64 `json:"seed_used"`
	// NIterations is the per-checkpoint Monte Carlo sample count used.
	NIterations int `json:"n_iterations"`
	// NItems and NRisks are the dataset's total element counts, including
	// risks whose log date falls later in the horizon.
	NItems int `json:"n_items"`
	NRisks int `json:"n_risks"`
	// CorrelationSummary is nil when correlation was disabled or there
	// were fewer than two elements to correlate.
	CorrelationSummary *CorrelationSummary `json:"correlation_summary,omitempty"`

	Checkpoints []CheckpointResult `json:"checkpoints"`
}
