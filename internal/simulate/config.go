package simulate

import "time"

// Frequency is the checkpoint cadence of the evolution loop.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// CorrelationMethod selects how the sampler couples items and risks.
type CorrelationMethod string

const (
	CorrelationCategory CorrelationMethod = "category"
	CorrelationNone     CorrelationMethod = "none"
)

// Config holds every external knob for a single simulation run.
type Config struct {
	DataDate    time.Time
	Frequency   Frequency
	// HorizonMonths is the simulation length, 1 to 60 months.
	HorizonMonths int
	// NIterations is the per-checkpoint Monte Carlo sample count, 1000 to
	// 50000.
	NIterations int
	// EnableCorrelation toggles category-based correlation; when false,
	// items and risks are sampled independently.
	EnableCorrelation bool
	CorrelationMethod CorrelationMethod
	// Seed is the master seed for the counter-based random source. Nil
	// means "not provided": SimulateCostEvolution picks a random seed and
	// reports it back on Result.SeedUsed so the run can be reproduced.
	Seed *int64
	// MaxConcurrency bounds how many iterations run in parallel; zero
	// selects a default.
	MaxConcurrency int
}

// DefaultConfig returns the documented defaults: weekly cadence, a
// 12-month horizon, 10000 iterations, correlation enabled via category
// affinity.
func DefaultConfig() Config {
	return Config{
		Frequency:         Weekly,
		HorizonMonths:     12,
		NIterations:       10000,
		EnableCorrelation: true,
		CorrelationMethod: CorrelationCategory,
	}
}

func (c Config) validate() error {
	if c.DataDate.IsZero() {
		return configError("data_date", "is required")
	}
	if c.Frequency != Weekly && c.Frequency != Monthly {
		return configError("frequency", "must be \"weekly\" or \"monthly\"")
	}
	if c.HorizonMonths < 1 || c.HorizonMonths > 60 {
		return configError("horizon_months", "must be between 1 and 60")
	}
	if c.NIterations < 1000 || c.NIterations > 50000 {
		return configError("n_iterations", "must be between 1000 and 50000")
	}
	if c.EnableCorrelation && c.CorrelationMethod != CorrelationCategory && c.CorrelationMethod != CorrelationNone {
		return configError("correlation_method", "must be \"category\" or \"none\"")
	}
	return nil
}
