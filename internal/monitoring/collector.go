package monitoring

import "time"

// MetricsSnapshot holds a point-in-time view of the simulation engine's
// numerical health.
type MetricsSnapshot struct {
	RunsTotal             int       `json:"runs_total"`
	NumericErrors         int       `json:"numeric_errors"`
	NumericErrorRate      float64   `json:"numeric_error_rate"`
	CorrelationRepairs    int       `json:"correlation_repairs"`
	CorrelationRepairRate float64   `json:"correlation_repair_rate"`
	MinEigenvalueObserved float64   `json:"min_eigenvalue_observed"`
	LookbackHours         int       `json:"lookback_hours"`
	CollectedAt           time.Time `json:"collected_at"`
}

// Collector gathers metrics from the in-process run log.
type Collector struct {
	log *RunLog
}

// NewCollector creates a metrics collector reading from log.
func NewCollector(log *RunLog) *Collector {
	return &Collector{log: log}
}

// Collect summarizes every run recorded within the lookback window.
func (c *Collector) Collect(lookbackHours int) *MetricsSnapshot {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := snap.CollectedAt.Add(-time.Duration(lookbackHours) * time.Hour)
	records := c.log.Recent(cutoff)

	snap.RunsTotal = len(records)
	minEig := 0.0
	for i, r := range records {
		if r.NumericError {
			snap.NumericErrors++
		}
		if r.Repaired {
			snap.CorrelationRepairs++
		}
		if i == 0 || r.MinEigenvalue < minEig {
			minEig = r.MinEigenvalue
		}
	}
	snap.MinEigenvalueObserved = minEig

	if snap.RunsTotal > 0 {
		snap.NumericErrorRate = float64(snap.NumericErrors) / float64(snap.RunsTotal)
		snap.CorrelationRepairRate = float64(snap.CorrelationRepairs) / float64(snap.RunsTotal)
	}

	return snap
}
