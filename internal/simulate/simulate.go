package simulate

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/costrisk-sim/internal/correlation"
	"github.com/sells-group/costrisk-sim/internal/distribution"
	"github.com/sells-group/costrisk-sim/internal/model"
	"github.com/sells-group/costrisk-sim/internal/sampler"
)

const defaultMaxConcurrency = 8

// SimulateCostEvolution runs the full checkpoint-by-checkpoint Monte
// Carlo simulation over ds's horizon. ds is assumed to already have
// passed validate.Validate; this entrypoint does not re-check it.
func SimulateCostEvolution(ctx context.Context, ds model.Dataset, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if ds.NItems() == 0 && ds.NRisks() == 0 {
		return nil, insufficientDataError("dataset has no CAPEX items and no risks")
	}

	seedUsed, err := resolveSeed(cfg)
	if err != nil {
		return nil, internalError(err)
	}

	checkpoints := generateCheckpoints(cfg, ds)
	result := &Result{
		SeedUsed:    seedUsed,
		NIterations: cfg.NIterations,
		NItems:      ds.NItems(),
		NRisks:      ds.NRisks(),
		Checkpoints: make([]CheckpointResult, 0, len(checkpoints)),
	}
	corrCache := correlation.NewCache()

	var prevSnapshot snapshot
	var prevResult CheckpointResult
	haveFirst := false

	for _, date := range checkpoints {
		if err := ctx.Err(); err != nil {
			return nil, cancelledError(err)
		}

		snap := buildSnapshot(ds, date)

		if haveFirst && !snap.changed(prevSnapshot) {
			carried := prevResult
			carried.Date = date
			carried.Resampled = false
			result.Checkpoints = append(result.Checkpoints, carried)
			prevSnapshot = snap
			continue
		}

		cp, details, err := runCheckpoint(ctx, date, snap, ds, cfg, seedUsed, corrCache)
		if err != nil {
			return nil, err
		}
		result.Checkpoints = append(result.Checkpoints, cp)
		if result.CorrelationSummary == nil && details != nil {
			result.CorrelationSummary = summarizeCorrelation(details, cp.CorrelationRepaired)
		}

		prevSnapshot = snap
		prevResult = cp
		haveFirst = true
	}

	return result, nil
}

func summarizeCorrelation(details []correlation.PairDetail, repaired bool) *CorrelationSummary {
	summary := &CorrelationSummary{RepairNeeded: repaired}
	if len(details) == 0 {
		return summary
	}
	var sum float64
	for _, d := range details {
		sum += d.Score
		if d.Score > 0 {
			summary.NonZeroPairs++
		}
	}
	summary.MeanOffDiagonal = sum / float64(len(details))
	return summary
}

func runCheckpoint(ctx context.Context, date time.Time, snap snapshot, ds model.Dataset, cfg Config, seedUsed int64, corrCache *correlation.Cache) (CheckpointResult, []correlation.PairDetail, error) {
	itemDists := make([]distribution.Lognormal, len(snap.items))
	for i, item := range snap.items {
		itemDists[i] = distribution.Fit(item.P10, item.P90)
	}

	riskInputs := make([]sampler.RiskInput, len(snap.risks))
	for i, risk := range snap.risks {
		riskInputs[i] = sampler.RiskInput{
			Probability: risk.Probability,
			Impact:      distribution.Fit(risk.P10Impact, risk.P90Impact),
		}
	}

	factor, details, repaired, minEig, err := buildCorrelationFactor(snap, ds.Lookups, cfg, corrCache)
	if err != nil {
		return CheckpointResult{}, nil, err
	}

	totals, err := runIterations(ctx, cfg, seedUsed, factor, itemDists, riskInputs)
	if err != nil {
		return CheckpointResult{}, nil, err
	}

	p20, p50, p80 := Aggregate(totals)

	return CheckpointResult{
		Date:                     date,
		P20:                      p20,
		P50:                      p50,
		P80:                      p80,
		Deterministic:            deterministicEstimate(snap),
		PERTEstimate:             pertEstimate(snap),
		MitigationImpacts:        mitigationImpacts(ds, date),
		RiskImpacts:              riskImpacts(snap),
		MinCorrelationEigenvalue: minEig,
		CorrelationRepaired:      repaired,
		Resampled:                true,
	}, details, nil
}

func buildCorrelationFactor(snap snapshot, lookups model.Lookups, cfg Config, corrCache *correlation.Cache) (*correlation.Matrix, []correlation.PairDetail, bool, float64, error) {
	if !cfg.EnableCorrelation || cfg.CorrelationMethod != CorrelationCategory {
		return nil, nil, false, 0, nil
	}

	elements := make([]correlation.Element, 0, len(snap.items)+len(snap.risks))
	for _, item := range snap.items {
		elements = append(elements, itemElement(item, lookups))
	}
	for _, risk := range snap.risks {
		elements = append(elements, riskElement(risk, lookups))
	}
	if len(elements) < 2 {
		return nil, nil, false, 0, nil
	}

	factor, details, repaired, minEig, err := corrCache.FactorCached(elements, correlation.DefaultConfig())
	if err != nil {
		return nil, nil, false, minEig, numericError("correlation", err.Error())
	}
	return factor, details, repaired, minEig, nil
}

func runIterations(ctx context.Context, cfg Config, seedUsed int64, factor *correlation.Matrix, items []distribution.Lognormal, risks []sampler.RiskInput) ([]float64, error) {
	n := cfg.NIterations
	totals := make([]float64, n)

	limit := cfg.MaxConcurrency
	if limit <= 0 {
		limit = defaultMaxConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		idx := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := sampler.NewSplitRNG(uint64(seedUsed), idx)
			draws := sampler.Sample(rng, factor, items, risks)
			totals[idx] = draws.Total()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, cancelledError(ctx.Err())
		}
		return nil, internalError(err)
	}
	return totals, nil
}
