package simulate

import (
	"fmt"
	"sort"
)

// Percentile returns the linearly-interpolated p-th percentile (0-100) of
// totals. totals is sorted in place.
func Percentile(totals []float64, p float64) float64 {
	if len(totals) == 0 {
		return 0
	}
	sort.Float64s(totals)
	if len(totals) == 1 {
		return totals[0]
	}

	rank := (p / 100) * float64(len(totals)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(totals) {
		return totals[len(totals)-1]
	}
	frac := rank - float64(lo)
	return totals[lo]*(1-frac) + totals[hi]*frac
}

// Aggregate computes the P20/P50/P80 summary of a checkpoint's simulated
// totals. totals is sorted in place as a side effect.
func Aggregate(totals []float64) (p20, p50, p80 float64) {
	return Percentile(totals, 20), Percentile(totals, 50), Percentile(totals, 80)
}

// FormatCost renders a cost figure with a $B/$M/$K suffix, the same
// scale-appropriate display convention this engine has always used for
// headline figures.
func FormatCost(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.1fK", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}
