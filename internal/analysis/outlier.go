package analysis

import (
	"math"

	"github.com/stocklens/stocklens/internal/ledger"
)

// ItemStatistics carries the per-item outbound distribution and the
// 3-sigma suppression threshold. With fewer than two observations the
// threshold is +Inf: no suppression rather than an error.
type ItemStatistics struct {
	Mean      float64
	StdDev    float64
	Threshold float64
	Samples   int
}

// Suppressing reports whether enough observations existed to compute a
// finite threshold.
func (s ItemStatistics) Suppressing() bool {
	return !math.IsInf(s.Threshold, 1)
}

// OutboundBreakdown separates window-scoped outbound volume into normal,
// statistically anomalous, and project-tagged portions.
type OutboundBreakdown struct {
	NormalQty      float64
	AnomalousCount int
	AnomalousQty   float64
	TaggedCount    int
	TaggedQty      float64
}

// ComputeStatistics derives mean, sample standard deviation, and the
// mean + 3·stdev threshold from qualifying outbound quantities inside the
// window. Project-tagged rows are excluded from the population.
func ComputeStatistics(rows []ledger.MovementRecord, window ledger.PeriodWindow, projectTag string) ItemStatistics {
	var qtys []float64
	for _, row := range rows {
		if !row.IsOutboundSale() || !window.Contains(row.Date) {
			continue
		}
		if tagged(row, projectTag) {
			continue
		}
		qtys = append(qtys, row.Qty)
	}

	stats := ItemStatistics{Samples: len(qtys), Threshold: math.Inf(1)}
	if len(qtys) < 2 {
		return stats
	}

	stats.Mean = mean(qtys)
	stats.StdDev = stdDev(qtys, stats.Mean)
	stats.Threshold = stats.Mean + 3*stats.StdDev
	return stats
}

// SplitOutbound classifies window-scoped outbound rows against the
// precomputed statistics. Tagged rows are checked first and are never
// marked anomalous. Sale returns lower the normal subtotal; the subtotal
// clamps at zero and never goes negative.
func SplitOutbound(rows []ledger.MovementRecord, window ledger.PeriodWindow, stats ItemStatistics, projectTag string) OutboundBreakdown {
	var b OutboundBreakdown
	for _, row := range rows {
		if !window.Contains(row.Date) {
			continue
		}
		if row.IsSaleReturn() {
			b.NormalQty -= row.Qty
			if b.NormalQty < 0 {
				b.NormalQty = 0
			}
			continue
		}
		if !row.IsOutboundSale() {
			continue
		}
		switch {
		case tagged(row, projectTag):
			b.TaggedCount++
			b.TaggedQty += row.Qty
		case row.Qty > stats.Threshold:
			b.AnomalousCount++
			b.AnomalousQty += row.Qty
		default:
			b.NormalQty += row.Qty
		}
	}
	return b
}

func tagged(row ledger.MovementRecord, projectTag string) bool {
	return projectTag != "" && row.TagCode == projectTag
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
