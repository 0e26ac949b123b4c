package analysis

import (
	"time"

	"github.com/stocklens/stocklens/internal/ledger"
)

// Seasonality describes the monthly demand profile of one item.
type Seasonality struct {
	Pattern     SeasonalPattern
	CoV         float64
	PeakMonth   time.Month
	TroughMonth time.Month
	RiskScore   int
}

// MonthlySeries buckets normal outbound quantity per calendar month of
// the given year. Tagged and anomalous rows are excluded, sale returns
// subtract, and each bucket clamps at zero.
func MonthlySeries(rows []ledger.MovementRecord, year int, stats ItemStatistics, projectTag string) [12]float64 {
	var series [12]float64
	for _, row := range rows {
		if row.Date.Year() != year {
			continue
		}
		idx := int(row.Date.Month()) - 1
		if row.IsSaleReturn() {
			series[idx] -= row.Qty
			continue
		}
		if !row.IsOutboundSale() {
			continue
		}
		if tagged(row, projectTag) || row.Qty > stats.Threshold {
			continue
		}
		series[idx] += row.Qty
	}
	for i := range series {
		if series[i] < 0 {
			series[i] = 0
		}
	}
	return series
}

// AnalyzeSeasonality computes coefficient of variation, pattern type,
// peak and trough months, and the bounded risk score. Both pattern
// boundaries are inclusive: CoV of exactly 0.3 is Stable and exactly 0.5
// is Irregular. coverageMonths is the item's months-of-stock, used only
// for the risk tiers.
func AnalyzeSeasonality(series [12]float64, coverageMonths float64) Seasonality {
	values := series[:]
	m := mean(values)
	sd := stdDev(values, m)

	var cov float64
	if m > 0 {
		cov = sd / m
	}

	result := Seasonality{
		CoV:         cov,
		PeakMonth:   peakMonth(series),
		TroughMonth: troughMonth(series),
	}

	switch {
	case cov <= 0.3:
		result.Pattern = PatternStable
	case cov <= 0.5:
		result.Pattern = PatternIrregular
	default:
		result.Pattern = PatternSeasonal
	}

	result.RiskScore = riskScore(cov, coverageMonths)
	return result
}

// riskScore maps CoV and coverage tiers to the discrete severity scale.
func riskScore(cov, coverageMonths float64) int {
	switch {
	case cov > 0.7 && coverageMonths < 2:
		return 90
	case cov > 0.7:
		return 70
	case cov > 0.5:
		return 50
	case cov > 0.3:
		return 30
	default:
		return 10
	}
}

func peakMonth(series [12]float64) time.Month {
	best := 0
	for i := 1; i < len(series); i++ {
		if series[i] > series[best] {
			best = i
		}
	}
	return time.Month(best + 1)
}

// troughMonth returns the month with the lowest non-zero quantity,
// falling back to the plain minimum when every month is zero.
func troughMonth(series [12]float64) time.Month {
	best := -1
	for i := 0; i < len(series); i++ {
		if series[i] <= 0 {
			continue
		}
		if best == -1 || series[i] < series[best] {
			best = i
		}
	}
	if best == -1 {
		return time.January
	}
	return time.Month(best + 1)
}
