package analysis

import (
	"math"
	"time"
)

// SuggestionInput collects everything the rules engine consumes for one
// item. All fields are derived before suggestion time; the calculator
// itself reads nothing else.
type SuggestionInput struct {
	Now         time.Time
	Totals      MovementTotals
	Turnover    Turnover
	Status      MovementStatus
	Seasonality Seasonality
	Rounder     Rounder
}

// Suggestion is the calculator's verdict: the rounded quantity to order,
// the raw pre-rounding value, the target-month multiplier used, and the
// reason surfaced in the dashboard.
type Suggestion struct {
	Qty          float64
	RawQty       float64
	TargetMonths float64
	Reason       OrderReason
}

// SuggestOrder evaluates the suppression rules in their exact precedence;
// the first matching rule decides and later rules are unreachable once
// matched. Only when nothing fires does the base calculation run.
func SuggestOrder(in SuggestionInput) Suggestion {
	target := TargetMonths(in.Totals.RemainingQty, in.Status, in.Turnover.TurnoverDays)
	s := Suggestion{TargetMonths: target}

	days, hasOutbound := in.Totals.DaysSinceLastOutbound(in.Now)
	rate := in.Turnover.MonthlyAverageSale
	remaining := in.Totals.RemainingQty

	// 1. Dead stock: no outbound for more than 180 days, or never.
	if !hasOutbound || days > 180 {
		s.Reason = ReasonDeadStock
		return s
	}

	// 2. Sufficient coverage.
	if in.Turnover.NetStock >= 2*rate {
		s.Reason = ReasonSufficient
		return s
	}

	// 3. Stagnant low demand with adequate stock.
	if days > 60 && rate < 2 && remaining >= 0.5 {
		s.Reason = ReasonLowDemand
		return s
	}

	// 4. No sales in the period.
	if rate == 0 {
		s.Reason = ReasonNoSales
		return s
	}

	// 5. Special/custom order heuristic: few movement days, inbound and
	// outbound nearly matching, and almost nothing left over.
	if in.Totals.MovementDays <= 5 &&
		math.Abs(in.Totals.GrossIn-in.Totals.GrossOut) < 0.1*in.Totals.GrossIn &&
		remaining < 5 {
		s.Reason = ReasonSpecialOrder
		return s
	}

	// 6. One-off movement.
	if in.Totals.InboundEvents+in.Totals.OutboundEvents <= 2 && remaining < 5 {
		s.Reason = ReasonOneOff
		return s
	}

	// 7. Low frequency, order on demand.
	if rate < 1 && in.Totals.MovementDays < 10 && remaining > 0 {
		s.Reason = ReasonLowFrequency
		return s
	}

	// 8. Base calculation.
	s.RawQty = rate*target - in.Turnover.NetStock

	rounder := in.Rounder
	if rounder == nil {
		rounder = UnitRounder{}
	}
	s.Qty = rounder.Round(s.RawQty)

	switch {
	case s.Qty <= 0 && s.RawQty > 0:
		s.Qty = 0
		s.Reason = ReasonBelowMinLot
	case s.Qty <= 0:
		s.Qty = 0
		s.Reason = ReasonSufficient
	default:
		s.Reason = approvalReason(in)
	}
	return s
}

// TargetMonths selects the coverage multiplier. Movement status wins over
// raw velocity: a stagnant or slow item whose turnover-days look fast
// only because stock is nearly empty keeps its slower multiplier, which
// avoids over-ordering.
func TargetMonths(remaining float64, status MovementStatus, turnoverDays *float64) float64 {
	if remaining <= 0 {
		switch status {
		case StatusActive:
			return 1.5
		case StatusSlow:
			return 1.0
		case StatusStagnant:
			return 0.5
		default:
			return 0.5
		}
	}

	if turnoverDays != nil && *turnoverDays <= 30 {
		switch status {
		case StatusStagnant:
			return 0.5
		case StatusSlow:
			return 1.0
		}
	}

	switch status {
	case StatusActive:
		if turnoverDays == nil {
			return 0.5
		}
		switch {
		case *turnoverDays <= 15:
			return 1.5
		case *turnoverDays <= 30:
			return 1.2
		case *turnoverDays <= 60:
			return 1.0
		default:
			return 0.5
		}
	case StatusSlow:
		return 1.0
	case StatusStagnant:
		return 0.5
	default:
		// Dead status cannot reach the base calculation in practice, but
		// the branch stays implemented rather than assumed impossible.
		return 0.5
	}
}

// approvalReason picks the explanation for a positive suggestion.
func approvalReason(in SuggestionInput) OrderReason {
	switch {
	case in.Turnover.MonthsOfCoverage < 0.5:
		return ReasonCritical
	case in.Turnover.MonthsOfCoverage < 1:
		return ReasonLowStock
	case in.Seasonality.Pattern == PatternSeasonal && peakApproaching(in.Now, in.Seasonality.PeakMonth):
		return ReasonSeasonalPeak
	default:
		return ReasonReplenishment
	}
}

// peakApproaching reports whether the peak month falls within the next
// two calendar months.
func peakApproaching(now time.Time, peak time.Month) bool {
	current := int(now.Month())
	target := int(peak)
	ahead := (target - current + 12) % 12
	return ahead == 1 || ahead == 2
}
