package analysis

// Turnover derives rate and coverage metrics. TurnoverDays keeps a
// three-way distinction: a value for stock depleting at the normal rate,
// nil for stock with no sales, and zero when there is neither stock nor
// sales. Collapsing nil into zero would render dead stock as instant
// turnover.
type Turnover struct {
	MonthlyAverageSale float64
	NetStock           float64
	MonthsOfCoverage   float64
	TurnoverDays       *float64
}

// ComputeTurnover guards every division and substitutes documented
// defaults instead of raising.
func ComputeTurnover(normalOutbound, months, remaining, pendingSupplier, pendingCustomer float64) Turnover {
	t := Turnover{
		NetStock: remaining + pendingSupplier - pendingCustomer,
	}

	if months > 0 {
		t.MonthlyAverageSale = normalOutbound / months
	}

	if t.MonthlyAverageSale > 0 {
		t.MonthsOfCoverage = t.NetStock / t.MonthlyAverageSale
	}

	switch {
	case t.MonthlyAverageSale > 0:
		days := remaining * 30 / t.MonthlyAverageSale
		t.TurnoverDays = &days
	case remaining > 0:
		// Stock with no sales: explicitly unknown, not zero.
		t.TurnoverDays = nil
	default:
		zero := 0.0
		t.TurnoverDays = &zero
	}
	return t
}
