package analysis

import (
	"time"

	"github.com/stocklens/stocklens/internal/ledger"
)

// MovementTotals nets raw movement rows for one item. GrossIn and
// GrossOut are window-scoped and return-adjusted; RemainingQty is the
// running signed sum over the full history and is never affected by
// outlier filtering.
type MovementTotals struct {
	GrossIn      float64
	GrossOut     float64
	RemainingQty float64

	// Window-scoped counters feeding the suggestion heuristics.
	InboundEvents  int
	OutboundEvents int
	MovementDays   int

	// LastOutboundAt is the all-time date of the last qualifying outbound
	// movement; zero when the item never moved out.
	LastOutboundAt time.Time
}

// HasOutbound reports whether the item has ever had a qualifying outbound
// movement.
func (t MovementTotals) HasOutbound() bool {
	return !t.LastOutboundAt.IsZero()
}

// DaysSinceLastOutbound returns full days elapsed since the last
// qualifying outbound movement. The second return value is false when the
// item never moved out.
func (t MovementTotals) DaysSinceLastOutbound(now time.Time) (int, bool) {
	if !t.HasOutbound() {
		return 0, false
	}
	return int(now.Sub(t.LastOutboundAt).Hours() / 24), true
}

// AggregateMovements nets the full movement history of one item.
// Price-adjustment rows carry no physical quantity and are skipped
// entirely. Sale returns (inbound, sale kind, return flag) subtract from
// the outbound total; purchase returns (outbound, return flag) subtract
// from the inbound total. The same sign convention drives the remaining
// quantity: in +, out -, sale return +, purchase return -.
func AggregateMovements(rows []ledger.MovementRecord, window ledger.PeriodWindow) MovementTotals {
	var totals MovementTotals
	days := make(map[string]struct{})

	for _, row := range rows {
		if row.Kind == ledger.KindPriceAdjustment {
			continue
		}

		inWindow := window.Contains(row.Date)

		switch {
		case row.IsSaleReturn():
			totals.RemainingQty += row.Qty
			if inWindow {
				totals.GrossOut -= row.Qty
			}
		case row.IsPurchaseReturn():
			totals.RemainingQty -= row.Qty
			if inWindow {
				totals.GrossIn -= row.Qty
			}
		case row.Direction == ledger.DirectionIn:
			totals.RemainingQty += row.Qty
			if inWindow {
				totals.GrossIn += row.Qty
				totals.InboundEvents++
			}
		case row.Direction == ledger.DirectionOut:
			totals.RemainingQty -= row.Qty
			if inWindow {
				totals.GrossOut += row.Qty
				totals.OutboundEvents++
			}
		}

		if row.IsOutboundSale() && row.Date.After(totals.LastOutboundAt) {
			totals.LastOutboundAt = row.Date
		}
		if inWindow {
			days[row.Date.Format("2006-01-02")] = struct{}{}
		}
	}

	totals.MovementDays = len(days)
	return totals
}
