package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/ledger"
)

func engineFixture() Input {
	now := day(2025, 7, 1)
	w := window(day(2025, 1, 1), day(2025, 6, 30), 6)

	movements := []ledger.MovementRecord{
		{ItemID: "CBL-001", Date: day(2025, 1, 5), Direction: ledger.DirectionIn, Kind: ledger.KindPurchase, Qty: 2000},
	}
	// Two steady sales of 100 per month, January through June, plus a
	// late-June one keeping the item in the active tier.
	for m := time.January; m <= time.June; m++ {
		movements = append(movements,
			outRow(ledger.MovementRecord{ItemID: "CBL-001", Date: day(2025, m, 5), Qty: 100}),
			outRow(ledger.MovementRecord{ItemID: "CBL-001", Date: day(2025, m, 20), Qty: 100}),
		)
	}
	movements = append(movements,
		outRow(ledger.MovementRecord{ItemID: "CBL-001", Date: day(2025, 6, 28), Qty: 100}),
		// Project issue: excluded from statistics, reported separately.
		outRow(ledger.MovementRecord{ItemID: "CBL-001", Date: day(2025, 3, 10), Qty: 500, TagCode: projectTag}),

		// Dead item: full history predates the window.
		ledger.MovementRecord{ItemID: "DEAD-9", Date: day(2024, 10, 1), Direction: ledger.DirectionIn, Kind: ledger.KindPurchase, Qty: 50},
		outRow(ledger.MovementRecord{ItemID: "DEAD-9", Date: day(2024, 11, 15), Qty: 10}),
	)

	orders := []ledger.OrderRecord{
		{ItemID: "CBL-001", Direction: ledger.OrderSupplier, OrderedQty: 200, DeliveredQty: 50, OrderDate: day(2025, 6, 1)},
		// Order-only item: must still produce a result.
		{ItemID: "ORD-7", Direction: ledger.OrderCustomer, OrderedQty: 20, OrderDate: day(2025, 5, 1)},
		// Cancelled orders never count.
		{ItemID: "CBL-001", Direction: ledger.OrderSupplier, OrderedQty: 999, OrderDate: day(2025, 6, 10), Cancelled: true},
	}

	return Input{
		Window:     w,
		Now:        now,
		Movements:  movements,
		Orders:     orders,
		Categories: map[string]string{"CBL-001": "KABLO"},
	}
}

func TestEngineAnalyze(t *testing.T) {
	engine := NewEngine(Config{
		ProjectTag: projectTag,
		Workers:    4,
		Rounding:   NewCategoryRounding([]string{"kablo"}),
	})

	results, err := engine.Analyze(context.Background(), engineFixture())
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "CBL-001", results[0].ItemID)
	require.Equal(t, "DEAD-9", results[1].ItemID)
	require.Equal(t, "ORD-7", results[2].ItemID)

	cable := results[0]
	require.Equal(t, "KABLO", cable.Category)
	require.InDelta(t, 2000, cable.GrossIn, 1e-9)
	require.InDelta(t, 1800, cable.GrossOut, 1e-9)
	require.InDelta(t, 200, cable.RemainingQty, 1e-9)
	require.InDelta(t, 1300, cable.NormalOutboundQty, 1e-9)
	require.Equal(t, 1, cable.TaggedCount)
	require.InDelta(t, 500, cable.TaggedQty, 1e-9)
	require.Zero(t, cable.AnomalousCount)
	require.InDelta(t, 150, cable.PendingSupplierQty, 1e-9)
	require.InDelta(t, 1300.0/6, cable.MonthlyAverageSale, 1e-9)
	require.Equal(t, StatusActive, cable.MovementStatus)
	require.NotNil(t, cable.OutlierThreshold)
	require.InDelta(t, 100, *cable.OutlierThreshold, 1e-9)
	require.Equal(t, time.June, cable.PeakMonth)

	// The outbound partition is exhaustive: every unit leaving stock is
	// normal, anomalous, or tagged.
	require.InDelta(t, cable.GrossOut, cable.NormalOutboundQty+cable.AnomalousQty+cable.TaggedQty, 1e-9)

	dead := results[1]
	require.InDelta(t, 40, dead.RemainingQty, 1e-9)
	require.Nil(t, dead.TurnoverDays)
	require.Equal(t, StatusDead, dead.MovementStatus)
	require.Equal(t, ReasonDeadStock, dead.OrderReason)
	require.Zero(t, dead.SuggestedOrderQty)

	orderOnly := results[2]
	require.Zero(t, orderOnly.GrossIn)
	require.InDelta(t, 20, orderOnly.PendingCustomerQty, 1e-9)
	require.Equal(t, ReasonDeadStock, orderOnly.OrderReason)
	require.NotNil(t, orderOnly.TurnoverDays)
	require.Zero(t, *orderOnly.TurnoverDays)
}

func TestEngineAnalyzeIsDeterministic(t *testing.T) {
	engine := NewEngine(Config{ProjectTag: projectTag, Workers: 8})
	in := engineFixture()

	first, err := engine.Analyze(context.Background(), in)
	require.NoError(t, err)
	second, err := engine.Analyze(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEngineAnalyzeRejectsBadWindow(t *testing.T) {
	engine := NewEngine(Config{ProjectTag: projectTag})
	in := engineFixture()
	in.Window.Months = 0

	_, err := engine.Analyze(context.Background(), in)
	require.ErrorIs(t, err, ledger.ErrInvalidWindow)
}

func TestEngineAnalyzeMissingOrdersMeansZeroPending(t *testing.T) {
	engine := NewEngine(Config{ProjectTag: projectTag})
	in := engineFixture()
	in.Orders = nil

	results, err := engine.Analyze(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Zero(t, results[0].PendingSupplierQty)
	require.Zero(t, results[0].PendingCustomerQty)
}
