package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeTurnoverBasics(t *testing.T) {
	// 120 units over 12 months, 50 on hand, 20 inbound, 10 reserved.
	tv := ComputeTurnover(120, 12, 50, 20, 10)
	require.InDelta(t, 10, tv.MonthlyAverageSale, 1e-9)
	require.InDelta(t, 60, tv.NetStock, 1e-9)
	require.InDelta(t, 6, tv.MonthsOfCoverage, 1e-9)
	require.NotNil(t, tv.TurnoverDays)
	require.InDelta(t, 150, *tv.TurnoverDays, 1e-9)
}

func TestComputeTurnoverDaysThreeWay(t *testing.T) {
	t.Run("selling stock has a value", func(t *testing.T) {
		tv := ComputeTurnover(60, 6, 30, 0, 0)
		require.NotNil(t, tv.TurnoverDays)
		require.InDelta(t, 90, *tv.TurnoverDays, 1e-9)
	})

	t.Run("stock without sales is unknown", func(t *testing.T) {
		tv := ComputeTurnover(0, 6, 30, 0, 0)
		require.Nil(t, tv.TurnoverDays)
		require.Zero(t, tv.MonthsOfCoverage)
	})

	t.Run("no stock and no sales is zero", func(t *testing.T) {
		tv := ComputeTurnover(0, 6, 0, 0, 0)
		require.NotNil(t, tv.TurnoverDays)
		require.Zero(t, *tv.TurnoverDays)
	})
}

func TestComputeTurnoverNegativeNetStock(t *testing.T) {
	// Oversold: reservations exceed holdings plus inbound.
	tv := ComputeTurnover(30, 3, 5, 0, 20)
	require.InDelta(t, -15, tv.NetStock, 1e-9)
	require.InDelta(t, -1.5, tv.MonthsOfCoverage, 1e-9)
}
