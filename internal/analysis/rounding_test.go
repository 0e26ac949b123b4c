package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnitRounder(t *testing.T) {
	r := UnitRounder{}
	require.Zero(t, r.Round(-3))
	require.Zero(t, r.Round(0))
	require.Equal(t, 1.0, r.Round(0.2))
	require.Equal(t, 7.4, r.Round(7.4))
}

func TestReelRounder(t *testing.T) {
	r := NewReelRounder()
	cases := []struct {
		raw  float64
		want float64
	}{
		{0, 0},
		{249.9, 0},
		{250, 500},
		{320, 500},
		{500, 500},
		{500.1, 750},
		{610, 750},
		{750, 750},
		{751, 1000},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, r.Round(tc.raw), "raw=%v", tc.raw)
	}
}

func TestCategoryRoundingTurkishFold(t *testing.T) {
	cr := NewCategoryRounding([]string{"ithal kablo", "MAKARA"})

	// Turkish dotted capital I folds to plain i, so the upper-cased ERP
	// label still selects the reel strategy.
	require.IsType(t, ReelRounder{}, cr.ForCategory("İTHAL KABLO"))
	require.IsType(t, ReelRounder{}, cr.ForCategory("makara"))
	require.IsType(t, ReelRounder{}, cr.ForCategory("  Makara "))
	require.IsType(t, UnitRounder{}, cr.ForCategory("hirdavat"))
	require.IsType(t, UnitRounder{}, cr.ForCategory(""))
}

func TestCategoryRoundingNilSelector(t *testing.T) {
	var cr *CategoryRounding
	require.IsType(t, UnitRounder{}, cr.ForCategory("makara"))
}
