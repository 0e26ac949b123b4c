package analysis

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rounder turns a raw suggestion into an orderable quantity. A zero
// return with a positive raw input means the suggestion fell below the
// category's minimum lot.
type Rounder interface {
	Round(raw float64) float64
}

// UnitRounder is the default strategy: non-positive suggestions are
// suppressed and positive sub-unit suggestions bump to one full unit.
// Larger values pass through unrounded; callers may apply their own unit
// rounding downstream.
type UnitRounder struct{}

// Round implements Rounder.
func (UnitRounder) Round(raw float64) float64 {
	switch {
	case raw <= 0:
		return 0
	case raw < 1:
		return 1
	default:
		return raw
	}
}

// ReelRounder applies the cable/reel lot sizes: suggestions under the
// minimum lot are suppressed, anything up to the base lot rounds up to
// exactly the base lot, and larger suggestions round up to the next step
// multiple.
type ReelRounder struct {
	MinLot  float64
	BaseLot float64
	Step    float64
}

// NewReelRounder returns the standard 250/500/250 reel strategy.
func NewReelRounder() ReelRounder {
	return ReelRounder{MinLot: 250, BaseLot: 500, Step: 250}
}

// Round implements Rounder.
func (r ReelRounder) Round(raw float64) float64 {
	switch {
	case raw <= 0:
		return 0
	case raw < r.MinLot:
		return 0
	case raw <= r.BaseLot:
		return r.BaseLot
	default:
		return math.Ceil(raw/r.Step) * r.Step
	}
}

// CategoryRounding selects a Rounder by item category. Category labels
// come straight from the ERP item master and mix cases, including Turkish
// dotted and dotless i, so matching folds with the Turkish caser.
type CategoryRounding struct {
	reel   map[string]struct{}
	reelFn Rounder
	unitFn Rounder
}

// foldCategory lowers a category label with the Turkish caser. Casers are
// stateful, so a fresh one is built per call rather than shared across
// the engine's goroutines.
func foldCategory(name string) string {
	return cases.Lower(language.Turkish).String(strings.TrimSpace(name))
}

// NewCategoryRounding builds the selector for the given reel category
// labels.
func NewCategoryRounding(reelCategories []string) *CategoryRounding {
	c := &CategoryRounding{
		reel:   make(map[string]struct{}, len(reelCategories)),
		reelFn: NewReelRounder(),
		unitFn: UnitRounder{},
	}
	for _, name := range reelCategories {
		if folded := foldCategory(name); folded != "" {
			c.reel[folded] = struct{}{}
		}
	}
	return c
}

// ForCategory returns the strategy for the given category label.
func (c *CategoryRounding) ForCategory(category string) Rounder {
	if c == nil {
		return UnitRounder{}
	}
	if _, ok := c.reel[foldCategory(category)]; ok {
		return c.reelFn
	}
	return c.unitFn
}
