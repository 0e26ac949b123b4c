package analysis

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stocklens/stocklens/internal/ledger"
)

// Config carries the engine knobs.
type Config struct {
	// ProjectTag is the tag code marking project movements excluded from
	// outlier statistics and reported separately.
	ProjectTag string
	// Workers bounds the per-item fan-out. Zero means a sensible default.
	Workers int
	// Rounding selects the category rounding strategy. Nil falls back to
	// unit rounding for every category.
	Rounding *CategoryRounding
}

// Engine computes per-item analysis results. It holds no mutable state;
// every item depends only on its own ledger rows plus the injected clock
// and window, so items run concurrently without locking.
type Engine struct {
	cfg Config
}

// NewEngine constructs an Engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	return &Engine{cfg: cfg}
}

// Input is one analysis request. Movements must span the full history up
// to the window end; Orders must already be restricted to pending ones.
type Input struct {
	Window     ledger.PeriodWindow
	Now        time.Time
	Movements  []ledger.MovementRecord
	Orders     []ledger.OrderRecord
	Categories map[string]string
}

// Analyze computes one Result per item present in the movement or order
// sets, sorted by item id. The window must be pre-validated by the
// caller; Analyze re-checks it as the engine boundary.
func (e *Engine) Analyze(ctx context.Context, in Input) ([]Result, error) {
	if err := in.Window.Validate(); err != nil {
		return nil, err
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	movementsByItem := make(map[string][]ledger.MovementRecord)
	for _, row := range in.Movements {
		movementsByItem[row.ItemID] = append(movementsByItem[row.ItemID], row)
	}
	ordersByItem := make(map[string][]ledger.OrderRecord)
	for _, row := range in.Orders {
		ordersByItem[row.ItemID] = append(ordersByItem[row.ItemID], row)
	}

	ids := make([]string, 0, len(movementsByItem))
	for id := range movementsByItem {
		ids = append(ids, id)
	}
	for id := range ordersByItem {
		if _, ok := movementsByItem[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	results := make([]Result, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.analyzeItem(id, movementsByItem[id], ordersByItem[id], in.Categories[id], in.Window, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// analyzeItem runs the full calculation chain for one item: aggregation,
// outlier suppression, activity classification, turnover, seasonality,
// and finally the order suggestion.
func (e *Engine) analyzeItem(itemID string, movements []ledger.MovementRecord, orders []ledger.OrderRecord, category string, window ledger.PeriodWindow, now time.Time) Result {
	totals := AggregateMovements(movements, window)
	stats := ComputeStatistics(movements, window, e.cfg.ProjectTag)
	breakdown := SplitOutbound(movements, window, stats, e.cfg.ProjectTag)

	var pendingSupplier, pendingCustomer float64
	for _, order := range orders {
		if !order.Pending(now) {
			continue
		}
		switch order.Direction {
		case ledger.OrderSupplier:
			pendingSupplier += order.Outstanding()
		case ledger.OrderCustomer:
			pendingCustomer += order.Outstanding()
		}
	}

	turnover := ComputeTurnover(breakdown.NormalQty, window.Months, totals.RemainingQty, pendingSupplier, pendingCustomer)
	status := SnapshotActivity(movements, now).Classify()

	series := MonthlySeries(movements, window.End.Year(), stats, e.cfg.ProjectTag)
	seasonality := AnalyzeSeasonality(series, turnover.MonthsOfCoverage)

	suggestion := SuggestOrder(SuggestionInput{
		Now:         now,
		Totals:      totals,
		Turnover:    turnover,
		Status:      status,
		Seasonality: seasonality,
		Rounder:     e.cfg.Rounding.ForCategory(category),
	})

	result := Result{
		ItemID:             itemID,
		Category:           category,
		GrossIn:            totals.GrossIn,
		GrossOut:           totals.GrossOut,
		RemainingQty:       totals.RemainingQty,
		NormalOutboundQty:  breakdown.NormalQty,
		AnomalousCount:     breakdown.AnomalousCount,
		AnomalousQty:       breakdown.AnomalousQty,
		TaggedCount:        breakdown.TaggedCount,
		TaggedQty:          breakdown.TaggedQty,
		PendingSupplierQty: pendingSupplier,
		PendingCustomerQty: pendingCustomer,
		MonthlyAverageSale: turnover.MonthlyAverageSale,
		MonthsOfCoverage:   turnover.MonthsOfCoverage,
		TurnoverDays:       turnover.TurnoverDays,
		MovementStatus:     status,
		SeasonalPattern:    seasonality.Pattern,
		SeasonalRisk:       seasonality.RiskScore,
		PeakMonth:          seasonality.PeakMonth,
		TroughMonth:        seasonality.TroughMonth,
		TargetMonths:       suggestion.TargetMonths,
		SuggestedOrderQty:  suggestion.Qty,
		OrderReason:        suggestion.Reason,
	}
	if stats.Suppressing() {
		threshold := stats.Threshold
		result.OutlierThreshold = &threshold
	}
	return result
}
