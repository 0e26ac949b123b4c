package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/stocklens/stocklens/internal/ledger"
)

// LedgerPort abstracts ledger access for the service. The production
// implementation is ledger.Repository; tests supply in-memory fakes.
type LedgerPort interface {
	Movements(ctx context.Context, through time.Time, category string) ([]ledger.MovementRecord, error)
	PendingOrders(ctx context.Context, now time.Time) ([]ledger.OrderRecord, error)
	Categories(ctx context.Context) (map[string]string, error)
}

// Filter scopes one analysis request.
type Filter struct {
	Window   ledger.PeriodWindow
	Category string
}

// RunObserver receives the outcome of each analysis run. Satisfied by
// observability.Metrics.
type RunObserver interface {
	ObserveAnalysis(outcome string, items int)
}

// Service coordinates ledger retrieval, engine execution, and the cache
// layer. Ledger retrieval happens once, up front, per window and
// category; the engine itself performs no I/O.
type Service struct {
	repo     LedgerPort
	engine   *Engine
	cache    *Cache
	group    singleflight.Group
	now      func() time.Time
	observer RunObserver
}

// NewService wires a LedgerPort and Engine with a Cache helper.
func NewService(repo LedgerPort, engine *Engine, cache *Cache) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
		cache:  cache,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the service clock for deterministic tests.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// WithObserver attaches a metrics sink for run outcomes.
func (s *Service) WithObserver(observer RunObserver) {
	s.observer = observer
}

// Analyze returns one Result per item in the filtered ledger scope,
// serving from the versioned cache when warm. Concurrent misses for the
// same key share a single computation.
func (s *Service) Analyze(ctx context.Context, filter Filter) ([]Result, error) {
	if s.repo == nil || s.engine == nil {
		return nil, fmt.Errorf("analysis: service not configured")
	}
	if err := filter.Window.Validate(); err != nil {
		return nil, err
	}

	computed := false
	loader := func(ctx context.Context) (interface{}, error) {
		computed = true
		return s.compute(ctx, filter)
	}

	keyBase := keyAnalysis(filter.Category, newWindowKey(filter.Window.Start, filter.Window.End, filter.Window.Months))
	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		return nil, err
	}

	var results []Result
	err = s.cache.FetchJSON(ctx, key, &results, func(ctx context.Context) (interface{}, error) {
		return s.singleflightLoad(ctx, key, loader)
	})
	if err != nil {
		return nil, err
	}
	if s.observer != nil {
		outcome := "hit"
		if computed {
			outcome = "computed"
		}
		s.observer.ObserveAnalysis(outcome, len(results))
	}
	return results, nil
}

// AnalyzeItem resolves a single item out of the scoped result set.
func (s *Service) AnalyzeItem(ctx context.Context, filter Filter, itemID string) (Result, error) {
	results, err := s.Analyze(ctx, filter)
	if err != nil {
		return Result{}, err
	}
	for _, result := range results {
		if result.ItemID == itemID {
			return result, nil
		}
	}
	return Result{}, ErrItemNotFound
}

// Bump invalidates every cached result set.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) compute(ctx context.Context, filter Filter) ([]Result, error) {
	now := s.now()
	movements, err := s.repo.Movements(ctx, filter.Window.End, filter.Category)
	if err != nil {
		return nil, fmt.Errorf("analysis: load movements: %w", err)
	}
	orders, err := s.repo.PendingOrders(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("analysis: load pending orders: %w", err)
	}
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("analysis: load categories: %w", err)
	}
	return s.engine.Analyze(ctx, Input{
		Window:     filter.Window,
		Now:        now,
		Movements:  movements,
		Orders:     orders,
		Categories: categories,
	})
}

func (s *Service) singleflightLoad(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}
