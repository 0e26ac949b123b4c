package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/stocklens/stocklens/internal/ledger"
	_ "github.com/stocklens/stocklens/testing"
)

type mockLedger struct {
	movements     []ledger.MovementRecord
	movementsErr  error
	movementCalls int
	lastCategory  string
	orders        []ledger.OrderRecord
	orderCalls    int
	categories    map[string]string
	categoryCalls int
}

func (m *mockLedger) Movements(ctx context.Context, through time.Time, category string) ([]ledger.MovementRecord, error) {
	m.movementCalls++
	m.lastCategory = category
	return m.movements, m.movementsErr
}

func (m *mockLedger) PendingOrders(ctx context.Context, now time.Time) ([]ledger.OrderRecord, error) {
	m.orderCalls++
	return m.orders, nil
}

func (m *mockLedger) Categories(ctx context.Context) (map[string]string, error) {
	m.categoryCalls++
	return m.categories, nil
}

func newTestService(t *testing.T, repo LedgerPort) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	engine := NewEngine(Config{ProjectTag: projectTag, Workers: 4})
	svc := NewService(repo, engine, cache)
	svc.WithNow(func() time.Time { return day(2025, 7, 1) })
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func testFilter() Filter {
	return Filter{Window: window(day(2025, 1, 1), day(2025, 6, 30), 6)}
}

func TestAnalyzeCaches(t *testing.T) {
	repo := &mockLedger{
		movements: []ledger.MovementRecord{
			{ItemID: "A", Date: day(2025, 1, 5), Direction: ledger.DirectionIn, Kind: ledger.KindPurchase, Qty: 100},
			outRow(ledger.MovementRecord{ItemID: "A", Date: day(2025, 6, 25), Qty: 10}),
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	results, err := svc.Analyze(ctx, testFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ItemID != "A" {
		t.Fatalf("unexpected results %#v", results)
	}
	if results[0].RemainingQty != 90 {
		t.Fatalf("expected remaining 90 got %.2f", results[0].RemainingQty)
	}
	if repo.movementCalls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.movementCalls)
	}

	// Second call should hit cache.
	if _, err := svc.Analyze(ctx, testFilter()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.movementCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.movementCalls)
	}

	// Bumping after a ledger load should trigger recompute.
	if err := svc.Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	repo.movements = append(repo.movements, outRow(ledger.MovementRecord{ItemID: "A", Date: day(2025, 6, 28), Qty: 5}))
	results, err = svc.Analyze(ctx, testFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].RemainingQty != 85 {
		t.Fatalf("expected refreshed remaining 85 got %.2f", results[0].RemainingQty)
	}
	if repo.movementCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.movementCalls)
	}
}

func TestAnalyzeCategoryScopesCacheKey(t *testing.T) {
	repo := &mockLedger{}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	filter := testFilter()
	if _, err := svc.Analyze(ctx, filter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	filter.Category = "kablo"
	if _, err := svc.Analyze(ctx, filter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.movementCalls != 2 {
		t.Fatalf("expected distinct cache entries per category, calls %d", repo.movementCalls)
	}
	if repo.lastCategory != "kablo" {
		t.Fatalf("expected category pushed to repo, got %q", repo.lastCategory)
	}
}

func TestAnalyzeRejectsInvalidWindow(t *testing.T) {
	svc, cleanup := newTestService(t, &mockLedger{})
	defer cleanup()

	filter := testFilter()
	filter.Window.Months = 0
	if _, err := svc.Analyze(context.Background(), filter); !errors.Is(err, ledger.ErrInvalidWindow) {
		t.Fatalf("expected invalid window error, got %v", err)
	}
}

func TestAnalyzePropagatesRepoError(t *testing.T) {
	repo := &mockLedger{movementsErr: errors.New("pg down")}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	if _, err := svc.Analyze(context.Background(), testFilter()); err == nil {
		t.Fatalf("expected error from repository")
	}
}

func TestAnalyzeItem(t *testing.T) {
	repo := &mockLedger{
		movements: []ledger.MovementRecord{
			outRow(ledger.MovementRecord{ItemID: "A", Date: day(2025, 6, 25), Qty: 10}),
			outRow(ledger.MovementRecord{ItemID: "B", Date: day(2025, 6, 26), Qty: 4}),
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	result, err := svc.AnalyzeItem(ctx, testFilter(), "B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ItemID != "B" {
		t.Fatalf("expected item B got %q", result.ItemID)
	}

	if _, err := svc.AnalyzeItem(ctx, testFilter(), "missing"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestServiceWorksWithoutCache(t *testing.T) {
	repo := &mockLedger{}
	engine := NewEngine(Config{ProjectTag: projectTag})
	svc := NewService(repo, engine, nil)
	svc.WithNow(func() time.Time { return day(2025, 7, 1) })

	if _, err := svc.Analyze(context.Background(), testFilter()); err != nil {
		t.Fatalf("unexpected error without cache: %v", err)
	}
	if repo.movementCalls != 1 {
		t.Fatalf("expected direct repo call, got %d", repo.movementCalls)
	}
}

type recordingObserver struct {
	outcomes []string
	items    []int
}

func (o *recordingObserver) ObserveAnalysis(outcome string, items int) {
	o.outcomes = append(o.outcomes, outcome)
	o.items = append(o.items, items)
}

func TestAnalyzeReportsRunOutcomes(t *testing.T) {
	repo := &mockLedger{
		movements: []ledger.MovementRecord{
			{ItemID: "A", Date: day(2025, 1, 5), Direction: ledger.DirectionIn, Kind: ledger.KindPurchase, Qty: 100},
			outRow(ledger.MovementRecord{ItemID: "A", Date: day(2025, 6, 25), Qty: 10}),
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()
	observer := &recordingObserver{}
	svc.WithObserver(observer)

	ctx := context.Background()
	if _, err := svc.Analyze(ctx, testFilter()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Analyze(ctx, testFilter()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(observer.outcomes) != 2 || observer.outcomes[0] != "computed" || observer.outcomes[1] != "hit" {
		t.Fatalf("unexpected outcomes %v", observer.outcomes)
	}
	if observer.items[0] != 1 || observer.items[1] != 1 {
		t.Fatalf("unexpected item counts %v", observer.items)
	}
}
