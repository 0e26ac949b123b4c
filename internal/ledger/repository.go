package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads movement and order ledgers from PostgreSQL. Rows are
// immutable; the repository only ever selects.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Movements returns every movement row dated up to and including through,
// optionally restricted to items of one category. Remaining-quantity
// reconciliation needs the full history, so there is no lower bound.
func (r *Repository) Movements(ctx context.Context, through time.Time, category string) ([]MovementRecord, error) {
	if r == nil {
		return nil, errors.New("ledger repository not initialised")
	}
	query := `SELECT m.item_id, m.moved_at, m.direction, m.kind, m.is_return, m.qty, COALESCE(m.tag_code, ''), COALESCE(m.counterparty_id, 0), m.amount
FROM stock_movements m
JOIN items i ON i.id = m.item_id
WHERE m.moved_at <= $1 AND ($2 = '' OR i.category = $2)
ORDER BY m.item_id, m.moved_at`
	rows, err := r.pool.Query(ctx, query, through, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []MovementRecord
	for rows.Next() {
		var rec MovementRecord
		if err := rows.Scan(&rec.ItemID, &rec.Date, &rec.Direction, &rec.Kind, &rec.Return, &rec.Qty, &rec.TagCode, &rec.CounterpartyID, &rec.Amount); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// PendingOrders returns open, non-cancelled orders from the trailing
// twelve months. The undelivered filter is applied in SQL; Pending remains
// the single source of truth for callers holding rows in memory.
func (r *Repository) PendingOrders(ctx context.Context, now time.Time) ([]OrderRecord, error) {
	if r == nil {
		return nil, errors.New("ledger repository not initialised")
	}
	query := `SELECT item_id, direction, ordered_qty, delivered_qty, ordered_at, closed, cancelled
FROM stock_orders
WHERE ordered_qty > delivered_qty
  AND NOT closed AND NOT cancelled
  AND ordered_at >= $1
ORDER BY item_id, ordered_at`
	rows, err := r.pool.Query(ctx, query, now.AddDate(-1, 0, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []OrderRecord
	for rows.Next() {
		var rec OrderRecord
		if err := rows.Scan(&rec.ItemID, &rec.Direction, &rec.OrderedQty, &rec.DeliveredQty, &rec.OrderDate, &rec.Closed, &rec.Cancelled); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Categories returns the item-id to category lookup used by the
// order-suggestion rounding rule.
func (r *Repository) Categories(ctx context.Context) (map[string]string, error) {
	if r == nil {
		return nil, errors.New("ledger repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, COALESCE(category, '') FROM items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	categories := make(map[string]string)
	for rows.Next() {
		var id, category string
		if err := rows.Scan(&id, &category); err != nil {
			return nil, err
		}
		categories[id] = category
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// DistinctCategories lists the categories present in the item master,
// used by the warmup job to enumerate cache scopes.
func (r *Repository) DistinctCategories(ctx context.Context) ([]string, error) {
	if r == nil {
		return nil, errors.New("ledger repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM items WHERE category IS NOT NULL AND category <> '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}
