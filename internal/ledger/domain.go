package ledger

import (
	"errors"
	"time"
)

// Direction enumerates the physical direction of a stock movement.
type Direction string

const (
	// DirectionIn represents an inbound movement (receipt).
	DirectionIn Direction = "IN"
	// DirectionOut represents an outbound movement (issue).
	DirectionOut Direction = "OUT"
)

// Kind enumerates the business kind of a movement row.
type Kind string

const (
	// KindSale marks a sale or sale-related movement.
	KindSale Kind = "SALE"
	// KindPurchase marks a purchase receipt.
	KindPurchase Kind = "PURCHASE"
	// KindPriceAdjustment marks a price-only pseudo-movement carrying no
	// physical quantity. The analysis engine skips these entirely.
	KindPriceAdjustment Kind = "PRICE_ADJUSTMENT"
	// KindTransfer marks a warehouse transfer leg.
	KindTransfer Kind = "TRANSFER"
)

// MovementRecord is one immutable stock-movement ledger row as supplied by
// the ERP. Qty is always positive; Direction and Return carry the sign
// semantics.
type MovementRecord struct {
	ItemID         string
	Date           time.Time
	Direction      Direction
	Kind           Kind
	Return         bool
	Qty            float64
	TagCode        string
	CounterpartyID int64
	Amount         float64
}

// IsSaleReturn reports whether the row is a customer return: inbound
// direction on a sale row with the return flag set. It offsets outbound
// totals, not inbound ones.
func (m MovementRecord) IsSaleReturn() bool {
	return m.Direction == DirectionIn && m.Kind == KindSale && m.Return
}

// IsPurchaseReturn reports whether the row is a return to supplier:
// outbound direction with the return flag set. It offsets inbound totals.
func (m MovementRecord) IsPurchaseReturn() bool {
	return m.Direction == DirectionOut && m.Kind == KindSale && m.Return
}

// IsOutboundSale reports whether the row is a qualifying outbound movement
// for rate and activity calculations.
func (m MovementRecord) IsOutboundSale() bool {
	return m.Direction == DirectionOut && m.Kind != KindPriceAdjustment && !m.Return
}

// OrderDirection distinguishes supplier (purchase) from customer (sales)
// orders.
type OrderDirection string

const (
	// OrderSupplier represents an order placed on a supplier.
	OrderSupplier OrderDirection = "SUPPLIER"
	// OrderCustomer represents an order received from a customer.
	OrderCustomer OrderDirection = "CUSTOMER"
)

// OrderRecord is one order ledger row.
type OrderRecord struct {
	ItemID       string
	Direction    OrderDirection
	OrderedQty   float64
	DeliveredQty float64
	OrderDate    time.Time
	Closed       bool
	Cancelled    bool
}

// Outstanding returns the undelivered portion of the order, never negative.
func (o OrderRecord) Outstanding() float64 {
	if rest := o.OrderedQty - o.DeliveredQty; rest > 0 {
		return rest
	}
	return 0
}

// Pending reports whether the order still counts toward net stock: open
// quantity remaining, not closed or cancelled, and placed within the
// trailing twelve months.
func (o OrderRecord) Pending(now time.Time) bool {
	if o.Closed || o.Cancelled {
		return false
	}
	if o.Outstanding() <= 0 {
		return false
	}
	return !o.OrderDate.Before(now.AddDate(-1, 0, 0))
}

// PeriodWindow scopes rate calculations. Months is the caller-supplied
// divisor for per-month averages; it is intentionally not derived from
// Start and End.
type PeriodWindow struct {
	Start  time.Time
	End    time.Time
	Months float64
}

// ErrInvalidWindow indicates a malformed analysis window.
var ErrInvalidWindow = errors.New("ledger: invalid period window")

// Validate rejects malformed windows before they reach the engine.
func (w PeriodWindow) Validate() error {
	if w.Months <= 0 {
		return ErrInvalidWindow
	}
	if w.Start.After(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether ts falls inside the window, boundaries included.
func (w PeriodWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && !ts.After(w.End)
}
