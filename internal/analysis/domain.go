package analysis

import (
	"errors"
	"time"
)

// MovementStatus tiers activity recency for an item.
type MovementStatus string

const (
	// StatusActive marks items with at least three outbound movements in
	// the trailing 30 days.
	StatusActive MovementStatus = "ACTIVE"
	// StatusSlow marks items with at least two outbound movements in the
	// trailing 60 days.
	StatusSlow MovementStatus = "SLOW"
	// StatusStagnant marks items with at least one outbound movement in
	// the trailing 180 days.
	StatusStagnant MovementStatus = "STAGNANT"
	// StatusDead marks items with no outbound movement for more than 180
	// days, or none at all. Terminal: no later tier is considered.
	StatusDead MovementStatus = "DEAD"
)

// SeasonalPattern classifies the shape of the monthly outbound series.
type SeasonalPattern string

const (
	// PatternStable indicates low variation across months (CoV <= 0.3).
	PatternStable SeasonalPattern = "STABLE"
	// PatternIrregular indicates moderate variation (0.3 < CoV <= 0.5).
	PatternIrregular SeasonalPattern = "IRREGULAR"
	// PatternSeasonal indicates strong variation (CoV > 0.5).
	PatternSeasonal SeasonalPattern = "SEASONAL"
)

// OrderReason explains why the engine suggested, or refused to suggest,
// a reorder quantity. The strings surface directly in dashboard tooltips.
type OrderReason string

const (
	ReasonDeadStock      OrderReason = "dead stock"
	ReasonSufficient     OrderReason = "sufficient stock"
	ReasonLowDemand      OrderReason = "low demand, stock adequate"
	ReasonNoSales        OrderReason = "no sales in period"
	ReasonSpecialOrder   OrderReason = "special order item"
	ReasonOneOff         OrderReason = "one-off movement"
	ReasonLowFrequency   OrderReason = "low frequency, order on demand"
	ReasonBelowMinLot    OrderReason = "below minimum lot"
	ReasonCritical       OrderReason = "critical stock"
	ReasonLowStock       OrderReason = "low stock"
	ReasonSeasonalPeak   OrderReason = "seasonal peak approaching"
	ReasonReplenishment  OrderReason = "normal replenishment"
)

// Result is the engine's output for a single item. Downstream consumers
// read this record only and never re-derive the numbers from raw ledger
// rows.
type Result struct {
	ItemID   string `json:"item_id"`
	Category string `json:"category,omitempty"`

	GrossIn      float64 `json:"gross_in"`
	GrossOut     float64 `json:"gross_out"`
	RemainingQty float64 `json:"remaining_qty"`

	NormalOutboundQty float64 `json:"normal_outbound_qty"`
	AnomalousCount    int     `json:"anomalous_count"`
	AnomalousQty      float64 `json:"anomalous_qty"`
	TaggedCount       int     `json:"tagged_count"`
	TaggedQty         float64 `json:"tagged_qty"`

	// OutlierThreshold is nil when fewer than two observations were
	// available and no suppression applied. Kept as a pointer so the
	// infinite internal threshold never leaks into JSON.
	OutlierThreshold *float64 `json:"outlier_threshold"`

	PendingSupplierQty float64 `json:"pending_supplier_qty"`
	PendingCustomerQty float64 `json:"pending_customer_qty"`

	MonthlyAverageSale float64  `json:"monthly_average_sale"`
	MonthsOfCoverage   float64  `json:"months_of_coverage"`
	TurnoverDays       *float64 `json:"turnover_days"`

	MovementStatus  MovementStatus  `json:"movement_status"`
	SeasonalPattern SeasonalPattern `json:"seasonal_pattern"`
	SeasonalRisk    int             `json:"seasonal_risk"`
	PeakMonth       time.Month      `json:"peak_month"`
	TroughMonth     time.Month      `json:"trough_month"`

	TargetMonths      float64     `json:"target_months"`
	SuggestedOrderQty float64     `json:"suggested_order_qty"`
	OrderReason       OrderReason `json:"order_reason"`
}

// ErrItemNotFound indicates the requested item has no ledger presence in
// the analysed window.
var ErrItemNotFound = errors.New("analysis: item not found")
