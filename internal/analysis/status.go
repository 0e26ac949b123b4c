package analysis

import (
	"time"

	"github.com/stocklens/stocklens/internal/ledger"
)

// ActivitySnapshot counts qualifying outbound movements in trailing
// windows measured from the analysis clock, not the period window. Tag
// and anomaly status are irrelevant for activity classification.
type ActivitySnapshot struct {
	Last30  int
	Last60  int
	Last180 int
	Last365 int
}

// SnapshotActivity builds the trailing counters from the full movement
// history of one item.
func SnapshotActivity(rows []ledger.MovementRecord, now time.Time) ActivitySnapshot {
	var snap ActivitySnapshot
	d30 := now.AddDate(0, 0, -30)
	d60 := now.AddDate(0, 0, -60)
	d180 := now.AddDate(0, 0, -180)
	d365 := now.AddDate(0, 0, -365)

	for _, row := range rows {
		if !row.IsOutboundSale() || row.Date.After(now) {
			continue
		}
		if !row.Date.Before(d365) {
			snap.Last365++
		}
		if !row.Date.Before(d180) {
			snap.Last180++
		}
		if !row.Date.Before(d60) {
			snap.Last60++
		}
		if !row.Date.Before(d30) {
			snap.Last30++
		}
	}
	return snap
}

// Classify resolves the movement status. Tiers are checked in order and
// the first match wins; an item that reaches the bottom is dead stock.
func (s ActivitySnapshot) Classify() MovementStatus {
	switch {
	case s.Last30 >= 3:
		return StatusActive
	case s.Last60 >= 2:
		return StatusSlow
	case s.Last180 >= 1:
		return StatusStagnant
	default:
		return StatusDead
	}
}
