package models

import "time"

// -----------------------------------------------------------------------------
// Wire payloads
// -----------------------------------------------------------------------------

// Position entry statuses as sent by the upstream feed.
const (
	PositionOpen   = "open"
	PositionClosed = "closed"
)

// MPositionUpdate is the payload of a position_update frame. Entries are
// full row states, not deltas.
type MPositionUpdate struct {
	Positions []MPositionEntry `json:"positions"`
	Timestamp int64            `json:"ts"`
}

type MPositionEntry struct {
	EntityID      string  `json:"entity_id"`
	Symbol        string  `json:"symbol"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"qty"`
	AvgPrice      float64 `json:"avg_price"`
	Mark          float64 `json:"mark"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Delta         float64 `json:"delta"`
	Gamma         float64 `json:"gamma"`
	Theta         float64 `json:"theta"`
	Vega          float64 `json:"vega"`
	Status        string  `json:"status"`
}

// -----------------------------------------------------------------------------
// Reconciled state
// -----------------------------------------------------------------------------

// MPositionRow is the stored row state keyed by EntityID.
type MPositionRow struct {
	EntityID      string    `json:"entity_id"`
	Symbol        string    `json:"symbol"`
	Description   string    `json:"description"`
	Quantity      float64   `json:"qty"`
	AvgPrice      float64   `json:"avg_price"`
	Mark          float64   `json:"mark"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	Delta         float64   `json:"delta"`
	Gamma         float64   `json:"gamma"`
	Theta         float64   `json:"theta"`
	Vega          float64   `json:"vega"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MPortfolioTotals holds the aggregates recomputed by full rescan of the
// row store. Always equals the sum over the current rows.
type MPortfolioTotals struct {
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	NetDelta      float64   `json:"net_delta"`
	NetGamma      float64   `json:"net_gamma"`
	NetTheta      float64   `json:"net_theta"`
	NetVega       float64   `json:"net_vega"`
	PositionCount int       `json:"position_count"`
	ComputedAt    time.Time `json:"computed_at"`
}
