package models

// -----------------------------------------------------------------------------
// Wire payloads
// -----------------------------------------------------------------------------

// MQuoteUpdate is the payload of a quote_update frame.
type MQuoteUpdate struct {
	Symbol    string  `json:"symbol"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Last      float64 `json:"last"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"ts"`
}

// MBaselineUpdate is the payload of a baseline_update frame. The server
// pushes one per symbol whenever a fresh authoritative prior close exists.
type MBaselineUpdate struct {
	Symbol    string  `json:"symbol"`
	PrevClose float64 `json:"prev_close"`
	Timestamp int64   `json:"ts"`
}

// -----------------------------------------------------------------------------
// Derived state
// -----------------------------------------------------------------------------

// Reference kinds for day-over-day change values. SessionStart is the
// lower-confidence fallback used when no valid baseline is cached.
const (
	RefPriorClose   = "prior_close"
	RefSessionStart = "session_start"
)

// MQuoteRow is the rendered per-symbol quote state with its derived values.
type MQuoteRow struct {
	Symbol        string  `json:"symbol"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	Last          float64 `json:"last"`
	Volume        float64 `json:"volume"`
	SessionOpen   float64 `json:"session_open"`
	SessionHigh   float64 `json:"session_high"`
	SessionLow    float64 `json:"session_low"`
	Reference     float64 `json:"reference"`
	ReferenceKind string  `json:"reference_kind"`
	DayChange     float64 `json:"day_change"`
	DayChangePct  float64 `json:"day_change_pct"`
	UpdatedAt     int64   `json:"updated_at"`
}
