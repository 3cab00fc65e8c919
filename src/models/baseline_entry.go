package models

import "time"

// MBaselineEntry is one cached baseline value. DayStamp is the calendar
// day (exchange timezone) the entry was written on; entries whose stamp
// is not the current day are stale and must not be served.
type MBaselineEntry struct {
	Namespace string    `json:"namespace"`
	Symbol    string    `json:"symbol"`
	Value     float64   `json:"value"`
	DayStamp  string    `json:"day_stamp"`
	StoredAt  time.Time `json:"stored_at"`
}
