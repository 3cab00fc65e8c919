package utils

import (
	"log"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar scopes baseline validity to exchange calendar days
// using scmhub/calendar.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// NewTradingCalendar loads the calendar for a MIC code (ISO 10383).
// See scmhub/calendar for supported MICs.
func NewTradingCalendar(mic string) *TradingCalendar {
	if mic == "" {
		mic = "xnys" // Default US NYSE
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		// Fallback to xnys if not found
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		log.Printf("WARNING: Failed to load calendar for MIC '%s' and fallback 'xnys'. Using simple fallback (Mon-Fri 09:30-16:00 NY).", mic)
		// Try load NY location for fallback
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC // Worst case
		}
		return &TradingCalendar{Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// DayKey returns the calendar-day stamp for t in the exchange timezone.
// Two instants share a stamp exactly when they fall on the same local day.
func (tc *TradingCalendar) DayKey(t time.Time) string {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}
	return t.Format("2006-01-02")
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	// Normalize to timezone if available
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		// Simple fallback: Mon-Fri
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	// Library handles IsHoliday / IsBusinessDay
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// PreviousTradingDay returns the most recent trading day strictly before t.
// Bounded scan so a broken calendar cannot spin forever.
func (tc *TradingCalendar) PreviousTradingDay(t time.Time) time.Time {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	day := t.AddDate(0, 0, -1)
	for i := 0; i < 10; i++ {
		if tc.IsTradingDay(day) {
			return day
		}
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	// Normalize to timezone if available
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}

		hour := t.Hour()
		minute := t.Minute()

		// 9:30 - 16:00 NY Time
		if (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16 {
			return true
		}
		return false
	}

	return tc.Calendar.IsOpen(t)
}
