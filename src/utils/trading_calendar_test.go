package utils

import (
	"testing"
	"time"
)

func TestDayKeySameLocalDay(t *testing.T) {
	cal := NewTradingCalendar("xnys")

	morning := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)   // 10:00 New York
	afternoon := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC) // 16:00 New York

	if cal.DayKey(morning) != cal.DayKey(afternoon) {
		t.Errorf("Expected matching keys, got %s and %s", cal.DayKey(morning), cal.DayKey(afternoon))
	}
	if cal.DayKey(morning) != "2026-03-10" {
		t.Errorf("Expected 2026-03-10, got %s", cal.DayKey(morning))
	}
}

func TestDayKeyUsesExchangeTimezone(t *testing.T) {
	cal := NewTradingCalendar("xnys")

	// 02:00 UTC is still the previous evening in New York
	lateEvening := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)

	if got := cal.DayKey(lateEvening); got != "2026-03-10" {
		t.Errorf("Expected the New York date 2026-03-10, got %s", got)
	}
}

func TestPreviousTradingDaySkipsWeekend(t *testing.T) {
	cal := NewTradingCalendar("xnys")

	monday := time.Date(2026, 8, 24, 10, 0, 0, 0, cal.Timezone)
	prev := cal.PreviousTradingDay(monday)

	if prev.Weekday() != time.Friday {
		t.Errorf("Expected Friday, got %s", prev.Weekday())
	}
	if cal.DayKey(prev) != "2026-08-21" {
		t.Errorf("Expected 2026-08-21, got %s", cal.DayKey(prev))
	}
}

func TestPreviousTradingDaySkipsHoliday(t *testing.T) {
	cal := NewTradingCalendar("xnys")
	if cal.Fallback {
		t.Skip("Exchange calendar unavailable, fallback has no holiday data")
	}

	// Monday 2026-01-19 is Martin Luther King Jr. Day
	tuesday := time.Date(2026, 1, 20, 10, 0, 0, 0, cal.Timezone)
	prev := cal.PreviousTradingDay(tuesday)

	if cal.DayKey(prev) != "2026-01-16" {
		t.Errorf("Expected Friday 2026-01-16, got %s", cal.DayKey(prev))
	}
}

func TestUnknownMICFallsBackToXNYS(t *testing.T) {
	cal := NewTradingCalendar("zzzz")

	if cal.Fallback {
		t.Fatal("Expected the xnys calendar to load for an unknown MIC")
	}
	if cal.Timezone.String() != "America/New_York" {
		t.Errorf("Expected America/New_York, got %s", cal.Timezone)
	}
}

func TestFallbackCalendarMonFri(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("Failed to load New York timezone: %v", err)
	}
	cal := &TradingCalendar{Fallback: true, Timezone: ny}

	saturday := time.Date(2026, 8, 22, 12, 0, 0, 0, ny)
	wednesday := time.Date(2026, 8, 26, 12, 0, 0, 0, ny)

	if cal.IsTradingDay(saturday) {
		t.Error("Expected Saturday to be a non-trading day")
	}
	if !cal.IsTradingDay(wednesday) {
		t.Error("Expected Wednesday to be a trading day")
	}

	cases := []struct {
		hour, minute int
		open         bool
	}{
		{9, 29, false},
		{9, 30, true},
		{15, 59, true},
		{16, 0, false},
	}
	for _, c := range cases {
		at := time.Date(2026, 8, 26, c.hour, c.minute, 0, 0, ny)
		if got := cal.IsOpenOnMinute(at); got != c.open {
			t.Errorf("At %02d:%02d expected open=%v, got %v", c.hour, c.minute, c.open, got)
		}
	}
}
