package consumers

import (
	"context"
	"fmt"
	"testing"

	"trade-streamer/src/baseline"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"
	"trade-streamer/src/stream"
	"trade-streamer/src/utils"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&models.MConfig{LogLevel: "ERROR"}, "test")
}

func newDashboardFixture(t *testing.T) (*DashboardConsumer, *stream.HandlerRegistry) {
	t.Helper()
	cal := utils.NewTradingCalendar("xnys")
	cache := baseline.NewCache(baseline.NewMemoryStore(), cal, "test", testLogger())
	dash := NewDashboardConsumer(context.Background(), cache, testLogger())
	reg := stream.NewHandlerRegistry(testLogger())
	dash.Register(reg)
	return dash, reg
}

func quoteJSON(symbol string, last float64) []byte {
	return []byte(fmt.Sprintf(`{"type":"quote_update","symbol":"%s","bid":%f,"ask":%f,"last":%f,"volume":100,"ts":1700000000000}`,
		symbol, last-0.05, last+0.05, last))
}

func baselineJSON(symbol string, prevClose float64) []byte {
	return []byte(fmt.Sprintf(`{"type":"baseline_update","symbol":"%s","prev_close":%f,"ts":1700000000000}`, symbol, prevClose))
}

func TestQuoteWithoutBaselineUsesSessionStart(t *testing.T) {
	dash, reg := newDashboardFixture(t)

	reg.Dispatch(quoteJSON("AAPL", 100))

	row, ok := dash.Row("AAPL")
	if !ok {
		t.Fatal("Expected a row after the first quote")
	}
	if row.ReferenceKind != models.RefSessionStart {
		t.Errorf("Expected session_start reference, got %s", row.ReferenceKind)
	}
	if row.Reference != 100 || row.DayChange != 0 {
		t.Errorf("Expected reference 100 and zero change, got %f and %f", row.Reference, row.DayChange)
	}

	// The fallback reference stays pinned to the first seen price
	reg.Dispatch(quoteJSON("AAPL", 105))

	row, _ = dash.Row("AAPL")
	if row.Reference != 100 {
		t.Errorf("Expected reference to stay at 100, got %f", row.Reference)
	}
	if row.DayChange != 5 {
		t.Errorf("Expected change 5, got %f", row.DayChange)
	}
	if row.DayChangePct != 5 {
		t.Errorf("Expected change pct 5, got %f", row.DayChangePct)
	}
}

func TestQuoteWithBaselineUsesPriorClose(t *testing.T) {
	dash, reg := newDashboardFixture(t)

	reg.Dispatch(baselineJSON("AAPL", 95))
	reg.Dispatch(quoteJSON("AAPL", 100))

	row, ok := dash.Row("AAPL")
	if !ok {
		t.Fatal("Expected a row after the quote")
	}
	if row.ReferenceKind != models.RefPriorClose {
		t.Errorf("Expected prior_close reference, got %s", row.ReferenceKind)
	}
	if row.Reference != 95 || row.DayChange != 5 {
		t.Errorf("Expected reference 95 and change 5, got %f and %f", row.Reference, row.DayChange)
	}
}

func TestBaselineUpgradesExistingRow(t *testing.T) {
	dash, reg := newDashboardFixture(t)

	reg.Dispatch(quoteJSON("AAPL", 100))
	row, _ := dash.Row("AAPL")
	if row.ReferenceKind != models.RefSessionStart {
		t.Fatalf("Expected session_start before the baseline, got %s", row.ReferenceKind)
	}

	// A late baseline upgrades the row without waiting for the next quote
	reg.Dispatch(baselineJSON("AAPL", 90))

	row, _ = dash.Row("AAPL")
	if row.ReferenceKind != models.RefPriorClose {
		t.Errorf("Expected prior_close after the baseline, got %s", row.ReferenceKind)
	}
	if row.Reference != 90 || row.DayChange != 10 {
		t.Errorf("Expected reference 90 and change 10, got %f and %f", row.Reference, row.DayChange)
	}
}

func TestSessionHighLowTracking(t *testing.T) {
	dash, reg := newDashboardFixture(t)

	reg.Dispatch(quoteJSON("AAPL", 100))
	reg.Dispatch(quoteJSON("AAPL", 110))
	reg.Dispatch(quoteJSON("AAPL", 90))

	row, _ := dash.Row("AAPL")
	if row.SessionOpen != 100 {
		t.Errorf("Expected session open 100, got %f", row.SessionOpen)
	}
	if row.SessionHigh != 110 {
		t.Errorf("Expected session high 110, got %f", row.SessionHigh)
	}
	if row.SessionLow != 90 {
		t.Errorf("Expected session low 90, got %f", row.SessionLow)
	}
	if row.Last != 90 {
		t.Errorf("Expected last 90, got %f", row.Last)
	}
}

func TestRowsSortedBySymbol(t *testing.T) {
	dash, reg := newDashboardFixture(t)

	reg.Dispatch(quoteJSON("MSFT", 1))
	reg.Dispatch(quoteJSON("AAPL", 2))
	reg.Dispatch(quoteJSON("SPY", 3))

	rows := dash.Rows()
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	want := []string{"AAPL", "MSFT", "SPY"}
	for i, row := range rows {
		if row.Symbol != want[i] {
			t.Errorf("Row %d: expected %s, got %s", i, want[i], row.Symbol)
		}
	}
}

func TestDashboardIgnoresOtherFrames(t *testing.T) {
	dash, reg := newDashboardFixture(t)

	reg.Dispatch([]byte(`{"type":"order_status","order_id":"o-1","symbol":"AAPL","status":"filled","ts":1}`))
	reg.Dispatch([]byte(`{"type":"account_update","net_liq":100000,"ts":1}`))

	if len(dash.Rows()) != 0 {
		t.Errorf("Expected no rows from non-quote frames, got %d", len(dash.Rows()))
	}
}

func TestUnregisterStopsUpdates(t *testing.T) {
	dash, reg := newDashboardFixture(t)

	reg.Dispatch(quoteJSON("AAPL", 100))
	dash.Unregister(reg)
	reg.Dispatch(quoteJSON("AAPL", 200))

	row, _ := dash.Row("AAPL")
	if row.Last != 100 {
		t.Errorf("Expected no updates after unregister, got last %f", row.Last)
	}
}
