package reconcile

import (
	"testing"

	"trade-streamer/src/logger"
	"trade-streamer/src/models"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&models.MConfig{LogLevel: "ERROR"}, "test")
}

func newTestReconciler() *Reconciler {
	return NewReconciler(NewRowStore(), testLogger())
}

func entry(id, symbol string, pnl, delta float64) models.MPositionEntry {
	return models.MPositionEntry{
		EntityID:      id,
		Symbol:        symbol,
		Quantity:      10,
		UnrealizedPnL: pnl,
		Delta:         delta,
		Status:        models.PositionOpen,
	}
}

func TestRecomputeAfterOverwrite(t *testing.T) {
	rec := newTestReconciler()

	totals := rec.ApplyBatch([]models.MPositionEntry{
		entry("P1", "AAPL", 50, 1),
		entry("P2", "MSFT", -20, 2),
	})
	if totals.UnrealizedPnL != 30 {
		t.Errorf("Expected PnL 30 after first batch, got %f", totals.UnrealizedPnL)
	}
	if totals.PositionCount != 2 {
		t.Errorf("Expected 2 positions, got %d", totals.PositionCount)
	}

	// P1 moves to +60: the overwrite replaces, never accumulates
	totals = rec.ApplyBatch([]models.MPositionEntry{entry("P1", "AAPL", 60, 1)})
	if totals.UnrealizedPnL != 40 {
		t.Errorf("Expected PnL 40 after update, got %f", totals.UnrealizedPnL)
	}
	if totals.NetDelta != 3 {
		t.Errorf("Expected net delta 3, got %f", totals.NetDelta)
	}
}

func TestReapplyIsIdempotent(t *testing.T) {
	rec := newTestReconciler()

	batch := []models.MPositionEntry{
		entry("P1", "AAPL", 50, 1),
		entry("P2", "MSFT", -20, 2),
	}
	first := rec.ApplyBatch(batch)
	second := rec.ApplyBatch(batch)

	if first.UnrealizedPnL != second.UnrealizedPnL {
		t.Errorf("Expected re-applied batch to change nothing, got %f then %f", first.UnrealizedPnL, second.UnrealizedPnL)
	}
	if second.PositionCount != 2 {
		t.Errorf("Expected 2 positions after re-apply, got %d", second.PositionCount)
	}
}

func TestClosedPositionRemoved(t *testing.T) {
	rec := newTestReconciler()

	rec.ApplyBatch([]models.MPositionEntry{
		entry("P1", "AAPL", 50, 1),
		entry("P2", "MSFT", -20, 2),
	})

	closed := entry("P1", "AAPL", 0, 0)
	closed.Status = models.PositionClosed
	totals := rec.ApplyBatch([]models.MPositionEntry{closed})

	if totals.PositionCount != 1 {
		t.Errorf("Expected 1 position after close, got %d", totals.PositionCount)
	}
	if totals.UnrealizedPnL != -20 {
		t.Errorf("Expected PnL -20 after close, got %f", totals.UnrealizedPnL)
	}
	if _, found := rec.Store.Get("P1"); found {
		t.Error("Expected closed row to be gone from the store")
	}

	// Closing an unknown entity is a no-op
	unknown := entry("P9", "SPY", 0, 0)
	unknown.Status = models.PositionClosed
	totals = rec.ApplyBatch([]models.MPositionEntry{unknown})
	if totals.PositionCount != 1 {
		t.Errorf("Expected count unchanged after unknown close, got %d", totals.PositionCount)
	}
}

func TestEmptyTotals(t *testing.T) {
	rec := newTestReconciler()

	totals := rec.Recompute()
	if totals.UnrealizedPnL != 0 || totals.PositionCount != 0 {
		t.Errorf("Expected zero totals on empty store, got %+v", totals)
	}
}

func TestRowsSortedByEntityID(t *testing.T) {
	rec := newTestReconciler()

	rec.ApplyBatch([]models.MPositionEntry{
		entry("P3", "SPY", 1, 0),
		entry("P1", "AAPL", 2, 0),
		entry("P2", "MSFT", 3, 0),
	})

	rows := rec.Rows()
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	want := []string{"P1", "P2", "P3"}
	for i, row := range rows {
		if row.EntityID != want[i] {
			t.Errorf("Row %d: expected %s, got %s", i, want[i], row.EntityID)
		}
	}
}

func TestGreekTotals(t *testing.T) {
	rec := newTestReconciler()

	a := entry("P1", "AAPL", 10, 5)
	a.Gamma = 0.5
	a.Theta = -3
	a.Vega = 12
	b := entry("P2", "MSFT", 20, -2)
	b.Gamma = 0.25
	b.Theta = -1
	b.Vega = 8

	totals := rec.ApplyBatch([]models.MPositionEntry{a, b})

	if totals.NetDelta != 3 {
		t.Errorf("Expected net delta 3, got %f", totals.NetDelta)
	}
	if totals.NetGamma != 0.75 {
		t.Errorf("Expected net gamma 0.75, got %f", totals.NetGamma)
	}
	if totals.NetTheta != -4 {
		t.Errorf("Expected net theta -4, got %f", totals.NetTheta)
	}
	if totals.NetVega != 20 {
		t.Errorf("Expected net vega 20, got %f", totals.NetVega)
	}
}
