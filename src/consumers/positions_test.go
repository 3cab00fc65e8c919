package consumers

import (
	"encoding/json"
	"testing"

	"trade-streamer/src/models"
	"trade-streamer/src/reconcile"
	"trade-streamer/src/stream"
)

func newPositionsFixture(t *testing.T) (*reconcile.Reconciler, *stream.HandlerRegistry) {
	t.Helper()
	rec := reconcile.NewReconciler(reconcile.NewRowStore(), testLogger())
	positions := NewPositionsConsumer(rec, testLogger())
	reg := stream.NewHandlerRegistry(testLogger())
	positions.Register(reg)
	return rec, reg
}

func positionFrame(t *testing.T, entries ...models.MPositionEntry) []byte {
	t.Helper()
	raw, err := json.Marshal(struct {
		Type string `json:"type"`
		models.MPositionUpdate
	}{
		Type:            models.FramePositionUpdate,
		MPositionUpdate: models.MPositionUpdate{Positions: entries, Timestamp: 1700000000000},
	})
	if err != nil {
		t.Fatalf("Failed to build position frame: %v", err)
	}
	return raw
}

func TestPositionFrameUpdatesTotals(t *testing.T) {
	rec, reg := newPositionsFixture(t)

	reg.Dispatch(positionFrame(t,
		models.MPositionEntry{EntityID: "P1", Symbol: "AAPL", Quantity: 10, UnrealizedPnL: 50, Delta: 1, Status: models.PositionOpen},
		models.MPositionEntry{EntityID: "P2", Symbol: "MSFT", Quantity: -5, UnrealizedPnL: -20, Delta: 2, Status: models.PositionOpen},
	))

	totals := rec.Totals()
	if totals.UnrealizedPnL != 30 {
		t.Errorf("Expected PnL 30, got %f", totals.UnrealizedPnL)
	}
	if totals.PositionCount != 2 {
		t.Errorf("Expected 2 positions, got %d", totals.PositionCount)
	}

	// P1 revalued, the overwrite replaces the old row
	reg.Dispatch(positionFrame(t,
		models.MPositionEntry{EntityID: "P1", Symbol: "AAPL", Quantity: 10, UnrealizedPnL: 60, Delta: 1, Status: models.PositionOpen},
	))

	totals = rec.Totals()
	if totals.UnrealizedPnL != 40 {
		t.Errorf("Expected PnL 40 after revaluation, got %f", totals.UnrealizedPnL)
	}
	if totals.PositionCount != 2 {
		t.Errorf("Expected 2 positions after revaluation, got %d", totals.PositionCount)
	}
}

func TestClosedEntryRemovesRowViaFrame(t *testing.T) {
	rec, reg := newPositionsFixture(t)

	reg.Dispatch(positionFrame(t,
		models.MPositionEntry{EntityID: "P1", Symbol: "AAPL", UnrealizedPnL: 50, Status: models.PositionOpen},
		models.MPositionEntry{EntityID: "P2", Symbol: "MSFT", UnrealizedPnL: -20, Status: models.PositionOpen},
	))
	reg.Dispatch(positionFrame(t,
		models.MPositionEntry{EntityID: "P1", Symbol: "AAPL", Status: models.PositionClosed},
	))

	totals := rec.Totals()
	if totals.PositionCount != 1 {
		t.Errorf("Expected 1 position after the close, got %d", totals.PositionCount)
	}
	if totals.UnrealizedPnL != -20 {
		t.Errorf("Expected PnL -20, got %f", totals.UnrealizedPnL)
	}
}

func TestMalformedPositionPayloadSkipped(t *testing.T) {
	rec, reg := newPositionsFixture(t)

	reg.Dispatch([]byte(`{"type":"position_update","positions":"not-an-array","ts":1}`))

	if got := rec.Totals().PositionCount; got != 0 {
		t.Errorf("Expected 0 positions after a malformed frame, got %d", got)
	}
}
