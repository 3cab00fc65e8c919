package stream

import (
	"testing"

	"trade-streamer/src/logger"
	"trade-streamer/src/models"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&models.MConfig{LogLevel: "ERROR"}, "test")
}

const quoteFrame = `{"type":"quote_update","symbol":"AAPL","bid":186.9,"ask":187.1,"last":187.0,"volume":1200,"ts":1700000000000}`
const orderFrame = `{"type":"order_status","order_id":"o-1","symbol":"AAPL","side":"buy","qty":10,"status":"filled","ts":1700000000001}`

func TestDispatchDeliversToAllHandlersOnce(t *testing.T) {
	reg := NewHandlerRegistry(testLogger())

	var aSeen, bSeen []string
	reg.AddHandler(func(msg *models.MStreamMessage) { aSeen = append(aSeen, msg.Type) }, "a")
	reg.AddHandler(func(msg *models.MStreamMessage) { bSeen = append(bSeen, msg.Type) }, "b")

	reg.Dispatch([]byte(quoteFrame))

	if len(aSeen) != 1 || aSeen[0] != models.FrameQuoteUpdate {
		t.Errorf("Expected handler a to see one quote_update, got %v", aSeen)
	}
	if len(bSeen) != 1 || bSeen[0] != models.FrameQuoteUpdate {
		t.Errorf("Expected handler b to see one quote_update, got %v", bSeen)
	}

	stats := reg.Stats()
	if stats.Dispatched != 1 {
		t.Errorf("Expected 1 dispatched, got %d", stats.Dispatched)
	}
}

func TestDispatchSharesParsedMessage(t *testing.T) {
	reg := NewHandlerRegistry(testLogger())

	var aMsg, bMsg *models.MStreamMessage
	reg.AddHandler(func(msg *models.MStreamMessage) { aMsg = msg }, "a")
	reg.AddHandler(func(msg *models.MStreamMessage) { bMsg = msg }, "b")

	reg.Dispatch([]byte(quoteFrame))

	if aMsg == nil || bMsg == nil {
		t.Fatal("Expected both handlers to receive the frame")
	}
	// Parsed once, every handler sees the same message
	if aMsg != bMsg {
		t.Error("Expected handlers to share the parsed message")
	}

	var quote models.MQuoteUpdate
	if err := aMsg.Decode(&quote); err != nil {
		t.Fatalf("Expected payload to decode, got %v", err)
	}
	if quote.Symbol != "AAPL" || quote.Last != 187.0 {
		t.Errorf("Expected AAPL at 187.0, got %s at %f", quote.Symbol, quote.Last)
	}
}

func TestMalformedFrameDropped(t *testing.T) {
	reg := NewHandlerRegistry(testLogger())

	calls := 0
	reg.AddHandler(func(msg *models.MStreamMessage) { calls++ }, "a")

	reg.Dispatch([]byte(`{"type":`))
	reg.Dispatch([]byte(`{"symbol":"AAPL"}`)) // no type field
	reg.Dispatch([]byte(``))

	if calls != 0 {
		t.Errorf("Expected no handler calls for malformed frames, got %d", calls)
	}

	stats := reg.Stats()
	if stats.Dropped != 3 {
		t.Errorf("Expected 3 dropped frames, got %d", stats.Dropped)
	}

	// A valid frame after garbage still goes through
	reg.Dispatch([]byte(quoteFrame))
	if calls != 1 {
		t.Errorf("Expected dispatch to recover after malformed frames, got %d calls", calls)
	}
}

func TestRemoveHandlerStopsDelivery(t *testing.T) {
	reg := NewHandlerRegistry(testLogger())

	calls := 0
	id := reg.AddHandler(func(msg *models.MStreamMessage) { calls++ }, "a")

	reg.Dispatch([]byte(quoteFrame))
	if !reg.RemoveHandler(id) {
		t.Fatal("Expected removal of a known id to succeed")
	}
	reg.Dispatch([]byte(quoteFrame))

	if calls != 1 {
		t.Errorf("Expected 1 call after removal, got %d", calls)
	}
	if reg.RemoveHandler(id) {
		t.Error("Expected second removal of the same id to be a no-op")
	}
	if reg.RemoveHandler("not-an-id") {
		t.Error("Expected removal of unknown id to be a no-op")
	}
}

func TestHandlerAddedMidDispatchSeesNextFrame(t *testing.T) {
	reg := NewHandlerRegistry(testLogger())

	lateCalls := 0
	reg.AddHandler(func(msg *models.MStreamMessage) {
		reg.AddHandler(func(msg *models.MStreamMessage) { lateCalls++ }, "late")
	}, "adder")

	reg.Dispatch([]byte(quoteFrame))
	if lateCalls != 0 {
		t.Errorf("Expected handler added mid-dispatch to miss the current frame, got %d calls", lateCalls)
	}

	// Adder registers another copy each pass, so only check the first one fired
	reg.Dispatch([]byte(quoteFrame))
	if lateCalls == 0 {
		t.Error("Expected handler added mid-dispatch to see the next frame")
	}
}

func TestHandlerSelfRemovalMidDispatch(t *testing.T) {
	reg := NewHandlerRegistry(testLogger())

	aCalls, bCalls := 0, 0
	var aID string
	aID = reg.AddHandler(func(msg *models.MStreamMessage) {
		aCalls++
		reg.RemoveHandler(aID)
	}, "a")
	reg.AddHandler(func(msg *models.MStreamMessage) { bCalls++ }, "b")

	reg.Dispatch([]byte(quoteFrame))

	// Snapshot semantics: b still receives the frame a was removed during
	if aCalls != 1 || bCalls != 1 {
		t.Errorf("Expected both handlers to see the first frame, got a=%d b=%d", aCalls, bCalls)
	}

	reg.Dispatch([]byte(quoteFrame))
	if aCalls != 1 {
		t.Errorf("Expected removed handler to miss later frames, got %d calls", aCalls)
	}
	if bCalls != 2 {
		t.Errorf("Expected remaining handler to keep receiving, got %d calls", bCalls)
	}
}

func TestPanickingHandlerIsolated(t *testing.T) {
	reg := NewHandlerRegistry(testLogger())

	bCalls := 0
	reg.AddHandler(func(msg *models.MStreamMessage) { panic("boom") }, "faulty")
	reg.AddHandler(func(msg *models.MStreamMessage) { bCalls++ }, "b")

	reg.Dispatch([]byte(quoteFrame))
	reg.Dispatch([]byte(orderFrame))

	if bCalls != 2 {
		t.Errorf("Expected healthy handler to receive both frames, got %d", bCalls)
	}

	stats := reg.Stats()
	if stats.HandlerFaults != 2 {
		t.Errorf("Expected 2 handler faults, got %d", stats.HandlerFaults)
	}
	if stats.Handlers != 2 {
		t.Errorf("Expected faulty handler to stay registered, got %d handlers", stats.Handlers)
	}
}

func TestHandlerCount(t *testing.T) {
	reg := NewHandlerRegistry(testLogger())

	if reg.HandlerCount() != 0 {
		t.Errorf("Expected empty registry, got %d", reg.HandlerCount())
	}

	id := reg.AddHandler(func(msg *models.MStreamMessage) {}, "a")
	reg.AddHandler(func(msg *models.MStreamMessage) {}, "b")
	if reg.HandlerCount() != 2 {
		t.Errorf("Expected 2 handlers, got %d", reg.HandlerCount())
	}

	reg.RemoveHandler(id)
	if reg.HandlerCount() != 1 {
		t.Errorf("Expected 1 handler after removal, got %d", reg.HandlerCount())
	}
}
