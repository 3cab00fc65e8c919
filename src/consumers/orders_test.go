package consumers

import (
	"fmt"
	"testing"

	"trade-streamer/src/stream"
	"trade-streamer/src/utils"
)

func newOrdersFixture(t *testing.T, capacity int) (*OrdersConsumer, *stream.HandlerRegistry) {
	t.Helper()
	orders := NewOrdersConsumer(utils.NewEventRing(capacity), testLogger())
	reg := stream.NewHandlerRegistry(testLogger())
	orders.Register(reg)
	return orders, reg
}

func orderJSON(orderID, status string, filled float64) []byte {
	return []byte(fmt.Sprintf(`{"type":"order_status","order_id":"%s","symbol":"AAPL","side":"buy","qty":10,"filled":%f,"limit_price":187.5,"status":"%s","ts":1700000000000}`,
		orderID, filled, status))
}

func TestOrderLatestStatusWins(t *testing.T) {
	orders, reg := newOrdersFixture(t, 10)

	reg.Dispatch(orderJSON("o-1", "new", 0))
	reg.Dispatch(orderJSON("o-1", "filled", 10))

	event, ok := orders.Latest("o-1")
	if !ok {
		t.Fatal("Expected o-1 to be tracked")
	}
	if event.Status != "filled" {
		t.Errorf("Expected status filled, got %s", event.Status)
	}
	if event.Filled != 10 {
		t.Errorf("Expected fill 10, got %f", event.Filled)
	}
}

func TestRecentKeepsDispatchOrder(t *testing.T) {
	orders, reg := newOrdersFixture(t, 10)

	reg.Dispatch(orderJSON("o-1", "new", 0))
	reg.Dispatch(orderJSON("o-2", "new", 0))
	reg.Dispatch(orderJSON("o-3", "new", 0))

	recent := orders.Recent(10)
	if len(recent) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(recent))
	}
	want := []string{"o-1", "o-2", "o-3"}
	for i, event := range recent {
		if event.OrderID != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], event.OrderID)
		}
	}
}

func TestRingDropsOldestWhenFull(t *testing.T) {
	orders, reg := newOrdersFixture(t, 3)

	for i := 1; i <= 5; i++ {
		reg.Dispatch(orderJSON(fmt.Sprintf("o-%d", i), "new", 0))
	}

	recent := orders.Recent(10)
	if len(recent) != 3 {
		t.Fatalf("Expected ring to hold 3 events, got %d", len(recent))
	}
	want := []string{"o-3", "o-4", "o-5"}
	for i, event := range recent {
		if event.OrderID != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], event.OrderID)
		}
	}

	// The latest map is unbounded, the evicted orders stay addressable
	if _, ok := orders.Latest("o-1"); !ok {
		t.Error("Expected o-1 to remain in the latest map after ring eviction")
	}
}

func TestOpenCountSkipsTerminalStatuses(t *testing.T) {
	orders, reg := newOrdersFixture(t, 10)

	reg.Dispatch(orderJSON("o-1", "new", 0))
	reg.Dispatch(orderJSON("o-2", "working", 0))
	reg.Dispatch(orderJSON("o-3", "filled", 10))
	reg.Dispatch(orderJSON("o-4", "canceled", 0))
	reg.Dispatch(orderJSON("o-5", "rejected", 0))

	if got := orders.OpenCount(); got != 2 {
		t.Errorf("Expected 2 open orders, got %d", got)
	}

	// o-1 fills, only o-2 remains open
	reg.Dispatch(orderJSON("o-1", "filled", 10))
	if got := orders.OpenCount(); got != 1 {
		t.Errorf("Expected 1 open order after the fill, got %d", got)
	}
}

func TestOrderWithoutIDIgnored(t *testing.T) {
	orders, reg := newOrdersFixture(t, 10)

	reg.Dispatch([]byte(`{"type":"order_status","symbol":"AAPL","status":"new","ts":1}`))

	if len(orders.Recent(10)) != 0 {
		t.Error("Expected no events from an order frame without an id")
	}
	if got := orders.OpenCount(); got != 0 {
		t.Errorf("Expected 0 open orders, got %d", got)
	}
}

func TestMalformedOrderPayloadSkipped(t *testing.T) {
	orders, reg := newOrdersFixture(t, 10)

	reg.Dispatch([]byte(`{"type":"order_status","order_id":"o-1","qty":"ten","ts":1}`))
	reg.Dispatch(orderJSON("o-2", "new", 0))

	if _, ok := orders.Latest("o-1"); ok {
		t.Error("Expected the malformed payload to be skipped")
	}
	if _, ok := orders.Latest("o-2"); !ok {
		t.Error("Expected the valid frame after it to be applied")
	}
}
