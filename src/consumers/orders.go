package consumers

import (
	"sync"

	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"
	"trade-streamer/src/utils"
)

// -----------------------------------------------------------------------------
// OrdersConsumer
// -----------------------------------------------------------------------------

// OrdersConsumer tracks the latest state per order id plus a bounded
// ring of recent events for the activity feed.
type OrdersConsumer struct {
	Ring   *utils.EventRing
	Logger *logger.Logger

	handlerID string

	mu     sync.RWMutex
	latest map[string]models.MOrderEvent
}

// -----------------------------------------------------------------------------

func NewOrdersConsumer(ring *utils.EventRing, log *logger.Logger) *OrdersConsumer {
	return &OrdersConsumer{
		Ring:   ring,
		Logger: log,
		latest: make(map[string]models.MOrderEvent),
	}
}

// -----------------------------------------------------------------------------

func (c *OrdersConsumer) Register(router interfaces.IMessageRouter) {
	c.handlerID = router.AddHandler(c.OnMessage, "orders")
}

// -----------------------------------------------------------------------------

func (c *OrdersConsumer) Unregister(router interfaces.IMessageRouter) {
	if c.handlerID != "" {
		router.RemoveHandler(c.handlerID)
		c.handlerID = ""
	}
}

// -----------------------------------------------------------------------------

func (c *OrdersConsumer) OnMessage(msg *models.MStreamMessage) {
	if msg.Type != models.FrameOrderStatus {
		return
	}

	var event models.MOrderEvent
	if err := msg.Decode(&event); err != nil {
		c.Logger.Warning("Skipping malformed order payload: %v", err)
		return
	}
	if event.OrderID == "" {
		return
	}

	// The ring is not synchronized itself, all access goes through c.mu
	c.mu.Lock()
	c.latest[event.OrderID] = event
	c.Ring.Append(event)
	c.mu.Unlock()

	c.Logger.Debug("Order %s %s %s -> %s", event.OrderID, event.Side, event.Symbol, event.Status)
}

// -----------------------------------------------------------------------------

// Recent returns up to limit events, newest last.
func (c *OrdersConsumer) Recent(limit int) []models.MOrderEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Ring.GetLatest(limit)
}

// -----------------------------------------------------------------------------

func (c *OrdersConsumer) Latest(orderID string) (models.MOrderEvent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	event, ok := c.latest[orderID]
	return event, ok
}

// -----------------------------------------------------------------------------

// OpenCount counts orders whose latest status is not terminal.
func (c *OrdersConsumer) OpenCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	open := 0
	for _, event := range c.latest {
		switch event.Status {
		case "filled", "canceled", "rejected", "expired":
		default:
			open++
		}
	}
	return open
}
