package consumers

import (
	"sync"

	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"
)

// -----------------------------------------------------------------------------
// AccountConsumer
// -----------------------------------------------------------------------------

// AccountConsumer keeps the latest account snapshot. Frames replace the
// whole state, nothing is merged.
type AccountConsumer struct {
	Logger *logger.Logger

	handlerID string

	mu     sync.RWMutex
	latest models.MAccountState
	seen   bool
}

// -----------------------------------------------------------------------------

func NewAccountConsumer(log *logger.Logger) *AccountConsumer {
	return &AccountConsumer{
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (c *AccountConsumer) Register(router interfaces.IMessageRouter) {
	c.handlerID = router.AddHandler(c.OnMessage, "account")
}

// -----------------------------------------------------------------------------

func (c *AccountConsumer) Unregister(router interfaces.IMessageRouter) {
	if c.handlerID != "" {
		router.RemoveHandler(c.handlerID)
		c.handlerID = ""
	}
}

// -----------------------------------------------------------------------------

func (c *AccountConsumer) OnMessage(msg *models.MStreamMessage) {
	if msg.Type != models.FrameAccountUpdate {
		return
	}

	var state models.MAccountState
	if err := msg.Decode(&state); err != nil {
		c.Logger.Warning("Skipping malformed account payload: %v", err)
		return
	}

	c.mu.Lock()
	c.latest = state
	c.seen = true
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

// State returns the latest snapshot and whether one arrived yet.
func (c *AccountConsumer) State() (models.MAccountState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.seen
}
