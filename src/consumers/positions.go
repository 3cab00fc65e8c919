package consumers

import (
	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"
	"trade-streamer/src/reconcile"
)

// -----------------------------------------------------------------------------
// PositionsConsumer
// -----------------------------------------------------------------------------

// PositionsConsumer feeds position frames into the reconciler. All row
// and totals state lives there.
type PositionsConsumer struct {
	Reconciler *reconcile.Reconciler
	Logger     *logger.Logger

	handlerID string
}

// -----------------------------------------------------------------------------

func NewPositionsConsumer(rec *reconcile.Reconciler, log *logger.Logger) *PositionsConsumer {
	return &PositionsConsumer{
		Reconciler: rec,
		Logger:     log,
	}
}

// -----------------------------------------------------------------------------

func (c *PositionsConsumer) Register(router interfaces.IMessageRouter) {
	c.handlerID = router.AddHandler(c.OnMessage, "positions")
}

// -----------------------------------------------------------------------------

func (c *PositionsConsumer) Unregister(router interfaces.IMessageRouter) {
	if c.handlerID != "" {
		router.RemoveHandler(c.handlerID)
		c.handlerID = ""
	}
}

// -----------------------------------------------------------------------------

func (c *PositionsConsumer) OnMessage(msg *models.MStreamMessage) {
	if msg.Type != models.FramePositionUpdate {
		return
	}

	var update models.MPositionUpdate
	if err := msg.Decode(&update); err != nil {
		c.Logger.Warning("Skipping malformed position payload: %v", err)
		return
	}

	totals := c.Reconciler.ApplyBatch(update.Positions)
	c.Logger.Debug("Applied %d position entries, %d rows, PnL %.2f",
		len(update.Positions), totals.PositionCount, totals.UnrealizedPnL)
}
