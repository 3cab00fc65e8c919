package streamobs

import (
	"context"

	"trade-streamer/src/interfaces"
	"trade-streamer/src/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// observableRouter wraps a router with a span around every dispatch
type observableRouter struct {
	router interfaces.IMessageRouter
}

// Compile-time interface check
var _ interfaces.IMessageRouter = (*observableRouter)(nil)

// WrapRouter adds dispatch tracing. When tracing is disabled the router
// is returned as-is so the hot path pays nothing.
func WrapRouter(router interfaces.IMessageRouter) interfaces.IMessageRouter {
	if !Enabled() {
		return router
	}
	return &observableRouter{
		router: router,
	}
}

func (or *observableRouter) AddHandler(handler func(msg *models.MStreamMessage), tag string) string {
	return or.router.AddHandler(handler, tag)
}

func (or *observableRouter) RemoveHandler(id string) bool {
	return or.router.RemoveHandler(id)
}

func (or *observableRouter) Dispatch(raw []byte) {
	_, span := StartSpan(context.Background(), "router.Dispatch",
		trace.WithAttributes(attribute.Int("frame.bytes", len(raw))),
	)
	defer span.End()

	or.router.Dispatch(raw)

	span.SetAttributes(attribute.Int("router.handlers", or.router.HandlerCount()))
}

func (or *observableRouter) HandlerCount() int {
	return or.router.HandlerCount()
}

func (or *observableRouter) Stats() models.MRouterStats {
	return or.router.Stats()
}
