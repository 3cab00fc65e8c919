package interfaces

import "trade-streamer/src/models"

// -----------------------------------------------------------------------------
// IMessageRouter defines the contract for the typed frame dispatcher.
// -----------------------------------------------------------------------------

type IMessageRouter interface {

	// -----------------------------------------------------------------------------

	// AddHandler registers a callback and returns its opaque id. The tag is
	// used for log attribution only. Every handler receives every frame and
	// filters on the frame type itself.
	AddHandler(handler func(msg *models.MStreamMessage), tag string) string

	// -----------------------------------------------------------------------------

	// RemoveHandler deregisters by id. Unknown ids are a silent no-op; the
	// return value reports whether a handler was actually removed. Safe to
	// call from inside a running handler.
	RemoveHandler(id string) bool

	// -----------------------------------------------------------------------------

	// Dispatch parses a raw frame and invokes every registered handler in
	// registration order. Malformed frames are logged and dropped.
	Dispatch(raw []byte)

	// -----------------------------------------------------------------------------

	// HandlerCount returns the number of registered handlers.
	HandlerCount() int

	// -----------------------------------------------------------------------------

	// Stats returns dispatch counters
	Stats() models.MRouterStats
}
