package stream

import (
	"fmt"
	"sync"

	"trade-streamer/src/helpers"
	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// HandlerRegistry
// -----------------------------------------------------------------------------

type handlerEntry struct {
	id  string
	tag string
	fn  func(msg *models.MStreamMessage)
}

// HandlerRegistry fans every parsed frame out to all registered handlers
// in registration order. Dispatch iterates a snapshot taken under the
// lock, so handlers may add or remove handlers (themselves included)
// mid-pass; such changes apply from the next frame on. A panicking
// handler is logged and skipped without affecting the others.
type HandlerRegistry struct {
	Logger *logger.Logger

	mu      sync.Mutex
	entries []handlerEntry

	dispatched uint64
	dropped    uint64
	faults     uint64
}

var _ interfaces.IMessageRouter = (*HandlerRegistry)(nil)

// -----------------------------------------------------------------------------

func NewHandlerRegistry(log *logger.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// AddHandler registers a callback under a fresh opaque id.
func (r *HandlerRegistry) AddHandler(handler func(msg *models.MStreamMessage), tag string) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.entries = append(r.entries, handlerEntry{id: id, tag: tag, fn: handler})
	r.mu.Unlock()

	r.Logger.Debug("Handler registered: %s (%s)", tag, id)
	return id
}

// -----------------------------------------------------------------------------

// RemoveHandler deregisters by id. Unknown ids are a no-op.
func (r *HandlerRegistry) RemoveHandler(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		if entry.id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// Dispatch parses the raw frame and invokes every handler registered at
// this moment. Malformed frames are dropped with a log line; the
// connection that produced them is untouched.
func (r *HandlerRegistry) Dispatch(raw []byte) {
	msg, err := models.ParseStreamMessage(raw)
	if err != nil {
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		r.Logger.Warning("Dropping %v", helpers.NewFrameError(fmt.Sprintf("malformed frame (%d bytes)", len(raw)), err))
		return
	}

	r.mu.Lock()
	snapshot := make([]handlerEntry, len(r.entries))
	copy(snapshot, r.entries)
	r.dispatched++
	r.mu.Unlock()

	for _, entry := range snapshot {
		r.invoke(entry, msg)
	}
}

// -----------------------------------------------------------------------------

// invoke runs one handler with panic isolation.
func (r *HandlerRegistry) invoke(entry handlerEntry, msg *models.MStreamMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.mu.Lock()
			r.faults++
			r.mu.Unlock()
			fault := helpers.NewHandlerFaultError(
				fmt.Sprintf("handler %s panicked on %s frame", entry.tag, msg.Type),
				fmt.Errorf("%v", rec),
			)
			r.Logger.Error("%v", fault)
		}
	}()

	entry.fn(msg)
}

// -----------------------------------------------------------------------------

func (r *HandlerRegistry) HandlerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// -----------------------------------------------------------------------------

func (r *HandlerRegistry) Stats() models.MRouterStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return models.MRouterStats{
		Handlers:      len(r.entries),
		Dispatched:    r.dispatched,
		Dropped:       r.dropped,
		HandlerFaults: r.faults,
	}
}
