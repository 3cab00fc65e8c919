package interfaces

// -----------------------------------------------------------------------------
// IMonitorExchanger defines the contract for the monitor-facing surface
// (REST endpoints plus websocket fan-out).
// -----------------------------------------------------------------------------

type IMonitorExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast queues one self-describing frame for monitor clients.
	// Never blocks the caller; a full queue drops the frame.
	Broadcast(frameType string, payload interface{})

	// -----------------------------------------------------------------------------
	// Start the server. Blocks until the listener fails.
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
