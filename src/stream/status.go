package stream

// -----------------------------------------------------------------------------
// Connection states
// -----------------------------------------------------------------------------

// ConnState is the lifecycle state of the upstream connection. Offline is
// terminal: the manager never dials again until a new one is built.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateDegraded
	StateOffline
)

// -----------------------------------------------------------------------------

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------

// live reports whether the transport is usable in this state. Degraded
// still reads and writes; only the freshness guarantee is gone.
func (s ConnState) live() bool {
	return s == StateConnected || s == StateDegraded
}
