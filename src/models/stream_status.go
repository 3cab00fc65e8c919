package models

// -----------------------------------------------------------------------------
// Connection status surface
// -----------------------------------------------------------------------------

// MStreamStatus is the snapshot handed to status listeners and served on
// the diagnostics API. State is one of the lowercase badge names
// (connecting, connected, degraded, disconnected, offline).
type MStreamStatus struct {
	State          string `json:"state"`
	URL            string `json:"url"`
	Attempt        int    `json:"attempt"`
	NextRetryInMs  int64  `json:"next_retry_in_ms"`
	ConnectedAt    int64  `json:"connected_at"`
	LastFrameAt    int64  `json:"last_frame_at"`
	LastProbeAt    int64  `json:"last_probe_at"`
	LastAckAt      int64  `json:"last_ack_at"`
	FramesReceived uint64 `json:"frames_received"`
}

// MStatusFrame is the connection_status frame relayed to monitor clients.
type MStatusFrame struct {
	Type      string        `json:"type"`
	Status    MStreamStatus `json:"status"`
	Timestamp int64         `json:"ts"`
}

// -----------------------------------------------------------------------------
// Router counters
// -----------------------------------------------------------------------------

type MRouterStats struct {
	Handlers      int    `json:"handlers"`
	Dispatched    uint64 `json:"dispatched"`
	Dropped       uint64 `json:"dropped"`
	HandlerFaults uint64 `json:"handler_faults"`
}

// -----------------------------------------------------------------------------
// MonitorCommand for monitor client messages
// -----------------------------------------------------------------------------

type MMonitorCommand struct {
	Command string   `json:"command"`
	Types   []string `json:"types"`
}

// MHeartbeat is the app-level probe/ack frame exchanged with upstream.
type MHeartbeat struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"ts"`
}
