package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"trade-streamer/src/helpers"
	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	maxFrameSize = 1024 * 1024 // 1MB for larger JSON frames
)

// -----------------------------------------------------------------------------
// ConnectionManager
// -----------------------------------------------------------------------------

type statusEntry struct {
	id string
	fn func(status models.MStreamStatus)
}

// ConnectionManager owns the single upstream websocket connection.
// Every received frame goes to the router in wire order; heartbeat acks
// are consumed here and never dispatched. Connection failures schedule a
// capped-exponential reconnect, and once the attempt cap is exhausted
// the manager goes offline for good.
type ConnectionManager struct {
	Config *models.MConfig
	Logger *logger.Logger
	Router interfaces.IMessageRouter
	Dialer interfaces.IStreamDialer
	Errors *helpers.ErrorHandler

	// Derived from config once
	baseDelay         time.Duration
	maxDelay          time.Duration
	maxAttempts       int
	dialTimeout       time.Duration
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	mu     sync.Mutex
	state  ConnState
	conn   interfaces.IStreamConn
	closed bool

	// session invalidates goroutines of a torn-down connection
	session uint64

	attempt   int
	nextDelay time.Duration

	reconnectTimer *time.Timer
	ackTimer       *time.Timer
	heartbeatStop  chan struct{}

	connectedAt    time.Time
	lastFrameAt    time.Time
	lastProbeAt    time.Time
	lastAckAt      time.Time
	framesReceived uint64

	listeners []statusEntry

	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewConnectionManager(cfg *models.MConfig, log *logger.Logger, router interfaces.IMessageRouter, dialer interfaces.IStreamDialer) *ConnectionManager {
	return &ConnectionManager{
		Config:            cfg,
		Logger:            log,
		Router:            router,
		Dialer:            dialer,
		Errors:            helpers.NewErrorHandler(log),
		state:             StateDisconnected,
		baseDelay:         time.Duration(cfg.Stream.Reconnect.BaseDelayMs) * time.Millisecond,
		maxDelay:          time.Duration(cfg.Stream.Reconnect.MaxDelayMs) * time.Millisecond,
		maxAttempts:       cfg.Stream.Reconnect.MaxAttempts,
		dialTimeout:       time.Duration(cfg.Stream.DialTimeoutSeconds) * time.Second,
		heartbeatInterval: time.Duration(cfg.Stream.HeartbeatIntervalSeconds) * time.Second,
		heartbeatTimeout:  time.Duration(cfg.Stream.HeartbeatTimeoutSeconds) * time.Second,
		now:               time.Now,
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Connect starts a dial attempt unless one is running, the stream is
// already up, or the manager is closed or offline. Also fired by the
// reconnect timer.
func (m *ConnectionManager) Connect() {
	m.mu.Lock()
	if m.closed || m.state == StateOffline || m.state == StateConnecting || m.state.live() {
		m.mu.Unlock()
		return
	}
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.state = StateConnecting
	m.nextDelay = 0
	session := m.session
	status, listeners := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(listeners, status)
	go m.dial(session)
}

// -----------------------------------------------------------------------------

func (m *ConnectionManager) dial(session uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), m.dialTimeout)
	defer cancel()

	conn, err := m.Dialer.Dial(ctx, m.Config.Stream.URL)

	m.mu.Lock()
	if m.closed || session != m.session {
		m.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		m.Errors.Handle("dial", err)
		status, listeners := m.scheduleRetryLocked()
		m.mu.Unlock()
		m.notify(listeners, status)
		return
	}

	m.conn = conn
	m.attempt = 0
	m.nextDelay = 0
	now := m.now()
	m.connectedAt = now
	m.lastAckAt = now
	m.lastProbeAt = time.Time{}
	m.state = StateConnected
	stop := make(chan struct{})
	m.heartbeatStop = stop
	status, listeners := m.snapshotLocked()
	m.mu.Unlock()

	m.Logger.Info("Connected to %s", m.Config.Stream.URL)
	m.notify(listeners, status)

	go m.readLoop(conn, session)
	go m.heartbeatLoop(conn, session, stop)
}

// -----------------------------------------------------------------------------

// Close tears everything down unconditionally: transport, heartbeat
// timers and any pending reconnect. No reconnection is scheduled after.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.teardownLocked()
	if m.state != StateOffline {
		m.state = StateDisconnected
	}
	m.nextDelay = 0
	status, listeners := m.snapshotLocked()
	m.mu.Unlock()

	m.Logger.Info("Stream client closed")
	m.notify(listeners, status)
}

// -----------------------------------------------------------------------------

// teardownLocked closes the live transport and invalidates the session
// so goroutines of the old connection cannot touch the new state.
func (m *ConnectionManager) teardownLocked() {
	m.session++
	if m.heartbeatStop != nil {
		close(m.heartbeatStop)
		m.heartbeatStop = nil
	}
	if m.ackTimer != nil {
		m.ackTimer.Stop()
		m.ackTimer = nil
	}
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

// -----------------------------------------------------------------------------
// Reconnection
// -----------------------------------------------------------------------------

// BackoffDelay is min(base * 2^attempt, maxDelay).
func BackoffDelay(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		// Shift would overflow long before this
		return maxDelay
	}
	delay := base << uint(attempt)
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// -----------------------------------------------------------------------------

// scheduleRetryLocked handles one connection failure: either arms the
// next reconnect timer or, once the attempt cap is reached, goes
// offline terminally. The attempt counter feeds the delay computation
// first and is incremented after scheduling.
func (m *ConnectionManager) scheduleRetryLocked() (models.MStreamStatus, []statusEntry) {
	if m.attempt >= m.maxAttempts {
		m.state = StateOffline
		m.nextDelay = 0
		m.Logger.Error("Giving up after %d failed attempts, stream offline until restart", m.attempt)
		return m.snapshotLocked()
	}

	delay := BackoffDelay(m.attempt, m.baseDelay, m.maxDelay)
	m.state = StateDisconnected
	m.nextDelay = delay
	m.reconnectTimer = time.AfterFunc(delay, m.Connect)
	m.Logger.Info("Reconnecting in %v (attempt %d/%d)", delay, m.attempt+1, m.maxAttempts)
	m.attempt++

	return m.snapshotLocked()
}

// -----------------------------------------------------------------------------
// Read path
// -----------------------------------------------------------------------------

func (m *ConnectionManager) readLoop(conn interfaces.IStreamConn, session uint64) {
	conn.SetReadLimit(maxFrameSize)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.handleTransportError(session, err)
			return
		}

		m.mu.Lock()
		if m.closed || session != m.session {
			m.mu.Unlock()
			return
		}
		m.lastFrameAt = m.now()
		m.framesReceived++
		m.mu.Unlock()

		if m.interceptAck(raw) {
			continue
		}

		// Single reader goroutine, so handlers see frames in wire order
		m.Router.Dispatch(raw)
	}
}

// -----------------------------------------------------------------------------

func (m *ConnectionManager) handleTransportError(session uint64, err error) {
	m.mu.Lock()
	if m.closed || session != m.session {
		m.mu.Unlock()
		return
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		m.Logger.Info("Stream closed by peer: %v", err)
	} else {
		m.Errors.Handle("transport", err)
	}

	m.teardownLocked()
	status, listeners := m.scheduleRetryLocked()
	m.mu.Unlock()

	m.notify(listeners, status)
}

// -----------------------------------------------------------------------------

// interceptAck consumes heartbeat acks so they never reach handlers.
// A late ack on a degraded stream restores the connected state.
func (m *ConnectionManager) interceptAck(raw []byte) bool {
	// Quick check before paying for a parse
	if !bytes.Contains(raw, []byte(`"pong"`)) {
		return false
	}

	var hb models.MHeartbeat
	if err := json.Unmarshal(raw, &hb); err != nil || hb.Type != models.FramePong {
		return false
	}

	m.mu.Lock()
	m.lastAckAt = m.now()
	restored := m.state == StateDegraded
	if restored {
		m.state = StateConnected
	}
	var status models.MStreamStatus
	var listeners []statusEntry
	if restored {
		status, listeners = m.snapshotLocked()
	}
	m.mu.Unlock()

	if restored {
		m.Logger.Info("Heartbeat ack received, stream healthy again")
		m.notify(listeners, status)
	}
	return true
}

// -----------------------------------------------------------------------------
// Heartbeat
// -----------------------------------------------------------------------------

func (m *ConnectionManager) heartbeatLoop(conn interfaces.IStreamConn, session uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.sendProbe(conn, session)
		}
	}
}

// -----------------------------------------------------------------------------

func (m *ConnectionManager) sendProbe(conn interfaces.IStreamConn, session uint64) {
	m.mu.Lock()
	if m.closed || session != m.session || !m.state.live() {
		m.mu.Unlock()
		return
	}
	probeAt := m.now()
	m.lastProbeAt = probeAt
	if m.ackTimer != nil {
		m.ackTimer.Stop()
	}
	m.ackTimer = time.AfterFunc(m.heartbeatTimeout, func() {
		m.checkAck(session, probeAt)
	})
	m.mu.Unlock()

	payload, _ := json.Marshal(models.MHeartbeat{Type: models.FramePing, Timestamp: probeAt.UnixMilli()})
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		// The read loop surfaces the broken transport soon enough
		m.Logger.Warning("Heartbeat write failed: %v", err)
	}
}

// -----------------------------------------------------------------------------

// checkAck marks the stream degraded when a probe went unanswered. The
// connection stays up and keeps probing, so this is a soft signal only.
func (m *ConnectionManager) checkAck(session uint64, probeAt time.Time) {
	m.mu.Lock()
	if m.closed || session != m.session || m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	if !m.lastAckAt.Before(probeAt) {
		// Ack arrived in time
		m.mu.Unlock()
		return
	}
	m.state = StateDegraded
	status, listeners := m.snapshotLocked()
	m.mu.Unlock()

	m.Logger.Warning("No heartbeat ack within %v, stream degraded", m.heartbeatTimeout)
	m.notify(listeners, status)
}

// -----------------------------------------------------------------------------
// Status surface
// -----------------------------------------------------------------------------

// AddStatusListener registers a callback fired on every state change.
func (m *ConnectionManager) AddStatusListener(fn func(status models.MStreamStatus)) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.listeners = append(m.listeners, statusEntry{id: id, fn: fn})
	m.mu.Unlock()
	return id
}

// -----------------------------------------------------------------------------

// RemoveStatusListener deregisters by id. Unknown ids are a no-op.
func (m *ConnectionManager) RemoveStatusListener(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, l := range m.listeners {
		if l.id == id {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

func (m *ConnectionManager) Status() models.MStreamStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// -----------------------------------------------------------------------------

// State returns the current connection state.
func (m *ConnectionManager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// -----------------------------------------------------------------------------

// snapshotLocked builds the status snapshot plus the listener list to
// notify once the lock is released. Listeners are never called while
// the manager lock is held.
func (m *ConnectionManager) snapshotLocked() (models.MStreamStatus, []statusEntry) {
	listeners := make([]statusEntry, len(m.listeners))
	copy(listeners, m.listeners)
	return m.statusLocked(), listeners
}

// -----------------------------------------------------------------------------

func (m *ConnectionManager) statusLocked() models.MStreamStatus {
	return models.MStreamStatus{
		State:          m.state.String(),
		URL:            m.Config.Stream.URL,
		Attempt:        m.attempt,
		NextRetryInMs:  m.nextDelay.Milliseconds(),
		ConnectedAt:    unixMilliOrZero(m.connectedAt),
		LastFrameAt:    unixMilliOrZero(m.lastFrameAt),
		LastProbeAt:    unixMilliOrZero(m.lastProbeAt),
		LastAckAt:      unixMilliOrZero(m.lastAckAt),
		FramesReceived: m.framesReceived,
	}
}

// -----------------------------------------------------------------------------

func (m *ConnectionManager) notify(listeners []statusEntry, status models.MStreamStatus) {
	for _, l := range listeners {
		l.fn(status)
	}
}

// -----------------------------------------------------------------------------

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
