package server

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"trade-streamer/src/consumers"
	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"
	"trade-streamer/src/reconcile"
	"trade-streamer/src/stream"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// StatusServer
// -----------------------------------------------------------------------------

// StatusServer exposes the reconciled state over REST and relays the
// raw frame stream plus connection status changes to monitor clients
// over its own websocket endpoint.
type StatusServer struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	Stream     *stream.ConnectionManager
	Router     interfaces.IMessageRouter
	Dashboard  *consumers.DashboardConsumer
	Reconciler *reconcile.Reconciler
	Orders     *consumers.OrdersConsumer
	Account    *consumers.AccountConsumer
	engine     *gin.Engine

	// Monitor clients
	clients    map[*Client]struct{}
	clientsMu  sync.RWMutex
	broadcast  chan *outboundFrame // Buffered queue, hub never blocks producers
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}

	relayID    string
	listenerID string

	startedAt time.Time
}

var _ interfaces.IMonitorExchanger = (*StatusServer)(nil)

// outboundFrame is one queued monitor message. Relayed frames carry the
// raw upstream bytes; status frames carry a typed struct. Both are
// self-describing JSON with a "type" field.
type outboundFrame struct {
	frameType string
	payload   interface{}
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewStatusServer(cfg *models.MConfig, logger *logger.Logger, mgr *stream.ConnectionManager, router interfaces.IMessageRouter,
	dashboard *consumers.DashboardConsumer, rec *reconcile.Reconciler, orders *consumers.OrdersConsumer, account *consumers.AccountConsumer) *StatusServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &StatusServer{
		Config:     cfg,
		Logger:     logger,
		Stream:     mgr,
		Router:     router,
		Dashboard:  dashboard,
		Reconciler: rec,
		Orders:     orders,
		Account:    account,
		engine:     gin.Default(),
		clients:    make(map[*Client]struct{}),
		// Queue size of 256 absorbs bursts without blocking the dispatcher
		broadcast:  make(chan *outboundFrame, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		startedAt:  time.Now(),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *StatusServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/status", s.getStatus)
	s.engine.GET("/api/quotes", s.getQuotes)
	s.engine.GET("/api/quotes/:symbol", s.getQuote)
	s.engine.GET("/api/positions", s.getPositions)
	s.engine.GET("/api/totals", s.getTotals)
	s.engine.GET("/api/orders", s.getOrders)
	s.engine.GET("/api/account", s.getAccount)
	s.engine.GET("/api/config", s.getConfig)

	// WebSocket endpoint for monitor clients
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *StatusServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting status server on %s", addr)

	s.attachFeeds()
	go s.runHub()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *StatusServer) Stop() error {
	// Detach first so no new frames enter the queue, then end the hub
	s.detachFeeds()
	close(s.stop)
	return nil
}

// -----------------------------------------------------------------------------
// Feed wiring
// -----------------------------------------------------------------------------

// attachFeeds registers the relay with the frame router and the status
// listener with the stream manager. Both producers enqueue without
// blocking, a full queue drops the frame for monitors only.
func (s *StatusServer) attachFeeds() {
	s.relayID = s.Router.AddHandler(func(msg *models.MStreamMessage) {
		s.Broadcast(msg.Type, msg.Raw)
	}, "monitor-relay")

	s.listenerID = s.Stream.AddStatusListener(func(status models.MStreamStatus) {
		s.Broadcast(models.FrameConnectionStatus, statusFrame(status))
	})
}

// -----------------------------------------------------------------------------

func (s *StatusServer) detachFeeds() {
	if s.relayID != "" {
		s.Router.RemoveHandler(s.relayID)
		s.relayID = ""
	}
	if s.listenerID != "" {
		s.Stream.RemoveStatusListener(s.listenerID)
		s.listenerID = ""
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues a frame for monitor clients without ever blocking
// the caller.
func (s *StatusServer) Broadcast(frameType string, payload interface{}) {
	frame := &outboundFrame{frameType: frameType, payload: payload}
	select {
	case s.broadcast <- frame:
	default:
		s.Logger.Warning("Monitor queue full, dropping %s frame", frameType)
	}
}

// -----------------------------------------------------------------------------

func statusFrame(status models.MStreamStatus) models.MStatusFrame {
	return models.MStatusFrame{
		Type:      models.FrameConnectionStatus,
		Status:    status,
		Timestamp: time.Now().UnixMilli(),
	}
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *StatusServer) getHealth(c *gin.Context) {
	s.clientsMu.RLock()
	connections := len(s.clients)
	s.clientsMu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := s.Stream.Status()
	c.JSON(200, gin.H{
		"status":         "ok",
		"stream_state":   status.State,
		"frames":         status.FramesReceived,
		"last_frame_at":  status.LastFrameAt,
		"connections":    connections,
		"heap_mb":        mem.HeapAlloc / 1024 / 1024,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	})
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getStatus(c *gin.Context) {
	c.JSON(200, gin.H{
		"stream": s.Stream.Status(),
		"router": s.Router.Stats(),
	})
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getQuotes(c *gin.Context) {
	c.JSON(200, s.Dashboard.Rows())
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getQuote(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	row, ok := s.Dashboard.Row(symbol)
	if !ok {
		c.JSON(404, gin.H{"error": fmt.Sprintf("no quote for %s", symbol)})
		return
	}
	c.JSON(200, row)
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getPositions(c *gin.Context) {
	c.JSON(200, s.Reconciler.Rows())
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getTotals(c *gin.Context) {
	c.JSON(200, s.Reconciler.Totals())
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getOrders(c *gin.Context) {
	limit := s.Config.Monitor.RecentOrdersCap
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	c.JSON(200, s.Orders.Recent(limit))
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getAccount(c *gin.Context) {
	state, seen := s.Account.State()
	if !seen {
		c.JSON(404, gin.H{"error": "no account snapshot received yet"})
		return
	}
	c.JSON(200, state)
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getConfig(c *gin.Context) {
	// Sanitized view, connection strings and passwords never leave
	c.JSON(200, gin.H{
		"name":                       s.Config.Name,
		"stream_url":                 s.Config.Stream.URL,
		"storage":                    s.Config.Storage.DBType,
		"calendar_mic":               s.Config.Calendar.MIC,
		"heartbeat_interval_seconds": s.Config.Stream.HeartbeatIntervalSeconds,
		"reconnect_max_attempts":     s.Config.Stream.Reconnect.MaxAttempts,
	})
}
