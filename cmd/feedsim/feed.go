package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"trade-streamer/src/logger"
	"trade-streamer/src/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// FeedSimulator
// -----------------------------------------------------------------------------

type FeedSimulator struct {
	Logger *logger.Logger

	symbols  []string
	interval time.Duration
	chaos    bool

	upgrader websocket.Upgrader

	mu     sync.Mutex
	prices map[string]float64
	closes map[string]float64
	netLiq float64
	rng    *rand.Rand
}

// -----------------------------------------------------------------------------

func NewFeedSimulator(symbols []string, interval time.Duration, chaos bool, log *logger.Logger) *FeedSimulator {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	prices := make(map[string]float64, len(symbols))
	closes := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		base := 50 + rng.Float64()*400
		prices[sym] = base
		// Prior close within a couple percent of the opening price
		closes[sym] = base * (0.98 + rng.Float64()*0.04)
	}

	return &FeedSimulator{
		Logger:   log,
		symbols:  symbols,
		interval: interval,
		chaos:    chaos,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		prices: prices,
		closes: closes,
		netLiq: 100000,
		rng:    rng,
	}
}

// -----------------------------------------------------------------------------

// HandleStream upgrades and serves one feed connection.
func (f *FeedSimulator) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.Logger.Warning("Upgrade failed: %v", err)
		return
	}

	f.Logger.Info("Client connected from %s", r.RemoteAddr)
	go f.serve(conn)
}

// -----------------------------------------------------------------------------

func (f *FeedSimulator) serve(conn *websocket.Conn) {
	defer conn.Close()

	send := make(chan []byte, 64)
	stop := make(chan struct{})

	// Writer: single goroutine owns outbound writes
	go func() {
		for msg := range send {
			conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	// Reader: answers app-level pings
	go func() {
		defer close(stop)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			f.handleInbound(raw, send)
		}
	}()

	// Baselines first so consumers get authoritative references up front
	for _, sym := range f.symbols {
		f.enqueue(send, f.baselineFrame(sym))
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	defer close(send)

	tick := 0
	for {
		select {
		case <-stop:
			f.Logger.Info("Client disconnected")
			return

		case <-ticker.C:
			if f.chaos && f.rng.Float64() < 0.005 {
				f.Logger.Warning("Chaos: dropping connection")
				conn.Close()
				continue
			}
			if f.chaos && f.rng.Float64() < 0.02 {
				f.enqueue(send, []byte(`{"type":`))
			}

			sym := f.symbols[f.rng.Intn(len(f.symbols))]
			f.enqueue(send, f.quoteFrame(sym))

			tick++
			if tick%5 == 0 {
				f.enqueue(send, f.positionFrame())
			}
			if tick%7 == 0 {
				f.enqueue(send, f.orderFrame())
			}
			if tick%10 == 0 {
				f.enqueue(send, f.accountFrame())
			}
		}
	}
}

// -----------------------------------------------------------------------------

// enqueue drops the frame when the client cannot keep up.
func (f *FeedSimulator) enqueue(send chan<- []byte, payload []byte) {
	select {
	case send <- payload:
	default:
	}
}

// -----------------------------------------------------------------------------

func (f *FeedSimulator) handleInbound(raw []byte, send chan<- []byte) {
	var probe models.MHeartbeat
	if err := json.Unmarshal(raw, &probe); err != nil {
		return
	}
	if probe.Type != models.FramePing {
		return
	}

	pong, _ := json.Marshal(models.MHeartbeat{
		Type:      models.FramePong,
		Timestamp: probe.Timestamp,
	})
	f.enqueue(send, pong)
}

// -----------------------------------------------------------------------------
// Frame builders
// -----------------------------------------------------------------------------

func (f *FeedSimulator) quoteFrame(sym string) []byte {
	f.mu.Lock()
	price := f.prices[sym]
	price += (f.rng.Float64() - 0.5) * price * 0.002
	if price < 1 {
		price = 1
	}
	f.prices[sym] = price
	volume := float64(100 + f.rng.Intn(5000))
	f.mu.Unlock()

	spread := price * 0.0005
	frame := struct {
		Type string `json:"type"`
		models.MQuoteUpdate
	}{
		Type: models.FrameQuoteUpdate,
		MQuoteUpdate: models.MQuoteUpdate{
			Symbol:    sym,
			Bid:       price - spread,
			Ask:       price + spread,
			Last:      price,
			Volume:    volume,
			Timestamp: time.Now().UnixMilli(),
		},
	}
	payload, _ := json.Marshal(frame)
	return payload
}

// -----------------------------------------------------------------------------

func (f *FeedSimulator) baselineFrame(sym string) []byte {
	f.mu.Lock()
	prevClose := f.closes[sym]
	f.mu.Unlock()

	frame := struct {
		Type string `json:"type"`
		models.MBaselineUpdate
	}{
		Type: models.FrameBaselineUpdate,
		MBaselineUpdate: models.MBaselineUpdate{
			Symbol:    sym,
			PrevClose: prevClose,
			Timestamp: time.Now().UnixMilli(),
		},
	}
	payload, _ := json.Marshal(frame)
	return payload
}

// -----------------------------------------------------------------------------

func (f *FeedSimulator) positionFrame() []byte {
	f.mu.Lock()
	entries := make([]models.MPositionEntry, 0, len(f.symbols))
	for _, sym := range f.symbols {
		mark := f.prices[sym]
		qty := float64(10 * (1 + f.rng.Intn(10)))
		avg := mark * (0.97 + f.rng.Float64()*0.06)

		status := models.PositionOpen
		if f.rng.Float64() < 0.1 {
			// Occasionally close one out, the next frame reopens it
			status = models.PositionClosed
		}

		entries = append(entries, models.MPositionEntry{
			EntityID:      "P-" + sym,
			Symbol:        sym,
			Description:   sym + " equity",
			Quantity:      qty,
			AvgPrice:      avg,
			Mark:          mark,
			UnrealizedPnL: (mark - avg) * qty,
			Delta:         qty,
			Gamma:         0,
			Theta:         0,
			Vega:          0,
			Status:        status,
		})
	}
	f.mu.Unlock()

	frame := struct {
		Type string `json:"type"`
		models.MPositionUpdate
	}{
		Type: models.FramePositionUpdate,
		MPositionUpdate: models.MPositionUpdate{
			Positions: entries,
			Timestamp: time.Now().UnixMilli(),
		},
	}
	payload, _ := json.Marshal(frame)
	return payload
}

// -----------------------------------------------------------------------------

func (f *FeedSimulator) orderFrame() []byte {
	f.mu.Lock()
	sym := f.symbols[f.rng.Intn(len(f.symbols))]
	price := f.prices[sym]
	side := "buy"
	if f.rng.Float64() < 0.5 {
		side = "sell"
	}
	statuses := []string{"new", "working", "filled", "canceled"}
	status := statuses[f.rng.Intn(len(statuses))]
	qty := float64(1 + f.rng.Intn(100))
	f.mu.Unlock()

	filled := 0.0
	if status == "filled" {
		filled = qty
	}

	frame := struct {
		Type string `json:"type"`
		models.MOrderEvent
	}{
		Type: models.FrameOrderStatus,
		MOrderEvent: models.MOrderEvent{
			OrderID:    uuid.NewString(),
			Symbol:     sym,
			Side:       side,
			Quantity:   qty,
			Filled:     filled,
			LimitPrice: price,
			Status:     status,
			Timestamp:  time.Now().UnixMilli(),
		},
	}
	payload, _ := json.Marshal(frame)
	return payload
}

// -----------------------------------------------------------------------------

func (f *FeedSimulator) accountFrame() []byte {
	f.mu.Lock()
	f.netLiq += (f.rng.Float64() - 0.5) * 500
	netLiq := f.netLiq
	f.mu.Unlock()

	frame := struct {
		Type string `json:"type"`
		models.MAccountState
	}{
		Type: models.FrameAccountUpdate,
		MAccountState: models.MAccountState{
			NetLiq:      netLiq,
			Cash:        netLiq * 0.4,
			BuyingPower: netLiq * 2,
			DayPnL:      netLiq - 100000,
			Timestamp:   time.Now().UnixMilli(),
		},
	}
	payload, _ := json.Marshal(frame)
	return payload
}
