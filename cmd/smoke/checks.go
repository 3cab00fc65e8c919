package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trade-streamer/src/logger"
	"trade-streamer/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Probe
// -----------------------------------------------------------------------------

// Probe drives the smoke checks against a running streamer instance.
type Probe struct {
	apiBase string
	wsURL   string
	Logger  *logger.Logger
	client  *http.Client
}

// -----------------------------------------------------------------------------

func NewProbe(apiBase, wsURL string, log *logger.Logger) *Probe {
	return &Probe{
		apiBase: apiBase,
		wsURL:   wsURL,
		Logger:  log,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// -----------------------------------------------------------------------------

func (p *Probe) getJSON(path string, out interface{}) error {
	resp, err := p.client.Get(p.apiBase + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned http %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// -----------------------------------------------------------------------------
// REST checks
// -----------------------------------------------------------------------------

// CheckHealth expects the server up and the stream in a live state.
func (p *Probe) CheckHealth() error {
	var body struct {
		Status      string `json:"status"`
		StreamState string `json:"stream_state"`
		Frames      uint64 `json:"frames"`
	}
	if err := p.getJSON("/api/health", &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("status %q", body.Status)
	}
	p.Logger.Info("Stream %s, %d frames received", body.StreamState, body.Frames)
	if body.StreamState != "connected" && body.StreamState != "degraded" {
		return fmt.Errorf("stream state %q, expected a live connection", body.StreamState)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (p *Probe) CheckStatus() error {
	var body struct {
		Stream models.MStreamStatus `json:"stream"`
		Router models.MRouterStats  `json:"router"`
	}
	if err := p.getJSON("/api/status", &body); err != nil {
		return err
	}
	if body.Router.Handlers == 0 {
		return fmt.Errorf("no frame handlers registered")
	}
	p.Logger.Info("Router: %d handlers, %d dispatched, %d dropped, %d faults",
		body.Router.Handlers, body.Router.Dispatched, body.Router.Dropped, body.Router.HandlerFaults)
	return nil
}

// -----------------------------------------------------------------------------

func (p *Probe) CheckQuotes() error {
	var rows []models.MQuoteRow
	if err := p.getJSON("/api/quotes", &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no quote rows yet, is the feed running?")
	}
	for _, row := range rows {
		if row.ReferenceKind != models.RefPriorClose && row.ReferenceKind != models.RefSessionStart {
			return fmt.Errorf("row %s has reference kind %q", row.Symbol, row.ReferenceKind)
		}
	}
	first := rows[0]
	p.Logger.Info("%d quote rows, %s last %.2f (%+.2f%% vs %s)",
		len(rows), first.Symbol, first.Last, first.DayChangePct, first.ReferenceKind)
	return nil
}

// -----------------------------------------------------------------------------

func (p *Probe) CheckTotals() error {
	var totals models.MPortfolioTotals
	if err := p.getJSON("/api/totals", &totals); err != nil {
		return err
	}
	p.Logger.Info("%d positions, PnL %.2f, net delta %.2f",
		totals.PositionCount, totals.UnrealizedPnL, totals.NetDelta)
	return nil
}

// -----------------------------------------------------------------------------

func (p *Probe) CheckOrders() error {
	var events []models.MOrderEvent
	if err := p.getJSON("/api/orders?limit=5", &events); err != nil {
		return err
	}
	if len(events) > 5 {
		return fmt.Errorf("limit ignored, got %d events", len(events))
	}
	p.Logger.Info("%d recent order events", len(events))
	return nil
}

// -----------------------------------------------------------------------------
// Monitor stream check
// -----------------------------------------------------------------------------

// CheckMonitorStream subscribes to quote frames only and watches for a
// while. Any other frame type delivered after the grace window means
// the subscribe filter is broken.
func (p *Probe) CheckMonitorStream(watch time.Duration) error {
	conn, _, err := websocket.DefaultDialer.Dial(p.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.wsURL, err)
	}
	defer conn.Close()

	// The first frame is always the connection status snapshot
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var first struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&first); err != nil {
		return fmt.Errorf("read status frame: %w", err)
	}
	if first.Type != models.FrameConnectionStatus {
		return fmt.Errorf("expected a %s frame first, got %q", models.FrameConnectionStatus, first.Type)
	}

	sub := models.MMonitorCommand{Command: "subscribe", Types: []string{models.FrameQuoteUpdate}}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	// The filter applies on the server's read pump, frames of other
	// types may still be in flight right after the subscribe
	grace := time.Now().Add(time.Second)

	quotes := 0
	deadline := time.Now().Add(watch)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		var frame struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			break
		}
		if frame.Type == models.FrameQuoteUpdate {
			quotes++
			continue
		}
		if time.Now().After(grace) {
			return fmt.Errorf("received a %s frame after subscribing to quotes only", frame.Type)
		}
	}

	if quotes == 0 {
		return fmt.Errorf("no quote frames within %v", watch)
	}
	p.Logger.Info("%d quote frames over %v", quotes, watch)
	return nil
}
