package consumers

import (
	"context"
	"sort"
	"sync"
	"time"

	"trade-streamer/src/baseline"
	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"
)

// -----------------------------------------------------------------------------
// DashboardConsumer
// -----------------------------------------------------------------------------

// DashboardConsumer maintains the per-symbol quote rows with their
// day-over-day change values. The reference price comes from the
// baseline cache when a value for the current day exists; otherwise the
// first price seen this session serves as a lower-confidence fallback,
// labeled as such so readers can tell the two apart.
type DashboardConsumer struct {
	Cache  *baseline.Cache
	Logger *logger.Logger

	ctx       context.Context
	handlerID string

	mu          sync.RWMutex
	rows        map[string]models.MQuoteRow
	sessionRefs map[string]float64

	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewDashboardConsumer(ctx context.Context, cache *baseline.Cache, log *logger.Logger) *DashboardConsumer {
	return &DashboardConsumer{
		Cache:       cache,
		Logger:      log,
		ctx:         ctx,
		rows:        make(map[string]models.MQuoteRow),
		sessionRefs: make(map[string]float64),
		now:         time.Now,
	}
}

// -----------------------------------------------------------------------------

func (c *DashboardConsumer) Register(router interfaces.IMessageRouter) {
	c.handlerID = router.AddHandler(c.OnMessage, "dashboard")
}

// -----------------------------------------------------------------------------

func (c *DashboardConsumer) Unregister(router interfaces.IMessageRouter) {
	if c.handlerID != "" {
		router.RemoveHandler(c.handlerID)
		c.handlerID = ""
	}
}

// -----------------------------------------------------------------------------

// OnMessage filters for quote and baseline frames, everything else is
// someone else's business.
func (c *DashboardConsumer) OnMessage(msg *models.MStreamMessage) {
	switch msg.Type {
	case models.FrameQuoteUpdate:
		var q models.MQuoteUpdate
		if err := msg.Decode(&q); err != nil {
			c.Logger.Warning("Skipping malformed quote payload: %v", err)
			return
		}
		if q.Symbol == "" {
			return
		}
		c.applyQuote(q)

	case models.FrameBaselineUpdate:
		var b models.MBaselineUpdate
		if err := msg.Decode(&b); err != nil {
			c.Logger.Warning("Skipping malformed baseline payload: %v", err)
			return
		}
		if b.Symbol == "" {
			return
		}
		c.applyBaseline(b)
	}
}

// -----------------------------------------------------------------------------

func (c *DashboardConsumer) applyQuote(q models.MQuoteUpdate) {
	// Cache consulted per quote so a mid-session day rollover degrades
	// to the session fallback on its own
	refVal, refOK := c.Cache.Get(c.ctx, q.Symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	row, exists := c.rows[q.Symbol]
	if !exists {
		row = models.MQuoteRow{
			Symbol:      q.Symbol,
			SessionOpen: q.Last,
			SessionHigh: q.Last,
			SessionLow:  q.Last,
		}
		if _, seen := c.sessionRefs[q.Symbol]; !seen {
			c.sessionRefs[q.Symbol] = q.Last
		}
	}

	row.Bid = q.Bid
	row.Ask = q.Ask
	row.Last = q.Last
	row.Volume = q.Volume
	if q.Last > row.SessionHigh {
		row.SessionHigh = q.Last
	}
	if q.Last < row.SessionLow {
		row.SessionLow = q.Last
	}

	if refOK {
		applyReference(&row, refVal, models.RefPriorClose)
	} else {
		applyReference(&row, c.sessionRefs[q.Symbol], models.RefSessionStart)
	}

	row.UpdatedAt = q.Timestamp
	if row.UpdatedAt == 0 {
		row.UpdatedAt = c.now().UnixMilli()
	}

	c.rows[q.Symbol] = row
}

// -----------------------------------------------------------------------------

func (c *DashboardConsumer) applyBaseline(b models.MBaselineUpdate) {
	if err := c.Cache.Set(c.ctx, b.Symbol, b.PrevClose); err != nil {
		// Cache already logged, keep the in-memory row untouched
		return
	}

	c.mu.Lock()
	row, exists := c.rows[b.Symbol]
	if exists {
		applyReference(&row, b.PrevClose, models.RefPriorClose)
		c.rows[b.Symbol] = row
	}
	c.mu.Unlock()

	if exists {
		c.Logger.Debug("Reference for %s upgraded to prior close %.4f", b.Symbol, b.PrevClose)
	}
}

// -----------------------------------------------------------------------------

// applyReference recomputes the change columns against a new reference.
func applyReference(row *models.MQuoteRow, ref float64, kind string) {
	row.Reference = ref
	row.ReferenceKind = kind
	row.DayChange = row.Last - ref
	if ref != 0 {
		row.DayChangePct = (row.Last - ref) / ref * 100
	} else {
		row.DayChangePct = 0
	}
}

// -----------------------------------------------------------------------------

// Rows returns all quote rows sorted by symbol.
func (c *DashboardConsumer) Rows() []models.MQuoteRow {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows := make([]models.MQuoteRow, 0, len(c.rows))
	for _, row := range c.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Symbol < rows[j].Symbol
	})
	return rows
}

// -----------------------------------------------------------------------------

func (c *DashboardConsumer) Row(symbol string) (models.MQuoteRow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	row, ok := c.rows[symbol]
	return row, ok
}
