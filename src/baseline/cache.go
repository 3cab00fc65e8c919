package baseline

import (
	"context"
	"fmt"
	"time"

	"trade-streamer/src/helpers"
	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"
	"trade-streamer/src/utils"
)

// -----------------------------------------------------------------------------
// Cache
// -----------------------------------------------------------------------------

// Cache holds per-symbol baseline values scoped to the current exchange
// calendar day. Reads on a later day see nothing: the stale entry is
// purged on access and absent is reported. Expiry is checked on read,
// never by timer.
type Cache struct {
	Store     interfaces.IBaselineStore
	Calendar  *utils.TradingCalendar
	Namespace string
	Logger    *logger.Logger

	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewCache(store interfaces.IBaselineStore, cal *utils.TradingCalendar, namespace string, log *logger.Logger) *Cache {
	return &Cache{
		Store:     store,
		Calendar:  cal,
		Namespace: namespace,
		Logger:    log,
		now:       time.Now,
	}
}

// -----------------------------------------------------------------------------

// Set stores or overwrites the baseline for a symbol, stamped with the
// current calendar day.
func (c *Cache) Set(ctx context.Context, symbol string, value float64) error {
	entry := models.MBaselineEntry{
		Namespace: c.Namespace,
		Symbol:    symbol,
		Value:     value,
		DayStamp:  c.todayKey(),
		StoredAt:  c.now(),
	}

	if err := c.Store.Put(ctx, entry); err != nil {
		storeErr := helpers.NewStorageError(fmt.Sprintf("store baseline for %s", symbol), err)
		c.Logger.Error("%v", storeErr)
		return storeErr
	}

	c.Logger.Debug("Baseline stored for %s: %.4f (day %s)", symbol, value, entry.DayStamp)
	return nil
}

// -----------------------------------------------------------------------------

// Get returns the baseline for a symbol if one was stored today. A stale
// entry is deleted and reported absent. Storage failures also report
// absent so callers fall back instead of breaking.
func (c *Cache) Get(ctx context.Context, symbol string) (float64, bool) {
	entry, found, err := c.Store.Get(ctx, c.Namespace, symbol)
	if err != nil {
		c.Logger.Warning("Baseline lookup failed for %s: %v", symbol, err)
		return 0, false
	}
	if !found {
		return 0, false
	}

	if entry.DayStamp != c.todayKey() {
		// Stale entry from a previous day, purge on access
		if err := c.Store.Delete(ctx, c.Namespace, symbol); err != nil {
			c.Logger.Warning("Failed to purge stale baseline for %s: %v", symbol, err)
		} else {
			c.Logger.Debug("Purged stale baseline for %s (stamped %s)", symbol, entry.DayStamp)
		}
		return 0, false
	}

	return entry.Value, true
}

// -----------------------------------------------------------------------------

// PurgeStale removes every entry in the namespace not stamped today.
// Startup hygiene; per-read purging keeps the cache correct without it.
func (c *Cache) PurgeStale(ctx context.Context) int {
	removed, err := c.Store.PurgeStale(ctx, c.Namespace, c.todayKey())
	if err != nil {
		c.Logger.Warning("Baseline purge failed: %v", err)
		return 0
	}
	if removed > 0 {
		c.Logger.Info("Purged %d stale baseline entries", removed)
	}
	return removed
}

// -----------------------------------------------------------------------------

func (c *Cache) todayKey() string {
	return c.Calendar.DayKey(c.now())
}
