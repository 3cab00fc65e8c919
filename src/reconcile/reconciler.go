package reconcile

import (
	"sync"
	"time"

	"trade-streamer/src/logger"
	"trade-streamer/src/models"
)

// -----------------------------------------------------------------------------
// Reconciler
// -----------------------------------------------------------------------------

// Reconciler folds full-state position entries into the row store and
// recomputes portfolio totals by rescanning every row after each batch.
// The rescan keeps totals independent of update order and re-delivery,
// so a duplicated frame cannot double-count.
type Reconciler struct {
	Store  *RowStore
	Logger *logger.Logger

	mu     sync.RWMutex
	totals models.MPortfolioTotals

	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewReconciler(store *RowStore, log *logger.Logger) *Reconciler {
	return &Reconciler{
		Store:  store,
		Logger: log,
		now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

// ApplyBatch applies one position update: closed entries drop their
// row, everything else overwrites, then totals are recomputed.
func (r *Reconciler) ApplyBatch(entries []models.MPositionEntry) models.MPortfolioTotals {
	ts := r.now()
	for _, entry := range entries {
		if entry.Status == models.PositionClosed {
			if r.Store.Remove(entry.EntityID) {
				r.Logger.Debug("Removed closed position %s (%s)", entry.EntityID, entry.Symbol)
			}
			continue
		}
		r.Store.Apply(rowFromEntry(entry, ts))
	}
	return r.Recompute()
}

// -----------------------------------------------------------------------------

// Recompute rebuilds the totals from every stored row. Never
// incremental.
func (r *Reconciler) Recompute() models.MPortfolioTotals {
	rows := r.Store.Snapshot()

	totals := models.MPortfolioTotals{ComputedAt: r.now()}
	for _, row := range rows {
		totals.UnrealizedPnL += row.UnrealizedPnL
		totals.NetDelta += row.Delta
		totals.NetGamma += row.Gamma
		totals.NetTheta += row.Theta
		totals.NetVega += row.Vega
	}
	totals.PositionCount = len(rows)

	r.mu.Lock()
	r.totals = totals
	r.mu.Unlock()

	return totals
}

// -----------------------------------------------------------------------------

// Totals returns the aggregates from the last recompute.
func (r *Reconciler) Totals() models.MPortfolioTotals {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totals
}

// -----------------------------------------------------------------------------

// Rows returns the current rows sorted by entity id.
func (r *Reconciler) Rows() []models.MPositionRow {
	return r.Store.Snapshot()
}

// -----------------------------------------------------------------------------

func rowFromEntry(entry models.MPositionEntry, ts time.Time) models.MPositionRow {
	return models.MPositionRow{
		EntityID:      entry.EntityID,
		Symbol:        entry.Symbol,
		Description:   entry.Description,
		Quantity:      entry.Quantity,
		AvgPrice:      entry.AvgPrice,
		Mark:          entry.Mark,
		UnrealizedPnL: entry.UnrealizedPnL,
		Delta:         entry.Delta,
		Gamma:         entry.Gamma,
		Theta:         entry.Theta,
		Vega:          entry.Vega,
		UpdatedAt:     ts,
	}
}
