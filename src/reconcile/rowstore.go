package reconcile

import (
	"sort"
	"sync"

	"trade-streamer/src/models"
)

// -----------------------------------------------------------------------------
// RowStore
// -----------------------------------------------------------------------------

// RowStore holds the current position rows keyed by entity id. Each
// incoming entry carries the full row state, so updates overwrite.
type RowStore struct {
	mu   sync.RWMutex
	rows map[string]models.MPositionRow
}

// -----------------------------------------------------------------------------

func NewRowStore() *RowStore {
	return &RowStore{
		rows: make(map[string]models.MPositionRow),
	}
}

// -----------------------------------------------------------------------------

// Apply inserts or overwrites the row for its entity id.
func (s *RowStore) Apply(row models.MPositionRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.EntityID] = row
}

// -----------------------------------------------------------------------------

// Remove drops the row for the entity id, reporting whether it existed.
func (s *RowStore) Remove(entityID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[entityID]; !ok {
		return false
	}
	delete(s.rows, entityID)
	return true
}

// -----------------------------------------------------------------------------

func (s *RowStore) Get(entityID string) (models.MPositionRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[entityID]
	return row, ok
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of all rows sorted by entity id.
func (s *RowStore) Snapshot() []models.MPositionRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]models.MPositionRow, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].EntityID < rows[j].EntityID
	})
	return rows
}

// -----------------------------------------------------------------------------

func (s *RowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
