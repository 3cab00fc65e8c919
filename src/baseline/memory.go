package baseline

import (
	"context"
	"sync"

	"trade-streamer/src/interfaces"
	"trade-streamer/src/models"
)

// -----------------------------------------------------------------------------
// MemoryStore
// -----------------------------------------------------------------------------

// MemoryStore keeps baselines in process memory. Used with db_type
// "memory" and as the store for tests; entries do not survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.MBaselineEntry
}

var _ interfaces.IBaselineStore = (*MemoryStore)(nil)

// -----------------------------------------------------------------------------

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]models.MBaselineEntry),
	}
}

// -----------------------------------------------------------------------------

func (s *MemoryStore) Initialize() error {
	return nil
}

// -----------------------------------------------------------------------------

func (s *MemoryStore) Put(ctx context.Context, entry models.MBaselineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entryKey(entry.Namespace, entry.Symbol)] = entry
	return nil
}

// -----------------------------------------------------------------------------

func (s *MemoryStore) Get(ctx context.Context, namespace, symbol string) (models.MBaselineEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[entryKey(namespace, symbol)]
	return entry, ok, nil
}

// -----------------------------------------------------------------------------

func (s *MemoryStore) Delete(ctx context.Context, namespace, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, entryKey(namespace, symbol))
	return nil
}

// -----------------------------------------------------------------------------

func (s *MemoryStore) PurgeStale(ctx context.Context, namespace, dayStamp string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.Namespace == namespace && entry.DayStamp != dayStamp {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// -----------------------------------------------------------------------------

func (s *MemoryStore) Close() error {
	return nil
}

// -----------------------------------------------------------------------------

func entryKey(namespace, symbol string) string {
	return namespace + ":" + symbol
}
