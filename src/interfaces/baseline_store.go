package interfaces

import (
	"context"

	"trade-streamer/src/models"
)

// -----------------------------------------------------------------------------
// IBaselineStore defines the contract for baseline persistence backends.
// -----------------------------------------------------------------------------

type IBaselineStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the backend (schema, connection checks).
	Initialize() error

	// -----------------------------------------------------------------------------

	// Put stores or overwrites one baseline entry.
	Put(ctx context.Context, entry models.MBaselineEntry) error

	// -----------------------------------------------------------------------------

	// Get returns the entry for (namespace, symbol). The boolean reports
	// whether an entry exists; validity checks belong to the caller.
	Get(ctx context.Context, namespace, symbol string) (models.MBaselineEntry, bool, error)

	// -----------------------------------------------------------------------------

	// Delete removes the entry for (namespace, symbol) if present.
	Delete(ctx context.Context, namespace, symbol string) error

	// -----------------------------------------------------------------------------

	// PurgeStale removes every entry in the namespace whose day stamp does
	// not match the given one. Returns the number of entries removed.
	PurgeStale(ctx context.Context, namespace, dayStamp string) (int, error)

	// -----------------------------------------------------------------------------

	// Close the backend connection
	Close() error
}
