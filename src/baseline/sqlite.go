package baseline

import (
	"context"
	"database/sql"
	"fmt"

	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteStore persists baselines in a local SQLite file so they survive
// restarts within the same day.
type SQLiteStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

var _ interfaces.IBaselineStore = (*SQLiteStore)(nil)

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteStore, error) {
	return &SQLiteStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (s *SQLiteStore) Initialize() error {
	dsn := s.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	s.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		s.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		s.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	// Baselines must survive restarts, so no drop here
	query := `
		CREATE TABLE IF NOT EXISTS baselines (
			namespace TEXT,
			symbol TEXT,
			value REAL,
			day_stamp TEXT,
			stored_at TIMESTAMP,
			PRIMARY KEY (namespace, symbol)
		);
	`
	if _, err := s.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create baselines table: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLiteStore) Put(ctx context.Context, entry models.MBaselineEntry) error {
	query := `
		INSERT INTO baselines (namespace, symbol, value, day_stamp, stored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (namespace, symbol) DO UPDATE SET
			value = excluded.value,
			day_stamp = excluded.day_stamp,
			stored_at = excluded.stored_at
	`
	_, err := s.DB.ExecContext(ctx, query, entry.Namespace, entry.Symbol, entry.Value, entry.DayStamp, entry.StoredAt.UTC())
	return err
}

// -----------------------------------------------------------------------------

func (s *SQLiteStore) Get(ctx context.Context, namespace, symbol string) (models.MBaselineEntry, bool, error) {
	query := `
		SELECT namespace, symbol, value, day_stamp, stored_at
		FROM baselines
		WHERE namespace = ? AND symbol = ?
	`

	var entry models.MBaselineEntry
	row := s.DB.QueryRowContext(ctx, query, namespace, symbol)
	err := row.Scan(&entry.Namespace, &entry.Symbol, &entry.Value, &entry.DayStamp, &entry.StoredAt)
	if err == sql.ErrNoRows {
		return models.MBaselineEntry{}, false, nil
	}
	if err != nil {
		return models.MBaselineEntry{}, false, err
	}

	return entry, true, nil
}

// -----------------------------------------------------------------------------

func (s *SQLiteStore) Delete(ctx context.Context, namespace, symbol string) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM baselines WHERE namespace = ? AND symbol = ?", namespace, symbol)
	return err
}

// -----------------------------------------------------------------------------

func (s *SQLiteStore) PurgeStale(ctx context.Context, namespace, dayStamp string) (int, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM baselines WHERE namespace = ? AND day_stamp != ?", namespace, dayStamp)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// -----------------------------------------------------------------------------

func (s *SQLiteStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
