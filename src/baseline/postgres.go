package baseline

import (
	"context"
	"database/sql"
	"fmt"

	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresStore persists baselines in a schema named after the app so
// multiple deployments can share one database.
type PostgresStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

var _ interfaces.IBaselineStore = (*PostgresStore)(nil)

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	return &PostgresStore{
		Config: cfg,
		Schema: cfg.Name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (s *PostgresStore) Initialize() error {
	dsn := s.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	s.DB = db

	// Create Schema
	if _, err := s.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, s.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", s.Schema, err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."baselines" (
			namespace TEXT,
			symbol TEXT,
			value DOUBLE PRECISION,
			day_stamp TEXT,
			stored_at TIMESTAMPTZ,
			PRIMARY KEY (namespace, symbol)
		);
	`, s.Schema)
	if _, err := s.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create baselines table: %w", err)
	}

	s.Logger.Info("PostgresStore initialized successfully (Schema: %s)", s.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (s *PostgresStore) Put(ctx context.Context, entry models.MBaselineEntry) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."baselines" (namespace, symbol, value, day_stamp, stored_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace, symbol) DO UPDATE SET
			value = excluded.value,
			day_stamp = excluded.day_stamp,
			stored_at = excluded.stored_at
	`, s.Schema)

	_, err := s.DB.ExecContext(ctx, query, entry.Namespace, entry.Symbol, entry.Value, entry.DayStamp, entry.StoredAt.UTC())
	return err
}

// -----------------------------------------------------------------------------

func (s *PostgresStore) Get(ctx context.Context, namespace, symbol string) (models.MBaselineEntry, bool, error) {
	query := fmt.Sprintf(`
		SELECT namespace, symbol, value, day_stamp, stored_at
		FROM "%s"."baselines"
		WHERE namespace = $1 AND symbol = $2
	`, s.Schema)

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

func (s *PostgresStore) Delete(ctx context.Context, namespace, symbol string) error {
	query := fmt.Sprintf(`DELETE FROM "%s"."baselines" WHERE namespace = $1 AND symbol = $2`, s.Schema)
	_, err := s.DB.ExecContext(ctx, query, namespace, symbol)
	return err
}

// -----------------------------------------------------------------------------

func (s *PostgresStore) PurgeStale(ctx context.Context, namespace, dayStamp string) (int, error) {
	query := fmt.Sprintf(`DELETE FROM "%s"."baselines" WHERE namespace = $1 AND day_stamp != $2`, s.Schema)
	res, err := s.DB.ExecContext(ctx, query, namespace, dayStamp)
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

func (s *PostgresStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
