package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
)

const alertsSchema = `
	CREATE TABLE IF NOT EXISTS alerts (
		id          UUID PRIMARY KEY,
		emitted_at  TIMESTAMPTZ NOT NULL,
		cycle       BIGINT NOT NULL,
		market_key  TEXT NOT NULL,
		direction   TEXT NOT NULL,
		edge_bps    DOUBLE PRECISION NOT NULL,
		confidence  DOUBLE PRECISION NOT NULL,
		bucket      TEXT NOT NULL,
		payload     JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS alerts_emitted_at_idx ON alerts (emitted_at DESC);`

// DB is the subset of *pgxpool.Pool the store uses
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresConfig holds PostgreSQL connection parameters
type PostgresConfig struct {
	DSN      string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
}

// ConnString builds a PostgreSQL connection string from the config
func (c PostgresConfig) ConnString() string {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, port, c.Database, sslMode)
}

// Connect opens and pings a pgx connection pool
func Connect(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// PostgresStore keeps alerts in an append-only table
type PostgresStore struct {
	db     DB
	logger zerolog.Logger
}

// NewPostgresStore creates a new Postgres alert store
func NewPostgresStore(db DB, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger.With().Str("component", "postgres_alert_store").Logger(),
	}
}

// Migrate creates the alerts table if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, alertsSchema); err != nil {
		return fmt.Errorf("failed to create alerts table: %w", err)
	}
	return nil
}

// SaveAlert inserts an alert; an existing id is left untouched
func (s *PostgresStore) SaveAlert(ctx context.Context, alert models.Alert) error {
	const query = `
		INSERT INTO alerts (
			id, emitted_at, cycle, market_key, direction,
			edge_bps, confidence, bucket, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	_, err = s.db.Exec(ctx, query,
		alert.ID, alert.EmittedAt, int64(alert.Cycle), alert.MappingKey, string(alert.Direction),
		alert.EdgeBps, alert.Confidence, string(alert.Bucket), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert %s: %w", alert.ID, err)
	}
	return nil
}

// ListRecentAlerts returns at most limit alerts ordered by emission time
func (s *PostgresStore) ListRecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		return nil, nil
	}

	const query = `SELECT payload FROM alerts ORDER BY emitted_at DESC LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		var alert models.Alert
		if err := json.Unmarshal(payload, &alert); err != nil {
			s.logger.Warn().Err(err).Msg("failed to unmarshal alert payload")
			continue
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}
