package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepairo/adpulse/internal/models"
)

// Schema creates the snapshot table. Applied by cmd/migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS metric_snapshots (
	id          UUID PRIMARY KEY,
	account_id  TEXT NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL,
	metrics     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (account_id, captured_at)
);
CREATE INDEX IF NOT EXISTS idx_metric_snapshots_account_time
	ON metric_snapshots (account_id, captured_at DESC);
`

const pgUniqueViolation = "23505"

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed snapshot store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the snapshot table and index if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create snapshot schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, snap *models.MetricSnapshot) error {
	id := snap.ID
	if id == "" {
		id = uuid.NewString()
	}

	metricsJSON, err := json.Marshal(snap.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO metric_snapshots (id, account_id, captured_at, metrics)
		VALUES ($1, $2, $3, $4)
	`, id, snap.AccountID, snap.CapturedAt, metricsJSON)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("account %s at %s: %w",
				snap.AccountID, snap.CapturedAt.Format(time.RFC3339), ErrDuplicateSnapshot)
		}
		return fmt.Errorf("save snapshot: %w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) GetPrevious(ctx context.Context, accountID string, before time.Time) (*models.MetricSnapshot, error) {
	var (
		snap        models.MetricSnapshot
		metricsJSON []byte
	)

	err := s.pool.QueryRow(ctx, `
		SELECT id, account_id, captured_at, metrics
		FROM metric_snapshots
		WHERE account_id = $1 AND captured_at < $2
		ORDER BY captured_at DESC
		LIMIT 1
	`, accountID, before).Scan(&snap.ID, &snap.AccountID, &snap.CapturedAt, &metricsJSON)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get previous snapshot: %w: %v", ErrUnavailable, err)
	}

	if err := json.Unmarshal(metricsJSON, &snap.Metrics); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot metrics: %w", err)
	}
	return &snap, nil
}

func (s *PostgresStore) Prune(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	tag, err := s.pool.Exec(ctx, `
		DELETE FROM metric_snapshots WHERE captured_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w: %v", ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}
