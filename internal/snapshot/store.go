// Package snapshot persists dated metric snapshots per ad account and
// serves the "most recent snapshot strictly before T" lookup the trend
// computation depends on.
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/prepairo/adpulse/internal/models"
)

// ErrDuplicateSnapshot is returned by Save when a snapshot already exists
// for the same (account_id, captured_at) pair. Existing rows are never
// overwritten; callers should capture with finer-grained timestamps.
var ErrDuplicateSnapshot = errors.New("snapshot already exists for account and capture time")

// ErrUnavailable wraps backend failures (unreachable database, query
// errors). Callers are expected to degrade: skip trend computation and
// still deliver current-period metrics.
var ErrUnavailable = errors.New("snapshot storage unavailable")

// Store is the persistence contract for metric snapshots. Any backend
// with key-ordered lookup by (account_id, captured_at) and range deletion
// by age can satisfy it.
type Store interface {
	// Save inserts a new snapshot. It never overwrites: a collision on
	// (account_id, captured_at) fails with ErrDuplicateSnapshot.
	Save(ctx context.Context, snap *models.MetricSnapshot) error

	// GetPrevious returns the snapshot for the account with the greatest
	// captured_at strictly before the given time, or (nil, nil) when no
	// such snapshot exists. The first run of a new account hits that
	// path; it is not an error.
	GetPrevious(ctx context.Context, accountID string, before time.Time) (*models.MetricSnapshot, error)

	// Prune deletes snapshots older than the retention window across all
	// accounts and returns the number of rows removed.
	Prune(ctx context.Context, olderThanDays int) (int64, error)
}
