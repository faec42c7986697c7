package snapshot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prepairo/adpulse/internal/models"
)

// InMemoryStore keeps snapshots in memory, ordered by capture time per
// account. It backs tests and degraded runs where Postgres is down (the
// trend baseline is then lost between processes, which the report flow
// already tolerates).
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]*models.MetricSnapshot
}

// NewInMemoryStore creates a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		snapshots: make(map[string][]*models.MetricSnapshot),
	}
}

func (s *InMemoryStore) Save(ctx context.Context, snap *models.MetricSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.snapshots[snap.AccountID] {
		if existing.CapturedAt.Equal(snap.CapturedAt) {
			return ErrDuplicateSnapshot
		}
	}

	list := append(s.snapshots[snap.AccountID], snap.Clone())
	sort.Slice(list, func(i, j int) bool {
		return list[i].CapturedAt.Before(list[j].CapturedAt)
	})
	s.snapshots[snap.AccountID] = list
	return nil
}

func (s *InMemoryStore) GetPrevious(ctx context.Context, accountID string, before time.Time) (*models.MetricSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.snapshots[accountID]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].CapturedAt.Before(before) {
			return list[i].Clone(), nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) Prune(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for account, list := range s.snapshots {
		kept := list[:0]
		for _, snap := range list {
			if snap.CapturedAt.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, snap)
		}
		if len(kept) == 0 {
			delete(s.snapshots, account)
			continue
		}
		s.snapshots[account] = kept
	}
	return deleted, nil
}
