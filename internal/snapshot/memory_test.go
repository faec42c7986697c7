package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/prepairo/adpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnap(account string, at time.Time, metrics map[string]float64) *models.MetricSnapshot {
	return &models.MetricSnapshot{
		ID:         "snap-" + at.Format("150405"),
		AccountID:  account,
		CapturedAt: at,
		Metrics:    metrics,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	at := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	saved := testSnap("act_1", at, map[string]float64{"spend": 100.0, "installs": 10})
	require.NoError(t, store.Save(ctx, saved))

	got, err := store.GetPrevious(ctx, "act_1", at.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.AccountID, got.AccountID)
	assert.True(t, saved.CapturedAt.Equal(got.CapturedAt))
	assert.Equal(t, saved.Metrics, got.Metrics)
}

func TestStore_GetPrevious_StrictlyBefore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	at := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, testSnap("act_1", at, map[string]float64{"spend": 1})))

	// A snapshot at exactly T is not "before T".
	got, err := store.GetPrevious(ctx, "act_1", at)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_GetPrevious_PicksMostRecent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, spend := range []float64{10, 20, 30} {
		at := base.Add(time.Duration(i) * 6 * time.Hour)
		require.NoError(t, store.Save(ctx, testSnap("act_1", at, map[string]float64{"spend": spend})))
	}

	got, err := store.GetPrevious(ctx, "act_1", base.Add(13*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 30.0, got.Metrics["spend"])

	got, err = store.GetPrevious(ctx, "act_1", base.Add(7*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 20.0, got.Metrics["spend"])
}

func TestStore_GetPrevious_EmptyAccount(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	got, err := store.GetPrevious(ctx, "act_none", time.Now())
	require.NoError(t, err, "no prior snapshot is the expected first-run condition, not an error")
	assert.Nil(t, got)
}

func TestStore_DuplicateSave(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	at := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, testSnap("act_1", at, map[string]float64{"spend": 1})))

	err := store.Save(ctx, testSnap("act_1", at, map[string]float64{"spend": 2}))
	assert.ErrorIs(t, err, ErrDuplicateSnapshot)

	// Same timestamp on another account is fine.
	assert.NoError(t, store.Save(ctx, testSnap("act_2", at, map[string]float64{"spend": 3})))
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	now := time.Now().UTC()
	old := testSnap("act_1", now.AddDate(0, 0, -45), map[string]float64{"spend": 1})
	recent := testSnap("act_1", now.Add(-time.Hour), map[string]float64{"spend": 2})
	otherOld := testSnap("act_2", now.AddDate(0, 0, -31), map[string]float64{"spend": 3})
	require.NoError(t, store.Save(ctx, old))
	require.NoError(t, store.Save(ctx, recent))
	require.NoError(t, store.Save(ctx, otherOld))

	deleted, err := store.Prune(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted, "prune crosses account boundaries")

	got, err := store.GetPrevious(ctx, "act_1", now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2.0, got.Metrics["spend"])

	got, err = store.GetPrevious(ctx, "act_2", now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_SaveCopiesMetrics(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	at := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	metrics := map[string]float64{"spend": 100}
	require.NoError(t, store.Save(ctx, testSnap("act_1", at, metrics)))

	// Mutating the caller's map must not reach persisted state.
	metrics["spend"] = 999

	got, err := store.GetPrevious(ctx, "act_1", at.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100.0, got.Metrics["spend"])
}
