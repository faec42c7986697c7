package delta

import (
	"testing"
	"time"

	"github.com/prepairo/adpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(metrics map[string]float64) *models.MetricSnapshot {
	return &models.MetricSnapshot{
		AccountID:  "act_1",
		CapturedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Metrics:    metrics,
	}
}

func TestCompute_FirstRun(t *testing.T) {
	current := snap(map[string]float64{"spend": 100.0, "installs": 10})

	deltas := Compute(current, nil)

	require.Len(t, deltas, 2)
	for name, d := range deltas {
		assert.Nil(t, d.Previous, "previous for %s", name)
		assert.Nil(t, d.Absolute, "absolute for %s", name)
		assert.Nil(t, d.Percent, "percent for %s", name)
		assert.False(t, d.FromZero, "from_zero for %s", name)
	}
	assert.Equal(t, 100.0, deltas["spend"].Current)
	assert.Equal(t, 10.0, deltas["installs"].Current)
}

func TestCompute_NormalTrend(t *testing.T) {
	prev := snap(map[string]float64{"spend": 100.0})
	curr := snap(map[string]float64{"spend": 150.0})

	d := Compute(curr, prev)["spend"]

	require.NotNil(t, d.Previous)
	require.NotNil(t, d.Absolute)
	require.NotNil(t, d.Percent)
	assert.Equal(t, 150.0, d.Current)
	assert.Equal(t, 100.0, *d.Previous)
	assert.Equal(t, 50.0, *d.Absolute)
	assert.Equal(t, 50.0, *d.Percent)
}

func TestCompute_IdenticalSnapshots(t *testing.T) {
	s := snap(map[string]float64{"spend": 42.5, "clicks": 7, "coupons": 0})

	deltas := Compute(s, s)

	for _, name := range []string{"spend", "clicks"} {
		d := deltas[name]
		require.NotNil(t, d.Absolute, name)
		require.NotNil(t, d.Percent, name)
		assert.Equal(t, 0.0, *d.Absolute, name)
		assert.Equal(t, 0.0, *d.Percent, name)
	}

	// 0-to-0 is "no change", not "undefined increase".
	zero := deltas["coupons"]
	require.NotNil(t, zero.Absolute)
	assert.Equal(t, 0.0, *zero.Absolute)
	assert.Nil(t, zero.Percent)
	assert.False(t, zero.FromZero)
}

func TestCompute_ZeroBaselineGrowth(t *testing.T) {
	prev := snap(map[string]float64{"installs": 0})
	curr := snap(map[string]float64{"installs": 5})

	d := Compute(curr, prev)["installs"]

	require.NotNil(t, d.Absolute)
	assert.Equal(t, 5.0, *d.Absolute)
	assert.Nil(t, d.Percent)
	assert.True(t, d.FromZero)
}

func TestCompute_MetricIntroduced(t *testing.T) {
	prev := snap(map[string]float64{"spend": 100.0})
	curr := snap(map[string]float64{"spend": 100.0, "registrations": 12})

	d := Compute(curr, prev)["registrations"]

	assert.Equal(t, 12.0, d.Current)
	assert.Nil(t, d.Previous, "absent prior key must not become zero")
	assert.Nil(t, d.Absolute)
	assert.Nil(t, d.Percent)
	assert.False(t, d.FromZero)
}

func TestCompute_MetricDisappears(t *testing.T) {
	prev := snap(map[string]float64{"coupons": 10})
	curr := snap(map[string]float64{})

	d, ok := Compute(curr, prev)["coupons"]
	require.True(t, ok, "removed metric must still be reported")

	require.NotNil(t, d.Previous)
	require.NotNil(t, d.Absolute)
	require.NotNil(t, d.Percent)
	assert.Equal(t, 0.0, d.Current)
	assert.Equal(t, 10.0, *d.Previous)
	assert.Equal(t, -10.0, *d.Absolute)
	assert.Equal(t, -100.0, *d.Percent)
}

func TestCompute_Rounding(t *testing.T) {
	prev := snap(map[string]float64{"spend": 3})
	curr := snap(map[string]float64{"spend": 4})

	d := Compute(curr, prev)["spend"]

	require.NotNil(t, d.Percent)
	require.NotNil(t, d.PercentExact)
	assert.Equal(t, 33.33, *d.Percent)
	assert.InDelta(t, 33.333333, *d.PercentExact, 1e-6)
	assert.NotEqual(t, *d.Percent, *d.PercentExact)
}

func TestCompute_NegativeTrend(t *testing.T) {
	prev := snap(map[string]float64{"installs": 40})
	curr := snap(map[string]float64{"installs": 30})

	d := Compute(curr, prev)["installs"]

	require.NotNil(t, d.Absolute)
	require.NotNil(t, d.Percent)
	assert.Equal(t, -10.0, *d.Absolute)
	assert.Equal(t, -25.0, *d.Percent)
	assert.False(t, d.FromZero)
}
