package report

import (
	"strings"
	"testing"
	"time"

	"github.com/prepairo/adpulse/internal/attribution"
	"github.com/prepairo/adpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestSignificantChanges_Threshold(t *testing.T) {
	deltas := map[string]models.Delta{
		"spend":    {Metric: "spend", Current: 150, Previous: fp(100), Absolute: fp(50), Percent: fp(50), PercentExact: fp(50)},
		"clicks":   {Metric: "clicks", Current: 110, Previous: fp(100), Absolute: fp(10), Percent: fp(10), PercentExact: fp(10)},
		"installs": {Metric: "installs", Current: 5, Previous: fp(0), Absolute: fp(5), FromZero: true},
	}

	flagged := SignificantChanges(deltas, 20, 100)

	require.Len(t, flagged, 2)
	assert.Equal(t, "installs", flagged[0].Metric, "zero-baseline growth is always significant")
	assert.Equal(t, "spend", flagged[1].Metric)
}

func TestSignificantChanges_NegativeSwing(t *testing.T) {
	deltas := map[string]models.Delta{
		"spend":  {Metric: "spend", Current: 200, Previous: fp(190), Absolute: fp(10), Percent: fp(5.26), PercentExact: fp(5.263)},
		"clicks": {Metric: "clicks", Current: 50, Previous: fp(100), Absolute: fp(-50), Percent: fp(-50), PercentExact: fp(-50)},
	}

	flagged := SignificantChanges(deltas, 20, 100)

	require.Len(t, flagged, 1)
	assert.Equal(t, "clicks", flagged[0].Metric)
}

func TestSignificantChanges_SpendFloorSuppresses(t *testing.T) {
	deltas := map[string]models.Delta{
		"spend":  {Metric: "spend", Current: 12, Previous: fp(2), Absolute: fp(10), Percent: fp(500), PercentExact: fp(500)},
		"clicks": {Metric: "clicks", Current: 30, Previous: fp(10), Absolute: fp(20), Percent: fp(200), PercentExact: fp(200)},
	}

	assert.Empty(t, SignificantChanges(deltas, 20, 100),
		"tiny accounts swing wildly in percent terms, nothing should be flagged")
}

func TestRenderText_FullReport(t *testing.T) {
	s := Summary{
		AccountID: "act_42",
		Since:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Until:     time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC),
		Deltas: map[string]models.Delta{
			"spend":    {Metric: "spend", Current: 150.5, Previous: fp(100), Absolute: fp(50.5), Percent: fp(50.5), PercentExact: fp(50.5)},
			"installs": {Metric: "installs", Current: 12},
		},
		Significant: []models.Delta{
			{Metric: "spend", Current: 150.5, Previous: fp(100), Absolute: fp(50.5), Percent: fp(50.5)},
		},
		Installs: attribution.Breakdown{
			Total: 12,
			ByChannel: map[models.Channel]int{
				models.ChannelGoogleAds:    8,
				models.ChannelDirectNotSet: 4,
			},
			ByCampaign: map[string]int{"summer_push": 8},
		},
	}

	text := RenderText(s)

	assert.Contains(t, text, "AdPulse report for act_42")
	assert.Contains(t, text, "spend: 150.50 (+50.50, +50.50%)")
	assert.Contains(t, text, "installs: 12 (no prior data)")
	assert.Contains(t, text, "! spend")
	assert.Contains(t, text, "Installs by channel (12 total):")
	assert.Contains(t, text, "GOOGLE_ADS: 8")
	assert.Contains(t, text, "summer_push: 8")

	// Channels ordered by descending count.
	assert.Less(t,
		strings.Index(text, "GOOGLE_ADS"),
		strings.Index(text, "DIRECT_NOT_SET"))
}

func TestRenderText_TrendNoteAndOmittedSections(t *testing.T) {
	s := Summary{
		AccountID: "act_42",
		Since:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Until:     time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC),
		Deltas: map[string]models.Delta{
			"spend": {Metric: "spend", Current: 99},
		},
		TrendNote: "trend data unavailable (snapshot store unreachable)",
	}

	text := RenderText(s)

	assert.Contains(t, text, "Note: trend data unavailable")
	assert.NotContains(t, text, "Significant changes:")
	assert.NotContains(t, text, "Installs by channel")
}

func TestRenderText_Deterministic(t *testing.T) {
	s := Summary{
		AccountID: "act_1",
		Deltas: map[string]models.Delta{
			"spend":       {Metric: "spend", Current: 1},
			"clicks":      {Metric: "clicks", Current: 2},
			"impressions": {Metric: "impressions", Current: 3},
		},
	}

	first := RenderText(s)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, RenderText(s))
	}
}

func TestFormatDelta_ZeroToZero(t *testing.T) {
	d := models.Delta{Metric: "purchases", Current: 0, Previous: fp(0), Absolute: fp(0)}
	assert.Equal(t, "0 (no change)", formatDelta(d))
}

func TestFormatDelta_FromZero(t *testing.T) {
	d := models.Delta{Metric: "installs", Current: 5, Previous: fp(0), Absolute: fp(5), FromZero: true}
	assert.Equal(t, "5 (up from 0)", formatDelta(d))
}
