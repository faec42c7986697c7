package stats

import (
	"context"
	"testing"
	"time"

	"github.com/prepairo/adpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCounters_NilClientIsNoOp(t *testing.T) {
	c := NewCounters(nil, zap.NewNop())

	// Must not panic with Redis disabled.
	c.RecordInstalls(context.Background(), map[models.Channel]int{
		models.ChannelGoogleAds: 3,
	})

	count, err := c.GetDailyCount(context.Background(), models.ChannelGoogleAds, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestChannelKey(t *testing.T) {
	assert.Equal(t,
		"stats:installs:GOOGLE_ADS:2025-06-01",
		channelKey(models.ChannelGoogleAds, "2025-06-01"))
}
