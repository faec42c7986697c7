// Package stats keeps rolling daily per-channel install counters in
// Redis. The counters are best-effort operational telemetry; every
// write fails open so a Redis outage never blocks a report cycle.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/prepairo/adpulse/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const counterTTL = 40 * 24 * time.Hour

// Counters tracks daily install counts per acquisition channel.
type Counters struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCounters creates a Redis-backed counter set. client may be nil when
// Redis is disabled; all methods then become no-ops.
func NewCounters(client *redis.Client, logger *zap.Logger) *Counters {
	return &Counters{client: client, logger: logger}
}

func channelKey(channel models.Channel, day string) string {
	return fmt.Sprintf("stats:installs:%s:%s", channel, day)
}

// RecordInstalls increments today's counters by the given breakdown.
func (c *Counters) RecordInstalls(ctx context.Context, byChannel map[models.Channel]int) {
	if c.client == nil || len(byChannel) == 0 {
		return
	}
	today := time.Now().UTC().Format("2006-01-02")

	pipe := c.client.Pipeline()
	for channel, count := range byChannel {
		key := channelKey(channel, today)
		pipe.IncrBy(ctx, key, int64(count))
		pipe.Expire(ctx, key, counterTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open, the authoritative numbers live in the report itself.
		c.logger.Warn("failed to update install counters", zap.Error(err))
	}
}

// GetDailyCount returns the counter for a channel on a given day.
// Missing keys read as zero.
func (c *Counters) GetDailyCount(ctx context.Context, channel models.Channel, day time.Time) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	key := channelKey(channel, day.UTC().Format("2006-01-02"))

	count, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read install counter: %w", err)
	}
	return count, nil
}
