// Package events archives classified install events to ClickHouse for
// ad-hoc analytics. The sink is optional; when ClickHouse is disabled
// the report cycle runs without it.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prepairo/adpulse/internal/models"
	"go.uber.org/zap"
)

// Schema creates the attribution event table. Applied by cmd/migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS attribution_events (
	event_date   Date,
	event_time   DateTime,
	user_id      String,
	platform     LowCardinality(String),
	channel      LowCardinality(String),
	campaign     String,
	raw_referrer String,
	country      LowCardinality(String)
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(event_date)
ORDER BY (event_date, channel, user_id)
TTL event_date + INTERVAL 180 DAY
`

// Event is one classified install headed for the archive.
type Event struct {
	Time        time.Time
	UserID      string
	Platform    string
	Channel     models.Channel
	Campaign    string
	RawReferrer string
	Country     string
}

// Sink writes attribution events in batches.
type Sink struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewSink creates a ClickHouse event sink.
func NewSink(conn driver.Conn, logger *zap.Logger) *Sink {
	return &Sink{conn: conn, logger: logger}
}

// EnsureSchema creates the event table if missing.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if err := s.conn.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create attribution_events table: %w", err)
	}
	return nil
}

// Write appends a batch of events. A partial batch never lands; the
// insert is all or nothing.
func (s *Sink) Write(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO attribution_events
			(event_date, event_time, user_id, platform, channel, campaign, raw_referrer, country)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare event batch: %w", err)
	}

	for _, e := range events {
		if err := batch.Append(
			e.Time.UTC(),
			e.Time.UTC(),
			e.UserID,
			e.Platform,
			string(e.Channel),
			e.Campaign,
			e.RawReferrer,
			e.Country,
		); err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send event batch: %w", err)
	}

	s.logger.Debug("archived attribution events", zap.Int("count", len(events)))
	return nil
}
