// Package appdb reads install records from the product database. Access
// is read-only; the reporting tool never writes to the app schema.
package appdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepairo/adpulse/internal/models"
	"go.uber.org/zap"
)

// Reader queries app installs from the product PostgreSQL database.
type Reader struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewReader creates a read-only install reader.
func NewReader(pool *pgxpool.Pool, logger *zap.Logger) *Reader {
	return &Reader{pool: pool, logger: logger}
}

// InstallsBetween returns installs created in [since, until). The install
// referrer lives inside the play_refer JSONB blob written by the Android
// client; it is NULL for iOS installs and for Android installs where the
// Play referrer API returned nothing.
func (r *Reader) InstallsBetween(ctx context.Context, since, until time.Time) ([]models.InstallRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			u.id::text,
			COALESCE(u.platform, ''),
			COALESCE(u.play_refer->>'installReferrer', ''),
			COALESCE(u.signup_ip::text, ''),
			u.created_at
		FROM users u
		WHERE u.created_at >= $1 AND u.created_at < $2
		ORDER BY u.created_at
	`, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to query installs: %w", err)
	}
	defer rows.Close()

	var installs []models.InstallRecord
	for rows.Next() {
		var rec models.InstallRecord
		if err := rows.Scan(&rec.UserID, &rec.Platform, &rec.Referrer, &rec.SignupIP, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan install record: %w", err)
		}
		installs = append(installs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read installs: %w", err)
	}

	r.logger.Debug("loaded installs",
		zap.Int("count", len(installs)),
		zap.Time("since", since),
		zap.Time("until", until),
	)
	return installs, nil
}
