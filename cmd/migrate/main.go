// Command migrate creates the AdPulse schema: the snapshot table in
// PostgreSQL and, when enabled, the attribution event table in
// ClickHouse. Safe to run repeatedly.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prepairo/adpulse/internal/config"
	"github.com/prepairo/adpulse/internal/database"
	"github.com/prepairo/adpulse/internal/events"
	"github.com/prepairo/adpulse/internal/snapshot"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := migrate(ctx, cfg, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	logger.Info("migration complete")
}

func migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.NewPostgresDB(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer db.Close()

	if err := snapshot.NewPostgresStore(db.Pool).EnsureSchema(ctx); err != nil {
		return err
	}
	logger.Info("snapshot schema ready")

	if cfg.ClickHouse.Enabled {
		ch, err := database.NewClickHouseDB(ctx, cfg.ClickHouse, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		defer ch.Close()

		if err := events.NewSink(ch.Conn, logger).EnsureSchema(ctx); err != nil {
			return err
		}
		logger.Info("attribution event schema ready")
	}

	return nil
}
