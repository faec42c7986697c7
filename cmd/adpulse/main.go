package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prepairo/adpulse/internal/appdb"
	"github.com/prepairo/adpulse/internal/attribution"
	"github.com/prepairo/adpulse/internal/config"
	"github.com/prepairo/adpulse/internal/database"
	"github.com/prepairo/adpulse/internal/events"
	"github.com/prepairo/adpulse/internal/geo"
	"github.com/prepairo/adpulse/internal/meta"
	"github.com/prepairo/adpulse/internal/metrics"
	"github.com/prepairo/adpulse/internal/report"
	"github.com/prepairo/adpulse/internal/slack"
	"github.com/prepairo/adpulse/internal/snapshot"
	"github.com/prepairo/adpulse/internal/stats"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// .env is a local-development convenience, absent in production.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	defer logger.Sync()

	logger.Info("starting AdPulse report run",
		zap.String("env", cfg.App.Env),
		zap.Strings("accounts", cfg.App.Accounts),
		zap.Int("window_hours", cfg.Report.WindowHours),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("report run finished with errors", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("report run complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	promMetrics := metrics.NewMetrics("adpulse")

	// Snapshot store. When Postgres is down the run still goes out, it
	// just cannot compute trends; a throwaway in-memory store keeps the
	// same code path alive.
	var store snapshot.Store
	db, err := database.NewPostgresDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Warn("PostgreSQL not available, trends disabled for this run", zap.Error(err))
		store = snapshot.NewInMemoryStore()
	} else {
		defer db.Close()
		pgStore := snapshot.NewPostgresStore(db.Pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure snapshot schema: %w", err)
		}
		store = pgStore
	}

	opts := report.Options{Metrics: promMetrics}

	// Product database, read-only. Without it the report has no install
	// channel breakdown.
	appDB, err := database.NewPostgresDB(ctx, cfg.AppDB, logger)
	if err != nil {
		logger.Warn("app database not available, skipping install breakdown", zap.Error(err))
	} else {
		defer appDB.Close()
		opts.Installs = appdb.NewReader(appDB.Pool, logger)
	}

	if cfg.Redis.Enabled {
		redisDB, err := database.NewRedisDB(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis not available, install counters disabled", zap.Error(err))
		} else {
			defer redisDB.Close()
			opts.Counters = stats.NewCounters(redisDB.Client, logger)
		}
	}

	if cfg.ClickHouse.Enabled {
		ch, err := database.NewClickHouseDB(ctx, cfg.ClickHouse, logger)
		if err != nil {
			logger.Warn("ClickHouse not available, event archive disabled", zap.Error(err))
		} else {
			defer ch.Close()
			opts.Sink = events.NewSink(ch.Conn, logger)
		}
	}

	if cfg.Geo.Enabled {
		resolver, err := geo.NewResolver(cfg.Geo.DatabasePath)
		if err != nil {
			logger.Warn("GeoIP database not available, country enrichment disabled", zap.Error(err))
		} else {
			defer resolver.Close()
			opts.Geo = resolver
		}
	}

	var notifier slack.Notifier
	if cfg.Slack.WebhookURL != "" {
		notifier = slack.NewWebhookNotifier(cfg.Slack, logger)
	} else {
		logger.Warn("no Slack webhook configured, reports go to the log only")
		notifier = slack.NewNopNotifier(logger)
	}

	svc := report.NewService(
		meta.NewClient(cfg.Meta, logger),
		store,
		attribution.NewDefaultClassifier(),
		notifier,
		cfg.Report,
		logger,
		opts,
	)

	return svc.Run(ctx, cfg.App.Accounts, time.Now().UTC())
}

func setupLogger(cfg *config.Config) *zap.Logger {
	var zapCfg zap.Config

	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	// Set log level
	switch cfg.Log.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}

	return logger
}
