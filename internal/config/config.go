package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the AdPulse reporting tool. The core
// engine packages (snapshot, delta, attribution) never read configuration
// themselves; everything they need is passed in explicitly at startup.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	AppDB      DatabaseConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig
	Meta       MetaConfig
	Slack      SlackConfig
	Report     ReportConfig
	Geo        GeoConfig
	Log        LogConfig
}

type AppConfig struct {
	Env string
	// Accounts lists the ad account IDs to report on, one run each.
	Accounts []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Schema   string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
	if d.Schema != "" {
		dsn += "&search_path=" + d.Schema
	}
	return dsn
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type ClickHouseConfig struct {
	Enabled  bool
	Addr     string
	Database string
	Username string
	Password string
	Timeout  time.Duration
}

// MetaConfig configures the Marketing API client.
type MetaConfig struct {
	AccessToken string
	APIVersion  string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
}

type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// ReportConfig holds the knobs of the reporting cycle itself.
type ReportConfig struct {
	// WindowHours is the size of the reporting window.
	WindowHours int
	// RetentionDays bounds how long snapshots are kept; older rows are
	// pruned opportunistically after each save.
	RetentionDays int
	// SignificantChangePct flags metrics whose percent change exceeds
	// this threshold.
	SignificantChangePct float64
	// SignificantSpendFloor suppresses significant-change alerts when
	// window spend is below this amount.
	SignificantSpendFloor float64
}

// GeoConfig configures optional GeoIP enrichment of install records.
type GeoConfig struct {
	Enabled      bool
	DatabasePath string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getEnv("ADPULSE_ENV", "development"),
			Accounts: getSliceEnv("ADPULSE_ACCOUNTS", nil),
		},
		Database: DatabaseConfig{
			Host:     getEnv("ADPULSE_DB_HOST", "localhost"),
			Port:     getIntEnv("ADPULSE_DB_PORT", 5432),
			User:     getEnv("ADPULSE_DB_USER", "adpulse"),
			Password: getEnv("ADPULSE_DB_PASSWORD", ""),
			DBName:   getEnv("ADPULSE_DB_NAME", "adpulse"),
			SSLMode:  getEnv("ADPULSE_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("ADPULSE_DB_MAX_CONNS", 5),
			MinConns: getIntEnv("ADPULSE_DB_MIN_CONNS", 1),
		},
		AppDB: DatabaseConfig{
			Host:     getEnv("ADPULSE_APPDB_HOST", "localhost"),
			Port:     getIntEnv("ADPULSE_APPDB_PORT", 5432),
			User:     getEnv("ADPULSE_APPDB_USER", "readonly"),
			Password: getEnv("ADPULSE_APPDB_PASSWORD", ""),
			DBName:   getEnv("ADPULSE_APPDB_NAME", "postgres"),
			SSLMode:  getEnv("ADPULSE_APPDB_SSLMODE", "require"),
			Schema:   getEnv("ADPULSE_APPDB_SCHEMA", "app"),
			MaxConns: getIntEnv("ADPULSE_APPDB_MAX_CONNS", 3),
			MinConns: getIntEnv("ADPULSE_APPDB_MIN_CONNS", 1),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("ADPULSE_REDIS_ENABLED", true),
			Addr:     getEnv("ADPULSE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("ADPULSE_REDIS_PASSWORD", ""),
			DB:       getIntEnv("ADPULSE_REDIS_DB", 0),
		},
		ClickHouse: ClickHouseConfig{
			Enabled:  getBoolEnv("ADPULSE_CLICKHOUSE_ENABLED", false),
			Addr:     getEnv("ADPULSE_CLICKHOUSE_ADDR", "localhost:9000"),
			Database: getEnv("ADPULSE_CLICKHOUSE_DB", "default"),
			Username: getEnv("ADPULSE_CLICKHOUSE_USER", "default"),
			Password: getEnv("ADPULSE_CLICKHOUSE_PASSWORD", ""),
			Timeout:  getDurationEnv("ADPULSE_CLICKHOUSE_TIMEOUT", 10*time.Second),
		},
		Meta: MetaConfig{
			AccessToken: getEnv("ADPULSE_META_ACCESS_TOKEN", ""),
			APIVersion:  getEnv("ADPULSE_META_API_VERSION", "v19.0"),
			BaseURL:     getEnv("ADPULSE_META_BASE_URL", "https://graph.facebook.com"),
			Timeout:     getDurationEnv("ADPULSE_META_TIMEOUT", 30*time.Second),
			MaxRetries:  getIntEnv("ADPULSE_META_MAX_RETRIES", 3),
		},
		Slack: SlackConfig{
			WebhookURL: getEnv("ADPULSE_SLACK_WEBHOOK_URL", ""),
			Timeout:    getDurationEnv("ADPULSE_SLACK_TIMEOUT", 10*time.Second),
		},
		Report: ReportConfig{
			WindowHours:           getIntEnv("ADPULSE_REPORT_WINDOW_HOURS", 6),
			RetentionDays:         getIntEnv("ADPULSE_REPORT_RETENTION_DAYS", 30),
			SignificantChangePct:  getFloatEnv("ADPULSE_REPORT_SIGNIFICANT_PCT", 20),
			SignificantSpendFloor: getFloatEnv("ADPULSE_REPORT_SPEND_FLOOR", 100),
		},
		Geo: GeoConfig{
			Enabled:      getBoolEnv("ADPULSE_GEO_ENABLED", false),
			DatabasePath: getEnv("ADPULSE_GEO_DB_PATH", "/app/data/GeoLite2-City.mmdb"),
		},
		Log: LogConfig{
			Level:  getEnv("ADPULSE_LOG_LEVEL", "info"),
			Format: getEnv("ADPULSE_LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if len(c.App.Accounts) == 0 {
		return fmt.Errorf("ADPULSE_ACCOUNTS must list at least one ad account ID")
	}
	if c.Report.WindowHours <= 0 {
		return fmt.Errorf("ADPULSE_REPORT_WINDOW_HOURS must be positive")
	}
	if c.Report.RetentionDays <= 0 {
		return fmt.Errorf("ADPULSE_REPORT_RETENTION_DAYS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return def
}
