package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"jobtracker.local/internal/domain"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Port           string `env:"PORT" default:"8081"`
	StorageBackend string `env:"STORAGE_BACKEND" default:"sqlite"`
	StorageKey     string `env:"STORAGE_KEY" default:"applications"`
	SQLitePath     string `env:"JOBTRACKER_DB" default:"jobtracker.sqlite"`
	RedisURL       string `env:"REDIS_URL"`

	GhostAfterDays int           `env:"GHOST_AFTER_DAYS" default:"30"`
	DefaultStatus  string        `env:"DEFAULT_STATUS" default:"inProgress"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" default:"1h"`

	NotionToken string `env:"NOTION_TOKEN"`
	NotionDBID  string `env:"NOTION_DB_ID"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" default:"5"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" default:"10"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.NotionDBID = normalizeNotionID(cfg.NotionDBID)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.StorageBackend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORAGE_BACKEND=%s", BackendRedis)
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of %s, %s, %s, got %q",
			BackendMemory, BackendSQLite, BackendRedis, cfg.StorageBackend)
	}

	if strings.TrimSpace(cfg.StorageKey) == "" {
		return fmt.Errorf("STORAGE_KEY must not be empty")
	}
	if cfg.StorageBackend == BackendSQLite && cfg.SQLitePath == "" {
		return fmt.Errorf("JOBTRACKER_DB must not be empty")
	}
	if cfg.GhostAfterDays < 1 {
		return fmt.Errorf("GHOST_AFTER_DAYS must be at least 1, got %d", cfg.GhostAfterDays)
	}
	if _, err := domain.ParseStatus(cfg.DefaultStatus); err != nil {
		return fmt.Errorf("DEFAULT_STATUS: %w", err)
	}
	if cfg.SweepInterval < 0 {
		return fmt.Errorf("SWEEP_INTERVAL must not be negative")
	}
	if (cfg.NotionToken == "") != (cfg.NotionDBID == "") {
		return fmt.Errorf("NOTION_TOKEN and NOTION_DB_ID must be set together")
	}
	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// GhostThreshold is GHOST_AFTER_DAYS as a duration.
func (c *Config) GhostThreshold() time.Duration {
	return time.Duration(c.GhostAfterDays) * 24 * time.Hour
}

// InitialStatus is the status given to newly added applications.
func (c *Config) InitialStatus() domain.Status {
	s, _ := domain.ParseStatus(c.DefaultStatus)
	return s
}

func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionDBID != ""
}

// normalizeNotionID removes dashes if present.
func normalizeNotionID(id string) string {
	id = strings.TrimSpace(id)
	return strings.ReplaceAll(id, "-", "")
}
