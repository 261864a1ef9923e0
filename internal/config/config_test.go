package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtracker.local/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORT", "STORAGE_BACKEND", "STORAGE_KEY", "JOBTRACKER_DB", "REDIS_URL",
		"GHOST_AFTER_DAYS", "DEFAULT_STATUS", "SWEEP_INTERVAL",
		"NOTION_TOKEN", "NOTION_DB_ID", "RATE_LIMIT_PER_SECOND", "RATE_LIMIT_BURST",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		// Setenv registers the restore; an empty value would still count as set.
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "applications", cfg.StorageKey)
	assert.Equal(t, "jobtracker.sqlite", cfg.SQLitePath)
	assert.Equal(t, 30*24*time.Hour, cfg.GhostThreshold())
	assert.Equal(t, domain.StatusInProgress, cfg.InitialStatus())
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.False(t, cfg.NotionEnabled())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GHOST_AFTER_DAYS", "14")
	t.Setenv("DEFAULT_STATUS", "ghosted")
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("NOTION_TOKEN", "secret_abcdefghijklmnop")
	t.Setenv("NOTION_DB_ID", "1234-5678-abcd")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, 14*24*time.Hour, cfg.GhostThreshold())
	assert.Equal(t, domain.StatusGhosted, cfg.InitialStatus())
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.NotionEnabled())
	assert.Equal(t, "12345678abcd", cfg.NotionDBID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "etcd"}, "STORAGE_BACKEND must be one of"},
		{"redis without url", map[string]string{"STORAGE_BACKEND": "redis"}, "REDIS_URL is required"},
		{"zero threshold", map[string]string{"GHOST_AFTER_DAYS": "0"}, "GHOST_AFTER_DAYS must be at least 1"},
		{"bad default status", map[string]string{"DEFAULT_STATUS": "hired"}, "DEFAULT_STATUS"},
		{"notion token only", map[string]string{"NOTION_TOKEN": "secret"}, "NOTION_TOKEN and NOTION_DB_ID must be set together"},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}, "RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
