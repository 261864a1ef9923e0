package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"jobtracker.local/internal/api"
	"jobtracker.local/internal/config"
	"jobtracker.local/internal/logging"
	"jobtracker.local/internal/notion"
	"jobtracker.local/internal/store"
	"jobtracker.local/internal/tracker"
)

func mask(s string) string {
	if len(s) <= 10 {
		return "****"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return store.NewMemoryBackend(), nil
	case config.BackendRedis:
		return store.NewRedisBackend(ctx, cfg.RedisURL)
	default:
		return store.NewSQLiteBackend(ctx, cfg.SQLitePath)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	notionToken := "(disabled)"
	if cfg.NotionEnabled() {
		notionToken = mask(cfg.NotionToken)
	}
	slog.Info("JobTracker startup",
		"backend", cfg.StorageBackend,
		"key", cfg.StorageKey,
		"sqlite", cfg.SQLitePath,
		"port", cfg.Port,
		"ghost_after_days", cfg.GhostAfterDays,
		"default_status", cfg.InitialStatus(),
		"sweep_interval", cfg.SweepInterval,
		"notion_token", notionToken,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	backend, err := openBackend(openCtx, cfg)
	cancel()
	if err != nil {
		slog.Error("Failed to open storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}

	st := store.New(store.NewBreakerBackend(backend, store.DefaultBreakerSettings()), cfg.StorageKey)
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()
	slog.Info("Storage ready", "backend", cfg.StorageBackend)

	clock := clockwork.NewRealClock()
	opts := tracker.Options{
		GhostThreshold: cfg.GhostThreshold(),
		InitialStatus:  cfg.InitialStatus(),
	}
	apiOpts := api.Options{
		Health:             st.Ping,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}

	if cfg.NotionEnabled() {
		mirror := notion.New(cfg.NotionToken, cfg.NotionDBID)
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := mirror.Ping(pingCtx); err != nil {
			slog.Warn("Notion ping failed, mirroring anyway", "error", err)
		} else {
			slog.Info("Notion connection OK")
		}
		cancel()
		opts.Mirror = mirror
		apiOpts.Notion = mirror
	}

	svc := tracker.NewService(st, clock, opts)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.SweepInterval > 0 {
		sweeper := tracker.NewGhostSweeper(svc, cfg.SweepInterval, clock)
		g.Go(func() error {
			sweeper.Start(gctx)
			return nil
		})
	}

	srv := api.New(svc, apiOpts)
	g.Go(func() error {
		if err := srv.Listen(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped", "error", err)
	}
}
