package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gnt "github.com/dstotijn/go-notion"
	"github.com/labstack/echo/v4"

	"jobtracker.local/internal/domain"
)

type trackerService interface {
	LoadApplications(ctx context.Context) (domain.ApplicationList, error)
	Grouped(ctx context.Context) (map[domain.Status]domain.ApplicationList, error)
	Get(ctx context.Context, id int64) (domain.ApplicationRecord, error)
	AddApplication(ctx context.Context, companyName, jobLink string) (domain.ApplicationRecord, error)
	ChangeStatus(ctx context.Context, id int64, status domain.Status) (domain.ApplicationRecord, error)
	Sweep(ctx context.Context) (int, error)
}

type notionDebugger interface {
	Ping(ctx context.Context) error
	SearchDatabases(ctx context.Context) ([]gnt.Database, error)
}

// HealthCheck is a named readiness probe.
type HealthCheck func(ctx context.Context) error

type Options struct {
	Health             HealthCheck
	Notion             notionDebugger
	RateLimitPerSecond float64
	RateLimitBurst     int
}

type Server struct {
	echo    *echo.Echo
	tracker trackerService
	health  HealthCheck
	notion  notionDebugger

	rateLimitPerSecond float64
	rateLimitBurst     int
}

func New(tracker trackerService, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 5
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 10
	}

	s := &Server{
		echo:               e,
		tracker:            tracker,
		health:             opts.Health,
		notion:             opts.Notion,
		rateLimitPerSecond: opts.RateLimitPerSecond,
		rateLimitBurst:     opts.RateLimitBurst,
	}
	s.routes()
	return s
}

func (s *Server) Listen(addr string) error {
	slog.Info("Server starting", "addr", addr)
	if err := s.echo.Start(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

const healthTimeout = 5 * time.Second
