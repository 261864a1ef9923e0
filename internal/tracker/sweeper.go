package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// GhostSweeper periodically applies the ghosting policy so records turn
// ghosted even when nobody opens the popup.
type GhostSweeper struct {
	service  sweeper
	interval time.Duration
	clock    clockwork.Clock
	stopCh   chan struct{}
}

func NewGhostSweeper(service sweeper, interval time.Duration, clock clockwork.Clock) *GhostSweeper {
	return &GhostSweeper{
		service:  service,
		interval: interval,
		clock:    clock,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is done.
func (g *GhostSweeper) Start(ctx context.Context) {
	ticker := g.clock.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			n, err := g.service.Sweep(ctx)
			if err != nil {
				slog.Error("Ghost sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("Ghost sweep finished", "ghosted", n)
			}
		case <-g.stopCh:
			slog.Info("Ghost sweeper stopped")
			return
		case <-ctx.Done():
			slog.Info("Ghost sweeper context cancelled")
			return
		}
	}
}

func (g *GhostSweeper) Stop() {
	close(g.stopCh)
}
