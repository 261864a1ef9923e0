package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"jobtracker.local/internal/domain"
	"jobtracker.local/internal/metrics"
)

// BreakerBackend stops calling a failing backend for a while and reports
// storage as unavailable instead of letting every request hang on it.
type BreakerBackend struct {
	next Backend
	cb   *gobreaker.CircuitBreaker
}

var _ Backend = (*BreakerBackend)(nil)

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenFor is how long the breaker stays open before probing again.
	OpenFor time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenFor: 30 * time.Second}
}

func NewBreakerBackend(next Backend, s BreakerSettings) *BreakerBackend {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "storage",
		MaxRequests: 1,
		Timeout:     s.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrKeyNotFound) ||
				errors.Is(err, domain.ErrVersionConflict) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"component", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CircuitBreakerState.Set(stateToFloat(to))
		},
	})
	return &BreakerBackend{next: next, cb: cb}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func (b *BreakerBackend) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerBackend) Get(ctx context.Context, key string) (Blob, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Get(ctx, key)
	})
	if err != nil {
		return Blob{}, breakerErr(err)
	}
	return v.(Blob), nil
}

func (b *BreakerBackend) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Put(ctx, key, value, expected)
	})
	if err != nil {
		return 0, breakerErr(err)
	}
	return v.(int64), nil
}

func (b *BreakerBackend) Ping(ctx context.Context) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Ping(ctx)
	})
	return breakerErr(err)
}

func (b *BreakerBackend) Close() error {
	return b.next.Close()
}

func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return err
}
