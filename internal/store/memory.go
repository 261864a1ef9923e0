package store

import (
	"context"
	"sync"

	"jobtracker.local/internal/domain"
)

// MemoryBackend keeps values in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]Blob
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]Blob)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.values[key]
	if !ok {
		return Blob{}, ErrKeyNotFound
	}
	return Blob{Value: append([]byte(nil), b.Value...), Version: b.Version}, nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, value []byte, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.values[key].Version
	if expected != AnyVersion && expected != current {
		return 0, domain.ErrVersionConflict
	}
	next := current + 1
	m.values[key] = Blob{Value: append([]byte(nil), value...), Version: next}
	return next, nil
}

func (m *MemoryBackend) Ping(context.Context) error { return nil }

func (m *MemoryBackend) Close() error { return nil }
