package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobtracker.local/internal/domain"
	"jobtracker.local/internal/metrics"
)

// DefaultKey is the key the extension popup always used.
const DefaultKey = "applications"

// AnyVersion makes Put unconditional.
const AnyVersion int64 = -1

var ErrKeyNotFound = errors.New("key not found")

// Blob is a stored value and its version. Version 0 means the key has
// never been written.
type Blob struct {
	Value   []byte
	Version int64
}

// Backend is a key-value persistence backend. Put replaces the whole value
// and, unless expected is AnyVersion, fails with domain.ErrVersionConflict
// when the current version differs from expected.
type Backend interface {
	Get(ctx context.Context, key string) (Blob, error)
	Put(ctx context.Context, key string, value []byte, expected int64) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Snapshot is a loaded list together with the version it was read at.
type Snapshot struct {
	List    domain.ApplicationList
	Version int64
}

// Store is the Record Store: the whole application list under one key.
type Store struct {
	backend Backend
	key     string
}

func New(b Backend, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{backend: b, key: key}
}

func (s *Store) Key() string { return s.key }

// Load returns the persisted list, or an empty list if none exists yet.
func (s *Store) Load(ctx context.Context) (domain.ApplicationList, error) {
	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.List, nil
}

func (s *Store) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	blob, err := s.backend.Get(ctx, s.key)
	observe("load", start, err)

	if errors.Is(err, ErrKeyNotFound) {
		return Snapshot{List: domain.ApplicationList{}}, nil
	}
	if err != nil {
		return Snapshot{}, unavailable("load", err)
	}

	list, err := decode(blob.Value)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w: %w", s.key, domain.ErrStorageUnavailable, err)
	}
	return Snapshot{List: list, Version: blob.Version}, nil
}

// Save overwrites the whole list. Last writer wins.
func (s *Store) Save(ctx context.Context, list domain.ApplicationList) error {
	_, err := s.put(ctx, list, AnyVersion)
	return err
}

// SaveSnapshot writes snap.List only if nobody saved since snap was loaded.
func (s *Store) SaveSnapshot(ctx context.Context, snap Snapshot) (Snapshot, error) {
	version, err := s.put(ctx, snap.List, snap.Version)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{List: snap.List, Version: version}, nil
}

func (s *Store) put(ctx context.Context, list domain.ApplicationList, expected int64) (int64, error) {
	if list == nil {
		list = domain.ApplicationList{}
	}
	if err := list.Validate(); err != nil {
		return 0, err
	}
	b, err := json.Marshal(list)
	if err != nil {
		return 0, fmt.Errorf("encode applications: %w", err)
	}

	start := time.Now()
	version, err := s.backend.Put(ctx, s.key, b, expected)
	observe("save", start, err)

	if errors.Is(err, domain.ErrVersionConflict) {
		return 0, fmt.Errorf("save %s: %w", s.key, err)
	}
	if err != nil {
		return 0, unavailable("save", err)
	}
	return version, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.backend.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func decode(b []byte) (domain.ApplicationList, error) {
	list := domain.ApplicationList{}
	if len(b) == 0 {
		return list, nil
	}
	// %v keeps a ValidationError out of the chain: a bad blob is a storage
	// fault, not a bad request.
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("decode applications: %v", err)
	}
	if err := list.Validate(); err != nil {
		return nil, fmt.Errorf("stored applications: %v", err)
	}
	return list, nil
}

func unavailable(op string, err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

func observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil, errors.Is(err, ErrKeyNotFound):
	case errors.Is(err, domain.ErrVersionConflict):
		result = "conflict"
	default:
		result = "error"
	}
	metrics.StoreOpsTotal.WithLabelValues(op, result).Inc()
	metrics.StoreOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
