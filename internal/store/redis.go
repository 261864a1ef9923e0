package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"jobtracker.local/internal/domain"
)

// RedisBackend stores the value at <key> and its version at <key>:version.
type RedisBackend struct {
	rdb *redis.Client
}

var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend connects from a URL (e.g., "redis://localhost:6379/0").
func NewRedisBackend(ctx context.Context, redisURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisBackend{rdb: rdb}, nil
}

func versionKey(key string) string { return key + ":version" }

func (r *RedisBackend) Get(ctx context.Context, key string) (Blob, error) {
	vals, err := r.rdb.MGet(ctx, key, versionKey(key)).Result()
	if err != nil {
		return Blob{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	raw, ok := vals[0].(string)
	if !ok {
		return Blob{}, ErrKeyNotFound
	}

	var version int64
	if v, ok := vals[1].(string); ok {
		version, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Blob{}, fmt.Errorf("redis get %s: bad version %q: %w", key, v, err)
		}
	}
	return Blob{Value: []byte(raw), Version: version}, nil
}

func (r *RedisBackend) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	vkey := versionKey(key)

	if expected == AnyVersion {
		var incr *redis.IntCmd
		_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, 0)
			incr = pipe.Incr(ctx, vkey)
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("redis put %s: %w", key, err)
		}
		return incr.Val(), nil
	}

	var incr *redis.IntCmd
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != expected {
			return domain.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, 0)
			incr = pipe.Incr(ctx, vkey)
			return nil
		})
		return err
	}, vkey)

	switch {
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return 0, domain.ErrVersionConflict
	case err != nil:
		return 0, fmt.Errorf("redis put %s: %w", key, err)
	}
	return incr.Val(), nil
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisBackend) Close() error {
	return r.rdb.Close()
}
