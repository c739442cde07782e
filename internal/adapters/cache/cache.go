// Package cache holds rendered leaderboards between score writes.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/rentscore/pkg/metrics"
)

const keyPrefix = "rentscore:leaderboard:"

// KeyWeekly is the key of the cached weekly board.
const KeyWeekly = keyPrefix + "weekly"

// DailyKey is the key of the daily board whose window starts at from. Each
// day gets its own key, so a new day never reads the previous day's board.
func DailyKey(from time.Time) string {
	return keyPrefix + "daily:" + from.UTC().Format(time.RFC3339)
}

// ErrInvalidTTL is returned for a Redis cache without a positive expiry.
var ErrInvalidTTL = errors.New("cache ttl must be positive")

// Cache stores opaque leaderboard payloads.
type Cache interface {
	// Get returns the payload and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
	// Invalidate drops the given keys.
	Invalidate(ctx context.Context, keys ...string) error
	Close() error
}

// Noop is a Cache that never holds anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error         { return nil }
func (Noop) Invalidate(context.Context, ...string) error       { return nil }
func (Noop) Close() error                                      { return nil }

// client is the subset of *redis.Client used by Redis.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Redis is a Cache backed by a Redis server.
type Redis struct {
	rdb client
	ttl time.Duration
}

// NewRedis connects to addr, which is either host:port or a redis:// URL.
// Redis treats a zero expiry as "keep forever", so ttl must be positive.
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTTL, ttl)
	}
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return newRedis(rdb, ttl), nil
}

func newRedis(rdb client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheLookup("miss")
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordCacheLookup("error")
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	metrics.RecordCacheLookup("hit")
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, payload []byte) error {
	if err := r.rdb.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
