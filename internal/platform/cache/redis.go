package cache

import (
	"context"
	"errors"
	"time"

	perr "cinedex/internal/platform/errors"
	"cinedex/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// RedisConfig carries dial settings for the Redis adapter.
type RedisConfig struct {
	Addr string // host:port
}

// Redis implements Cache on a Redis backend.
type Redis struct {
	rdb *redis.Client
}

// NewRedis builds the adapter. The connection is lazy, use Ping to probe.
func NewRedis(cfg RedisConfig) *Redis {
	return &Redis{rdb: redis.NewClient(&redis.Options{Addr: cfg.Addr})}
}

// Get returns the cached bytes for key. Backend failures are logged and
// reported as misses so callers fall through to the source of truth.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.C(ctx).Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		}
		return nil, false
	}
	return b, true
}

// Set stores value under key for ttl. Failures are logged and dropped.
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.C(ctx).Warn().Err(err).Str("key", key).Msg("cache set failed, dropping entry")
	}
}

// Ping probes the backend.
func (c *Redis) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "cache ping")
	}
	return nil
}

// Close releases the client's pooled connections.
func (c *Redis) Close() error { return c.rdb.Close() }
