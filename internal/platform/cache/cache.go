// Package cache fronts slow backend lookups with a shared TTL key-value
// store. The port is byte oriented, callers decide the encoding.
package cache

import (
	"context"
	"time"
)

// Cache is the read-through cache port.
//
// A broken cache backend must degrade to misses and dropped writes,
// never to request failures, so Get and Set carry no error returns.
type Cache interface {
	// Get returns the cached bytes for key, ok=false on miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key for ttl. Best effort.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
