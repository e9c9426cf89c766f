// Package cache stores intermediate pipeline results so that configuration
// changes which only affect tiling or annotation can skip re-quantizing.
//
// Backends:
//   - [MemoryCache]: process-local, used by the HTTP server and tests
//   - [FileCache]: on-disk, used by the CLI between invocations
//   - [RedisCache]: shared across server replicas
//   - [NullCache]: disables caching
//
// Keys are produced by a [Keyer] so that every option that influences a
// cached value is part of its key.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with hit == false and a nil error. A ttl of zero means
// the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
