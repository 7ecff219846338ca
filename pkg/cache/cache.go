// Package cache provides small byte-oriented key-value caches.
//
// The engine itself never caches; these backends hold presentation state
// that is expensive to lose but cheap to rebuild, such as which rows of a
// tree view are expanded.
//
// # Backends
//
//   - [FileCache]: one file per key under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP API
//   - [NullCache]: stores nothing
//
// All backends treat a missing or expired key as a miss, not an error.
//
// # Keys
//
// Keys are built by a [Keyer] so that every backend sees the same names.
// [ScopedKeyer] adds a prefix, which the API uses to keep one client's view
// state apart from another's.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}

// Clearer is implemented by backends that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Pruner is implemented by backends that do not expire entries on their
// own. Prune removes dead entries and reports how many it removed.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// NullCache stores nothing. It backs --no-cache and cache.backend = "none",
// so every view starts from the default expansion.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Clear(context.Context) error                              { return nil }
func (*NullCache) Close() error                                             { return nil }

var (
	_ Cache   = (*NullCache)(nil)
	_ Clearer = (*NullCache)(nil)
)
