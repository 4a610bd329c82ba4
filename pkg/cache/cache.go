// Package cache stores computed layouts and rendered artifacts so that
// re-rendering an unchanged rule skips the layout pass.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP service
//   - [NullCache]: stores nothing, for tests and --no-cache
//
// [Open] picks a backend from [Options].
//
// # Keys
//
// A [Keyer] derives keys from content hashes. A layout key covers the
// rule's JSON and the layout configuration; an artifact key covers the
// layout hash and the output format. [ScopedKeyer] prefixes every key
// so that several tenants can share one Redis instance.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value stored under key. A miss is reported as
	// (nil, false, nil), never as an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they hold.
type Clearer interface {
	Clear(ctx context.Context) error
}
