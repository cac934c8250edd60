// Package cache stores derived analysis results keyed by content hashes.
//
// Every backend implements [Cache]: a byte-oriented key/value store with
// per-entry TTLs. Keys come from a [Keyer], so the same facts and options
// always map to the same entry regardless of backend:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.AnalysisKey(graphHash, cache.AnalysisKeyOpts{MaxCycles: 1000})
//	data, hit, err := c.Get(ctx, key)
//
// Backends:
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [SQLiteCache]: a single database file, for long-lived local caches
//   - [RedisCache]: shared cache for API deployments
//   - [NullCache]: caching disabled
//
// [Compressed] wraps any backend with zstd compression.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry type.
const (
	TTLGraph    = 24 * time.Hour
	TTLAnalysis = 7 * 24 * time.Hour
	TTLRender   = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Clear removes every entry of c if the backend supports it and reports
// whether it did.
func Clear(ctx context.Context, c Cache) (bool, error) {
	cl, ok := c.(Clearer)
	if !ok {
		return false, nil
	}
	return true, cl.Clear(ctx)
}
