// Package cache provides response caching for provider API clients.
//
// Quote and metadata lookups against public providers are cached so that
// repeated tool calls within a session don't hammer the upstream. Three
// backends are provided:
//   - FileCache: on-disk cache for CLI usage
//   - RedisCache: shared cache for long-running bridge deployments
//   - NullCache: caching disabled (tests, brokerage data)
//
// Brokerage account data is never cached; only the public market-data
// providers go through this package.
package cache

import (
	"context"
	"time"
)

// Cache is the interface implemented by all cache backends.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
