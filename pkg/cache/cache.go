// Package cache provides byte caches for computed layouts and rendered
// artifacts.
//
// Three implementations share the [Cache] interface:
//   - [FileCache] stores entries as files under a directory (CLI use)
//   - [RedisCache] stores entries in Redis (shared between API instances)
//   - [NullCache] stores nothing (caching disabled)
//
// Keys come from a [Keyer], so the CLI and the API agree on what a cache
// entry means:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.LayoutKey(cache.Hash(input), cache.LayoutKeyOpts{Width: 1200})
//	if data, hit, err := c.Get(ctx, key); err == nil && hit {
//	    // use data
//	}
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/masonry/pkg/observability"
)

// Cache TTLs by entry kind.
const (
	// TTLLayout is how long a computed layout stays cached. Layouts are a
	// pure function of their key, so this only bounds disk and memory use.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact is how long a rendered artifact stays cached.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the value for key. The boolean is false on a miss,
	// including for expired entries.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// keyType returns the kind of a key ("layout", "artifact", ...) for hooks.
func keyType(key string) string {
	for _, part := range strings.Split(key, ":") {
		switch part {
		case prefixLayout, prefixArtifact:
			return part
		}
	}
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "unknown"
}

// recordGet reports a lookup to the cache hooks.
func recordGet(ctx context.Context, key string, hit bool) {
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType(key))
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType(key))
	}
}

// recordSet reports a write to the cache hooks.
func recordSet(ctx context.Context, key string, size int) {
	observability.Cache().OnCacheSet(ctx, keyType(key), size)
}
