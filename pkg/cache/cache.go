// Package cache provides byte caches for remote index data.
//
// The GitHub index source stores two kinds of entries here: the tree
// snapshot that backs the catalog, and the raw contents of declaration
// files. Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under the user cache directory
//   - [RedisCache]: a shared Redis instance, for teams or CI runners
//   - [NullCache]: never stores anything (--no-cache, tests)
//
// Keys are built with a [Keyer] so that entries from different repositories
// and refs never collide.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached entries.
const (
	// TTLTree bounds how long a tree snapshot is served without a fetch.
	// Snapshots are replaced by every explicit fetch, so the TTL is long.
	TTLTree = 30 * 24 * time.Hour

	// TTLContent bounds cached file contents. Contents are keyed by blob SHA
	// and therefore immutable; the TTL only limits disk usage.
	TTLContent = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value for key. A miss is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
