// Package cache provides the shared key/value store for read views and the
// cache keys tied to each view. The store is best-effort: the entity store is
// always the source of truth, and every entry carries a TTL as a backstop for
// missed invalidations.
package cache

import (
	"context"
	"time"
)

// Store is the injected cache collaborator. Implementations must treat keys
// as opaque strings and support bulk deletion for invalidation fan-out.
type Store interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
