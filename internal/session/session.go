// Package session provides the time-expiring key-value store backing
// session tokens.
package session

import (
	"context"
	"time"
)

// KeyPrefix namespaces session entries in the shared store.
const KeyPrefix = "auth_"

// Store is a key-value store with per-entry expiry. It is the sole holder
// of token → user bindings; natural expiry is the store's own mechanism,
// the service never schedules invalidation itself.
type Store interface {
	// Set binds key to value for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the value bound to key, or errs.ErrNotFound when the key
	// is missing or expired.
	Get(ctx context.Context, key string) (string, error)
	// Del removes key unconditionally.
	Del(ctx context.Context, key string) error
	// Ping reports store liveness for readiness probes.
	Ping(ctx context.Context) error
}
