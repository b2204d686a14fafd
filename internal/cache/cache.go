// Package cache provides the short-lived result cache that fronts the flag
// store. Entries hold serialized evaluation decisions and expire after a fixed
// TTL; absence of an entry is always a miss, never a decision.
package cache

import (
	"context"
	"time"
)

// AnonymousCaller is the caller segment used in cache keys when no caller
// identity accompanies an evaluation.
const AnonymousCaller = "anonymous"

// DefaultTTL is the entry lifetime used when no TTL is configured.
const DefaultTTL = 60 * time.Second

// ResultCache is a volatile key-value store with per-entry expiry. Backends
// must be safe for concurrent use. A failed backend must never be treated as
// anything worse than a cache miss by callers.
type ResultCache interface {
	// Get returns the payload stored under key, and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores payload under key for the given TTL.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Delete removes the entry under key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the cache backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// EntryKey builds the cache key for a flag decision:
// flag:{key}:{callerID or "anonymous"}.
func EntryKey(flagKey, callerID string) string {
	if callerID == "" {
		callerID = AnonymousCaller
	}
	return "flag:" + flagKey + ":" + callerID
}
