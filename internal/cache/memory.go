package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// memoryCache is an in-process ResultCache backed by a map with lazy expiry.
// Suitable for development, testing, or single-instance deployments.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates a new in-process cache.
func NewMemory() ResultCache {
	return &memoryCache{entries: make(map[string]memoryEntry)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	payload := make([]byte, len(entry.payload))
	copy(payload, entry.payload)
	return payload, true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	stored := make([]byte, len(payload))
	copy(stored, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{
		payload:   stored,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) Ping(context.Context) error {
	return nil
}

func (c *memoryCache) Close() error {
	return nil
}
