package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map for storage and RWMutex for thread-safe concurrent access.
// This implementation is suitable for development, testing, or single-instance
// deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]Flag // key -> Flag
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flags: make(map[string]Flag),
	}
}

// CreateFlag inserts a new flag, enforcing key uniqueness.
func (m *MemoryStore) CreateFlag(ctx context.Context, params CreateParams) (*Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[params.Key]; exists {
		return nil, ErrConflict
	}

	flag := Flag{
		Key:         params.Key,
		Description: params.Description,
		Enabled:     params.Enabled,
		Rules:       params.Rules,
		CreatedAt:   time.Now().UTC(),
	}
	m.flags[params.Key] = flag
	return &flag, nil
}

// GetFlag retrieves a single flag by its key.
func (m *MemoryStore) GetFlag(ctx context.Context, key string) (*Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[key]
	if !exists {
		return nil, ErrNotFound
	}
	return &flag, nil
}

// ListFlags retrieves all flags, newest-created first.
func (m *MemoryStore) ListFlags(ctx context.Context) ([]Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Flag, 0, len(m.flags))
	for _, flag := range m.flags {
		result = append(result, flag)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Key < result[j].Key
	})
	return result, nil
}

// UpdateFlag applies a partial update and returns the updated record.
func (m *MemoryStore) UpdateFlag(ctx context.Context, key string, params UpdateParams) (*Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	flag, exists := m.flags[key]
	if !exists {
		return nil, ErrNotFound
	}

	if params.Description != nil {
		flag.Description = *params.Description
	}
	if params.Enabled != nil {
		flag.Enabled = *params.Enabled
	}
	if params.SetRules {
		flag.Rules = params.Rules
	}

	m.flags[key] = flag
	return &flag, nil
}

// DeleteFlag removes a flag by key.
func (m *MemoryStore) DeleteFlag(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[key]; !exists {
		return ErrNotFound
	}
	delete(m.flags, key)
	return nil
}

// Ping always succeeds for an in-memory store.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
