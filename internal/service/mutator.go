package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/forestbush/bushel/internal/cache"
	"github.com/forestbush/bushel/internal/store"
	"github.com/forestbush/bushel/internal/telemetry"
)

// ErrEmptyUpdate is returned when an update carries no fields.
var ErrEmptyUpdate = errors.New("update requires at least one field")

// Mutator wraps flag mutations against the store and invalidates the
// anonymous cache entry of the touched flag after each successful write.
//
// Only the anonymous entry is cleared: per-caller entries stay cached for up
// to one TTL after a mutation. The TTL is short by design, so per-caller
// staleness is bounded instead of tracked; see the anonymous-only guarantee
// on each method. The Mutator never writes cache entries, it only deletes.
type Mutator struct {
	store   store.Store
	cache   cache.ResultCache
	timeout time.Duration
	log     *slog.Logger
}

// MutatorOptions tune a Mutator. Zero values fall back to defaults.
type MutatorOptions struct {
	// CallTimeout bounds each store/cache call. Defaults to 2s.
	CallTimeout time.Duration
	// Logger receives invalidation-degradation events. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewMutator creates a Mutator over the given store and cache.
func NewMutator(st store.Store, rc cache.ResultCache, opts MutatorOptions) *Mutator {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Mutator{
		store:   st,
		cache:   rc,
		timeout: opts.CallTimeout,
		log:     opts.Logger,
	}
}

// Create inserts a new flag. Returns store.ErrConflict when the key is taken.
// A cached not_found decision for the key is invalidated so an anonymous
// evaluation immediately after a successful create sees the new flag.
func (m *Mutator) Create(ctx context.Context, params store.CreateParams) (*store.Flag, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	flag, err := m.store.CreateFlag(callCtx, params)
	if err != nil {
		return nil, err
	}
	m.invalidate(ctx, flag.Key)
	return flag, nil
}

// Update applies a partial update. Returns ErrEmptyUpdate when no fields are
// present and store.ErrNotFound when the key does not exist. The anonymous
// cache entry is invalidated before returning, so an anonymous re-evaluation
// immediately after a successful update is guaranteed fresh.
func (m *Mutator) Update(ctx context.Context, key string, params store.UpdateParams) (*store.Flag, error) {
	if params.Empty() {
		return nil, ErrEmptyUpdate
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	flag, err := m.store.UpdateFlag(callCtx, key, params)
	if err != nil {
		return nil, err
	}
	m.invalidate(ctx, key)
	return flag, nil
}

// Delete removes a flag. Returns store.ErrNotFound when the key does not
// exist. The anonymous cache entry is invalidated before returning.
func (m *Mutator) Delete(ctx context.Context, key string) error {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.store.DeleteFlag(callCtx, key); err != nil {
		return err
	}
	m.invalidate(ctx, key)
	return nil
}

// invalidate clears the anonymous cache entry for a flag. It runs only after
// the store write has committed; the store is the source of truth, so an
// invalidation failure is logged and the mutation still reports success. A
// surviving stale entry self-heals at TTL expiry.
func (m *Mutator) invalidate(ctx context.Context, flagKey string) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	entryKey := cache.EntryKey(flagKey, cache.AnonymousCaller)
	if err := m.cache.Delete(callCtx, entryKey); err != nil {
		m.log.Warn("cache invalidation failed, entry expires at TTL", "key", entryKey, "error", err)
		telemetry.InvalidationFailures.Inc()
	}
}
