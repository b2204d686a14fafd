// Package service orchestrates the flag store, the result cache, and the
// evaluation engine. The Evaluator owns the read path; the Mutator owns the
// write path and its cache invalidation.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/forestbush/bushel/internal/cache"
	"github.com/forestbush/bushel/internal/engine"
	"github.com/forestbush/bushel/internal/store"
	"github.com/forestbush/bushel/internal/telemetry"
)

// defaultCallTimeout bounds each individual store or cache call.
const defaultCallTimeout = 2 * time.Second

// EvaluatorOptions tune an Evaluator. Zero values fall back to defaults.
type EvaluatorOptions struct {
	// TTL is the cache entry lifetime. Defaults to cache.DefaultTTL (60s).
	TTL time.Duration
	// CallTimeout bounds each store/cache call. Defaults to 2s.
	CallTimeout time.Duration
	// Random supplies anonymous rollout buckets. Defaults to engine.SystemRandom.
	Random engine.RandomSource
	// Logger receives cache-degradation events. Defaults to slog.Default.
	Logger *slog.Logger
}

// Evaluator serves flag decisions through a read-through cache. It never
// returns an error to its caller: every failure degrades to a decision with
// reason "error", so evaluation clients can treat each response as
// authoritative.
type Evaluator struct {
	store   store.Store
	cache   cache.ResultCache
	salt    string
	ttl     time.Duration
	timeout time.Duration
	rnd     engine.RandomSource
	log     *slog.Logger
}

// NewEvaluator creates an Evaluator over the given store and cache.
func NewEvaluator(st store.Store, rc cache.ResultCache, salt string, opts EvaluatorOptions) *Evaluator {
	if opts.TTL <= 0 {
		opts.TTL = cache.DefaultTTL
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.Random == nil {
		opts.Random = engine.SystemRandom()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Evaluator{
		store:   st,
		cache:   rc,
		salt:    salt,
		ttl:     opts.TTL,
		timeout: opts.CallTimeout,
		rnd:     opts.Random,
		log:     opts.Logger,
	}
}

// Evaluate returns the decision for a flag key and optional caller identity.
//
// Cache entries are keyed per (flag, caller) and live for the configured TTL,
// so a decision may lag a mutation by up to one TTL window. Any cache-backend
// failure is logged and treated as a miss; only a store failure produces the
// reason "error" fail-open result, which is never cached.
func (e *Evaluator) Evaluate(ctx context.Context, key, callerID string) engine.Result {
	entryKey := cache.EntryKey(key, callerID)

	if result, ok := e.cacheGet(ctx, entryKey); ok {
		telemetry.CacheRequests.WithLabelValues("hit").Inc()
		telemetry.EvalDecisions.WithLabelValues(string(result.Reason)).Inc()
		return result
	}
	telemetry.CacheRequests.WithLabelValues("miss").Inc()

	flag, err := e.storeGet(ctx, key)
	if err != nil {
		e.log.Warn("flag store read failed, failing open", "key", key, "error", err)
		result := engine.ErrorResult(key)
		telemetry.EvalDecisions.WithLabelValues(string(result.Reason)).Inc()
		return result
	}

	result := engine.Evaluate(flag, key, callerID, e.rnd, e.salt)
	e.cacheSet(ctx, entryKey, result)
	telemetry.EvalDecisions.WithLabelValues(string(result.Reason)).Inc()
	return result
}

// cacheGet reads and decodes a cached decision. Every failure mode collapses
// into a miss: decisions must never block or fail because the cache did.
func (e *Evaluator) cacheGet(ctx context.Context, entryKey string) (engine.Result, bool) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	payload, ok, err := e.cache.Get(callCtx, entryKey)
	if err != nil {
		e.log.Warn("cache read failed, treating as miss", "key", entryKey, "error", err)
		telemetry.CacheErrors.Inc()
		return engine.Result{}, false
	}
	if !ok {
		return engine.Result{}, false
	}

	var result engine.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		e.log.Warn("cache entry undecodable, treating as miss", "key", entryKey, "error", err)
		telemetry.CacheErrors.Inc()
		return engine.Result{}, false
	}
	return result, true
}

// cacheSet stores a decision best-effort; failures are logged, never propagated.
func (e *Evaluator) cacheSet(ctx context.Context, entryKey string, result engine.Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		e.log.Warn("decision not serializable, skipping cache", "key", entryKey, "error", err)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.cache.Set(callCtx, entryKey, payload, e.ttl); err != nil {
		e.log.Warn("cache write failed", "key", entryKey, "error", err)
		telemetry.CacheErrors.Inc()
	}
}

func (e *Evaluator) storeGet(ctx context.Context, key string) (*store.Flag, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	flag, err := e.store.GetFlag(callCtx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return flag, nil
}
