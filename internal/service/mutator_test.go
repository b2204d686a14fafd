package service

import (
	"context"
	"errors"
	"testing"

	"github.com/forestbush/bushel/internal/cache"
	"github.com/forestbush/bushel/internal/engine"
	"github.com/forestbush/bushel/internal/store"
)

func newPair(t *testing.T) (*Evaluator, *Mutator, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	rc := cache.NewMemory()
	return newEvaluator(st, rc), NewMutator(st, rc, MutatorOptions{}), st
}

func TestMutator_CreateConflict(t *testing.T) {
	_, mu, _ := newPair(t)
	ctx := context.Background()

	if _, err := mu.Create(ctx, store.CreateParams{Key: "dup"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := mu.Create(ctx, store.CreateParams{Key: "dup"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMutator_UpdateRequiresField(t *testing.T) {
	_, mu, _ := newPair(t)

	_, err := mu.Update(context.Background(), "any", store.UpdateParams{})
	if !errors.Is(err, ErrEmptyUpdate) {
		t.Fatalf("expected ErrEmptyUpdate, got %v", err)
	}
}

func TestMutator_UpdateNotFound(t *testing.T) {
	_, mu, _ := newPair(t)
	enabled := true

	_, err := mu.Update(context.Background(), "ghost", store.UpdateParams{Enabled: &enabled})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMutator_DeleteNotFound(t *testing.T) {
	_, mu, _ := newPair(t)

	if err := mu.Delete(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMutator_UpdateInvalidatesAnonymousEntry(t *testing.T) {
	ev, mu, _ := newPair(t)
	ctx := context.Background()

	if _, err := mu.Create(ctx, store.CreateParams{Key: "f", Enabled: false}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Anonymous evaluation caches the disabled decision.
	before := ev.Evaluate(ctx, "f", "")
	if before.Enabled || before.Reason != engine.ReasonDisabled {
		t.Fatalf("expected disabled before update, got %+v", before)
	}

	enabled := true
	if _, err := mu.Update(ctx, "f", store.UpdateParams{Enabled: &enabled}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Immediate anonymous re-evaluation must see the committed update.
	after := ev.Evaluate(ctx, "f", "")
	if !after.Enabled || after.Reason != engine.ReasonEnabled {
		t.Fatalf("stale decision after update: %+v", after)
	}
}

func TestMutator_DeleteInvalidatesAnonymousEntry(t *testing.T) {
	ev, mu, _ := newPair(t)
	ctx := context.Background()

	if _, err := mu.Create(ctx, store.CreateParams{Key: "f", Enabled: true}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := ev.Evaluate(ctx, "f", ""); !got.Enabled {
		t.Fatalf("expected enabled before delete, got %+v", got)
	}

	if err := mu.Delete(ctx, "f"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	after := ev.Evaluate(ctx, "f", "")
	if after.Reason != engine.ReasonNotFound {
		t.Fatalf("expected not_found after delete, got %+v", after)
	}
}

func TestMutator_CreateInvalidatesCachedNotFound(t *testing.T) {
	ev, mu, _ := newPair(t)
	ctx := context.Background()

	// Cache a not_found decision for a key that does not exist yet.
	if got := ev.Evaluate(ctx, "f", ""); got.Reason != engine.ReasonNotFound {
		t.Fatalf("expected not_found, got %+v", got)
	}

	if _, err := mu.Create(ctx, store.CreateParams{Key: "f", Enabled: true}); err != nil {
		t.Fatalf("create: %v", err)
	}

	after := ev.Evaluate(ctx, "f", "")
	if !after.Enabled || after.Reason != engine.ReasonEnabled {
		t.Fatalf("cached not_found outlived create: %+v", after)
	}
}

func TestMutator_InvalidationFailureDoesNotFailMutation(t *testing.T) {
	st := store.NewMemoryStore()
	mu := NewMutator(st, brokenCache{}, MutatorOptions{})
	ctx := context.Background()

	if _, err := mu.Create(ctx, store.CreateParams{Key: "f"}); err != nil {
		t.Fatalf("create should succeed with broken cache: %v", err)
	}

	enabled := true
	if _, err := mu.Update(ctx, "f", store.UpdateParams{Enabled: &enabled}); err != nil {
		t.Fatalf("update should succeed with broken cache: %v", err)
	}

	if err := mu.Delete(ctx, "f"); err != nil {
		t.Fatalf("delete should succeed with broken cache: %v", err)
	}

	// Store committed every mutation.
	if _, err := st.GetFlag(ctx, "f"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected flag deleted from store, got %v", err)
	}
}

func TestMutator_StoreFailureSurfaces(t *testing.T) {
	mu := NewMutator(erroringStore{}, cache.NewMemory(), MutatorOptions{})
	ctx := context.Background()

	if _, err := mu.Create(ctx, store.CreateParams{Key: "f"}); err == nil {
		t.Error("create against a dead store must fail")
	}
	enabled := true
	if _, err := mu.Update(ctx, "f", store.UpdateParams{Enabled: &enabled}); err == nil {
		t.Error("update against a dead store must fail")
	}
	if err := mu.Delete(ctx, "f"); err == nil {
		t.Error("delete against a dead store must fail")
	}
}

// erroringStore fails every mutation.
type erroringStore struct {
	store.Store
}

func (erroringStore) CreateFlag(context.Context, store.CreateParams) (*store.Flag, error) {
	return nil, errors.New("connection refused")
}
func (erroringStore) UpdateFlag(context.Context, string, store.UpdateParams) (*store.Flag, error) {
	return nil, errors.New("connection refused")
}
func (erroringStore) DeleteFlag(context.Context, string) error {
	return errors.New("connection refused")
}
