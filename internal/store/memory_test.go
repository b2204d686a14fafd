package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/forestbush/bushel/internal/rules"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	created, err := st.CreateFlag(ctx, CreateParams{
		Key:         "new_checkout",
		Description: "New checkout flow",
		Enabled:     true,
		Rules:       rules.NewRollout(25),
	})
	if err != nil {
		t.Fatalf("CreateFlag: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := st.GetFlag(ctx, "new_checkout")
	if err != nil {
		t.Fatalf("GetFlag: %v", err)
	}
	if got.Key != "new_checkout" || !got.Enabled {
		t.Errorf("unexpected flag: %+v", got)
	}
	if got.Rules == nil || *got.Rules.RolloutPercentage != 25 {
		t.Errorf("rules not persisted: %+v", got.Rules)
	}
}

func TestMemoryStore_CreateConflict(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	first, err := st.CreateFlag(ctx, CreateParams{Key: "dup", Description: "original"})
	if err != nil {
		t.Fatalf("CreateFlag: %v", err)
	}

	_, err = st.CreateFlag(ctx, CreateParams{Key: "dup", Description: "imposter"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// First record untouched by the failed create.
	got, err := st.GetFlag(ctx, "dup")
	if err != nil {
		t.Fatalf("GetFlag: %v", err)
	}
	if got.Description != first.Description {
		t.Errorf("first record changed: %q", got.Description)
	}
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	st := NewMemoryStore()

	_, err := st.GetFlag(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := st.CreateFlag(ctx, CreateParams{Key: fmt.Sprintf("flag_%d", i)}); err != nil {
			t.Fatalf("CreateFlag: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	flags, err := st.ListFlags(ctx)
	if err != nil {
		t.Fatalf("ListFlags: %v", err)
	}
	if len(flags) != 3 {
		t.Fatalf("expected 3 flags, got %d", len(flags))
	}
	for i := 1; i < len(flags); i++ {
		if flags[i].CreatedAt.After(flags[i-1].CreatedAt) {
			t.Errorf("flags not ordered newest first: %s before %s", flags[i-1].Key, flags[i].Key)
		}
	}
}

func TestMemoryStore_UpdatePartial(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if _, err := st.CreateFlag(ctx, CreateParams{
		Key:         "partial",
		Description: "before",
		Rules:       rules.NewRollout(10),
	}); err != nil {
		t.Fatalf("CreateFlag: %v", err)
	}

	enabled := true
	updated, err := st.UpdateFlag(ctx, "partial", UpdateParams{Enabled: &enabled})
	if err != nil {
		t.Fatalf("UpdateFlag: %v", err)
	}
	if !updated.Enabled {
		t.Error("enabled not updated")
	}
	if updated.Description != "before" {
		t.Errorf("description should be untouched, got %q", updated.Description)
	}
	if updated.Rules == nil {
		t.Error("rules should be untouched")
	}

	// Explicitly clear rules.
	updated, err = st.UpdateFlag(ctx, "partial", UpdateParams{SetRules: true})
	if err != nil {
		t.Fatalf("UpdateFlag: %v", err)
	}
	if updated.Rules != nil {
		t.Errorf("rules should be cleared, got %+v", updated.Rules)
	}
}

func TestMemoryStore_UpdateNotFound(t *testing.T) {
	st := NewMemoryStore()
	enabled := true

	_, err := st.UpdateFlag(context.Background(), "ghost", UpdateParams{Enabled: &enabled})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if _, err := st.CreateFlag(ctx, CreateParams{Key: "doomed"}); err != nil {
		t.Fatalf("CreateFlag: %v", err)
	}
	if err := st.DeleteFlag(ctx, "doomed"); err != nil {
		t.Fatalf("DeleteFlag: %v", err)
	}
	if _, err := st.GetFlag(ctx, "doomed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.DeleteFlag(ctx, "doomed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("flag_%d", n)
			if _, err := st.CreateFlag(ctx, CreateParams{Key: key}); err != nil {
				t.Errorf("CreateFlag: %v", err)
			}
			if _, err := st.GetFlag(ctx, key); err != nil {
				t.Errorf("GetFlag: %v", err)
			}
		}(i)
	}
	wg.Wait()

	flags, err := st.ListFlags(ctx)
	if err != nil {
		t.Fatalf("ListFlags: %v", err)
	}
	if len(flags) != 50 {
		t.Errorf("expected 50 flags, got %d", len(flags))
	}
}

func TestUpdateParams_Empty(t *testing.T) {
	if !(UpdateParams{}).Empty() {
		t.Error("zero UpdateParams should be empty")
	}
	desc := "x"
	if (UpdateParams{Description: &desc}).Empty() {
		t.Error("update with description should not be empty")
	}
	if (UpdateParams{SetRules: true}).Empty() {
		t.Error("update clearing rules should not be empty")
	}
}
