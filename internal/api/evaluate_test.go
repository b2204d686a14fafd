package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/forestbush/bushel/internal/engine"
	"github.com/forestbush/bushel/internal/rules"
	"github.com/forestbush/bushel/internal/store"
	"github.com/forestbush/bushel/internal/testutil"
)

func evaluate(t *testing.T, handler http.Handler, path string) (int, engine.Result) {
	t.Helper()
	rr := (&testutil.HTTPRequest{Method: http.MethodGet, Path: path}).Do(t, handler)
	var result engine.Result
	if rr.Code == http.StatusOK {
		if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
			t.Fatalf("decode decision: %v", err)
		}
	}
	return rr.Code, result
}

func TestEvaluate_UnknownFlag(t *testing.T) {
	srv, _ := testutil.NewTestServer(t, "test-key")
	handler := srv.Router()

	code, result := evaluate(t, handler, "/v1/evaluate/ghost_flag")

	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if result.Enabled || result.Reason != engine.ReasonNotFound {
		t.Errorf("unexpected decision: %+v", result)
	}
}

func TestEvaluate_DisabledFlag(t *testing.T) {
	srv, st := testutil.NewTestServer(t, "test-key")
	handler := srv.Router()

	if err := testutil.SeedFlags(context.Background(), st, []store.CreateParams{
		{Key: "dark_mode", Enabled: false, Rules: rules.NewRollout(100)},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	code, result := evaluate(t, handler, "/v1/evaluate/dark_mode?callerId=caller-1")

	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if result.Enabled || result.Reason != engine.ReasonDisabled {
		t.Errorf("unexpected decision: %+v", result)
	}
}

func TestEvaluate_EnabledNoRules(t *testing.T) {
	srv, st := testutil.NewTestServer(t, "test-key")
	handler := srv.Router()

	if err := testutil.SeedFlags(context.Background(), st, []store.CreateParams{
		{Key: "dark_mode", Enabled: true},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	code, result := evaluate(t, handler, "/v1/evaluate/dark_mode")

	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !result.Enabled || result.Reason != engine.ReasonEnabled {
		t.Errorf("unexpected decision: %+v", result)
	}
}

func TestEvaluate_RolloutSticky(t *testing.T) {
	srv, st := testutil.NewTestServer(t, "test-key")
	handler := srv.Router()

	if err := testutil.SeedFlags(context.Background(), st, []store.CreateParams{
		{Key: "new_checkout", Enabled: true, Rules: rules.NewRollout(50)},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, first := evaluate(t, handler, "/v1/evaluate/new_checkout?callerId=caller-9")
	if first.Reason != engine.ReasonRollout {
		t.Fatalf("expected rollout reason, got %+v", first)
	}
	for i := 0; i < 10; i++ {
		_, again := evaluate(t, handler, "/v1/evaluate/new_checkout?callerId=caller-9")
		if again != first {
			t.Fatalf("decision not sticky: %+v then %+v", first, again)
		}
	}
}

func TestEvaluate_InvalidKeyRejected(t *testing.T) {
	srv, _ := testutil.NewTestServer(t, "test-key")
	handler := srv.Router()

	// Too short and bad characters are caught before store or engine.
	for _, path := range []string{"/v1/evaluate/ab", "/v1/evaluate/bad!key"} {
		rr := (&testutil.HTTPRequest{Method: http.MethodGet, Path: path}).Do(t, handler)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rr.Code)
		}
	}
}
