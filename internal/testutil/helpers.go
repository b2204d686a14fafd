package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forestbush/bushel/internal/api"
	"github.com/forestbush/bushel/internal/cache"
	"github.com/forestbush/bushel/internal/service"
	"github.com/forestbush/bushel/internal/store"
)

// TestSalt is the rollout salt used across tests for deterministic bucketing.
const TestSalt = "test-salt"

// NewTestServer creates an API server over in-memory store and cache.
func NewTestServer(t *testing.T, adminKey string) (*api.Server, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	memCache := cache.NewMemory()
	evaluator := service.NewEvaluator(memStore, memCache, TestSalt, service.EvaluatorOptions{})
	mutator := service.NewMutator(memStore, memCache, service.MutatorOptions{})
	server := api.NewServer(evaluator, mutator, memStore, memCache, api.Options{AdminAPIKey: adminKey})
	return server, memStore
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedFlags populates the store with test flags.
func SeedFlags(ctx context.Context, st store.Store, flags []store.CreateParams) error {
	for _, f := range flags {
		if _, err := st.CreateFlag(ctx, f); err != nil {
			return err
		}
	}
	return nil
}
