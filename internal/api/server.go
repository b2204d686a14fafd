package api

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/forestbush/bushel/internal/cache"
	"github.com/forestbush/bushel/internal/service"
	"github.com/forestbush/bushel/internal/store"
	"github.com/forestbush/bushel/internal/telemetry"
)

// Options carries the tunables of the HTTP server.
type Options struct {
	// AdminAPIKey is the shared secret protecting mutation endpoints. When
	// empty, admin routes are left unprotected and a warning is logged at
	// construction (development only; config validation forbids it in prod).
	AdminAPIKey string
	// RateLimitPerIP bounds requests per IP per minute. 0 disables limiting.
	RateLimitPerIP int
}

type Server struct {
	evaluator *service.Evaluator
	mutator   *service.Mutator
	store     store.Store
	cache     cache.ResultCache
	opts      Options
}

// NewServer wires the evaluation and mutation services into an HTTP surface.
// store and cache are only used directly for health reporting.
func NewServer(ev *service.Evaluator, mu *service.Mutator, st store.Store, rc cache.ResultCache, opts Options) *Server {
	if opts.AdminAPIKey == "" {
		log.Println("WARNING: admin API key not configured, admin routes are unprotected")
	}
	return &Server{evaluator: ev, mutator: mu, store: st, cache: rc, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	r.Use(telemetry.Middleware)
	if s.opts.RateLimitPerIP > 0 {
		r.Use(httprate.LimitByIP(s.opts.RateLimitPerIP, time.Minute))
	}

	// liveness
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// readiness: store and cache reachability
	r.Get("/healthz", s.handleHealthz)

	// public: evaluation
	r.Get("/v1/evaluate/{key}", s.handleEvaluate)

	// admin (protected): flag CRUD
	r.Route("/v1/admin/flags", func(r chi.Router) {
		r.Use(s.authAdmin)
		r.Post("/", s.handleCreateFlag)
		r.Get("/", s.handleListFlags)
		r.Get("/{key}", s.handleGetFlag)
		r.Patch("/{key}", s.handleUpdateFlag)
		r.Delete("/{key}", s.handleDeleteFlag)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status": "ok",
		"store":  "connected",
		"cache":  "connected",
	}
	code := http.StatusOK

	if err := s.store.Ping(r.Context()); err != nil {
		status["status"] = "error"
		status["store"] = err.Error()
		code = http.StatusInternalServerError
	}
	if err := s.cache.Ping(r.Context()); err != nil {
		status["status"] = "error"
		status["cache"] = err.Error()
		code = http.StatusInternalServerError
	}

	writeJSON(w, code, status)
}

// ---- middleware & helpers ----

// authAdmin guards mutation endpoints with the shared admin secret.
// A missing X-API-Key header is 401, a wrong one 403.
func (s *Server) authAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AdminAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		got := r.Header.Get("X-API-Key")
		if got == "" {
			UnauthorizedError(w, r, "API key required in X-API-Key header")
			return
		}
		// constant-time compare
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.AdminAPIKey)) != 1 {
			ForbiddenError(w, r, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
