package telemetry

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// EvalDecisions counts flag decisions by the reason that produced them.
	EvalDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flag_eval_decisions_total",
		Help: "Flag evaluation decisions by reason",
	}, []string{"reason"})

	// CacheRequests counts decision cache lookups by outcome.
	CacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "decision_cache_requests_total",
		Help: "Decision cache lookups by outcome (hit, miss)",
	}, []string{"outcome"})

	// CacheErrors counts swallowed cache-backend failures.
	CacheErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "decision_cache_errors_total",
		Help: "Cache backend failures absorbed by the evaluation path",
	})

	// InvalidationFailures counts cache invalidations that failed after a
	// committed mutation.
	InvalidationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_invalidation_failures_total",
		Help: "Cache invalidations that failed after a successful mutation",
	})
)

func Init() {
	prometheus.MustRegister(httpReqs, httpDur, EvalDecisions, CacheRequests, CacheErrors, InvalidationFailures)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// get route pattern if available
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
