package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forestbush/bushel/internal/validation"
)

// handleEvaluate handles GET /v1/evaluate/{key}?callerId=...
//
// The response is always a success-class status carrying a decision object;
// internal failures surface only through the decision's reason field, so
// evaluation clients never need an error path. Only a malformed flag key is
// rejected up front, before any store or engine work.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if result := validation.ValidateKey(key); !result.Valid {
		ValidationError(w, r, "invalid flag key", result.Errors)
		return
	}

	callerID := r.URL.Query().Get("callerId")
	decision := s.evaluator.Evaluate(r.Context(), key, callerID)
	writeJSON(w, http.StatusOK, decision)
}
