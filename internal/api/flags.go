package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forestbush/bushel/internal/rules"
	"github.com/forestbush/bushel/internal/store"
	"github.com/forestbush/bushel/internal/validation"
)

// createFlagRequest is the body of POST /v1/admin/flags.
type createFlagRequest struct {
	Key         string          `json:"key"`
	Description string          `json:"description"`
	Enabled     bool            `json:"enabled"`
	Rules       json.RawMessage `json:"rules,omitempty"`
}

// updateFlagRequest is the body of PATCH /v1/admin/flags/{key}. All fields
// are optional; rules distinguishes absent (untouched) from JSON null
// (explicitly cleared) via the raw message.
type updateFlagRequest struct {
	Description *string         `json:"description,omitempty"`
	Enabled     *bool           `json:"enabled,omitempty"`
	Rules       json.RawMessage `json:"rules,omitempty"`
}

func (s *Server) handleCreateFlag(w http.ResponseWriter, r *http.Request) {
	var req createFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	parsedRules, err := parseRules(req.Rules)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "rules must be a JSON object")
		return
	}

	params := store.CreateParams{
		Key:         req.Key,
		Description: req.Description,
		Enabled:     req.Enabled,
		Rules:       parsedRules,
	}

	if result := validation.ValidateCreate(params); !result.Valid {
		ValidationError(w, r, "validation failed", result.Errors)
		return
	}

	flag, err := s.mutator.Create(r.Context(), params)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			ConflictError(w, r, fmt.Sprintf("a flag with key %q already exists", req.Key))
			return
		}
		InternalError(w, r, "error creating feature flag")
		return
	}

	writeJSON(w, http.StatusCreated, flag)
}

func (s *Server) handleListFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := s.store.ListFlags(r.Context())
	if err != nil {
		InternalError(w, r, "error fetching feature flags")
		return
	}
	if flags == nil {
		flags = []store.Flag{}
	}
	writeJSON(w, http.StatusOK, flags)
}

func (s *Server) handleGetFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	flag, err := s.store.GetFlag(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, fmt.Sprintf("flag with key %q not found", key))
			return
		}
		InternalError(w, r, "error fetching feature flag")
		return
	}
	writeJSON(w, http.StatusOK, flag)
}

func (s *Server) handleUpdateFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req updateFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	params := store.UpdateParams{
		Description: req.Description,
		Enabled:     req.Enabled,
	}
	if len(req.Rules) > 0 {
		params.SetRules = true
		parsedRules, err := parseRules(req.Rules)
		if err != nil {
			BadRequestError(w, r, ErrCodeInvalidJSON, "rules must be a JSON object or null")
			return
		}
		params.Rules = parsedRules
	}

	if result := validation.ValidateUpdate(params); !result.Valid {
		ValidationError(w, r, "validation failed", result.Errors)
		return
	}

	flag, err := s.mutator.Update(r.Context(), key, params)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, fmt.Sprintf("flag with key %q not found", key))
			return
		}
		InternalError(w, r, "error updating feature flag")
		return
	}
	writeJSON(w, http.StatusOK, flag)
}

func (s *Server) handleDeleteFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := s.mutator.Delete(r.Context(), key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, fmt.Sprintf("flag with key %q not found", key))
			return
		}
		InternalError(w, r, "error deleting feature flag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseRules decodes a raw rules value. JSON null yields nil rules.
func parseRules(raw json.RawMessage) (*rules.Rules, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var r rules.Rules
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
