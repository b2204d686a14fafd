// Package validation provides validation rules for flag data and request
// parameters. Constraint violations are collected per field so API responses
// can report every problem at once.
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/forestbush/bushel/internal/rules"
	"github.com/forestbush/bushel/internal/store"
)

const (
	// MinKeyLength is the minimum length for flag keys
	MinKeyLength = 3
	// MaxKeyLength is the maximum length for flag keys
	MaxKeyLength = 100
	// MaxDescriptionLength is the maximum length for flag descriptions
	MaxDescriptionLength = 255
)

// keyPattern matches alphanumerics, underscores, periods, and hyphens
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Result holds the outcome of validation
type Result struct {
	Valid  bool
	Errors map[string]string
}

// NewResult creates a new validation result
func NewResult() *Result {
	return &Result{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (r *Result) AddError(field, message string) {
	r.Valid = false
	r.Errors[field] = message
}

// Merge combines another validation result into this one
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		r.AddError(field, message)
	}
}

// ValidateCreate validates the parameters of a flag create request.
func ValidateCreate(params store.CreateParams) *Result {
	result := NewResult()
	result.Merge(ValidateKey(params.Key))
	result.Merge(ValidateDescription(params.Description))
	result.Merge(ValidateRules(params.Rules))
	return result
}

// ValidateUpdate validates the parameters of a partial flag update.
// An update carrying no fields at all is rejected.
func ValidateUpdate(params store.UpdateParams) *Result {
	result := NewResult()
	if params.Empty() {
		result.AddError("update", "At least one field must be provided")
		return result
	}
	if params.Description != nil {
		result.Merge(ValidateDescription(*params.Description))
	}
	if params.SetRules {
		result.Merge(ValidateRules(params.Rules))
	}
	return result
}

// ValidateKey validates a flag key
func ValidateKey(key string) *Result {
	result := NewResult()

	if key == "" {
		result.AddError("key", "Key is required")
		return result
	}
	length := utf8.RuneCountInString(key)
	if length < MinKeyLength {
		result.AddError("key", fmt.Sprintf("Key must be at least %d characters long", MinKeyLength))
		return result
	}
	if length > MaxKeyLength {
		result.AddError("key", fmt.Sprintf("Key must be at most %d characters long", MaxKeyLength))
		return result
	}
	if !keyPattern.MatchString(key) {
		result.AddError("key", "Key can only contain alphanumeric characters, underscores, hyphens, and periods")
	}
	return result
}

// ValidateDescription validates a flag description
func ValidateDescription(description string) *Result {
	result := NewResult()
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		result.AddError("description", fmt.Sprintf("Description must be at most %d characters long", MaxDescriptionLength))
	}
	return result
}

// ValidateRules validates a rules object. Nil rules are valid.
func ValidateRules(r *rules.Rules) *Result {
	result := NewResult()
	if err := r.Validate(); err != nil {
		result.AddError("rules.rolloutPercentage", "Rollout percentage must be between 0 and 100")
	}
	return result
}
