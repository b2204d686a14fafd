package store

import (
	"context"
	"errors"
	"time"

	"github.com/forestbush/bushel/internal/rules"
)

// ErrNotFound is returned when a flag key does not exist in the store.
var ErrNotFound = errors.New("flag not found")

// ErrConflict is returned when creating a flag whose key already exists.
var ErrConflict = errors.New("flag key already exists")

// Store defines the interface for flag persistence operations.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// CreateFlag inserts a new flag. Returns ErrConflict when the key is taken.
	CreateFlag(ctx context.Context, params CreateParams) (*Flag, error)

	// GetFlag retrieves a single flag by its key.
	// Returns ErrNotFound if the flag does not exist.
	GetFlag(ctx context.Context, key string) (*Flag, error)

	// ListFlags retrieves all flags, newest-created first.
	ListFlags(ctx context.Context) ([]Flag, error)

	// UpdateFlag applies a partial update to an existing flag and returns the
	// updated record. Returns ErrNotFound if the flag does not exist.
	UpdateFlag(ctx context.Context, key string, params UpdateParams) (*Flag, error)

	// DeleteFlag removes a flag by key.
	// Returns ErrNotFound if the flag does not exist.
	DeleteFlag(ctx context.Context, key string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Flag represents a feature flag with all its attributes.
type Flag struct {
	Key         string       `json:"key"`
	Description string       `json:"description,omitempty"`
	Enabled     bool         `json:"enabled"`
	Rules       *rules.Rules `json:"rules,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// CreateParams contains the parameters for creating a flag.
type CreateParams struct {
	Key         string       `json:"key"`
	Description string       `json:"description,omitempty"`
	Enabled     bool         `json:"enabled"`
	Rules       *rules.Rules `json:"rules,omitempty"`
}

// UpdateParams contains the fields of a partial flag update. Nil fields are
// left untouched. Rules are replaced only when SetRules is true; SetRules with
// a nil Rules clears them.
type UpdateParams struct {
	Description *string
	Enabled     *bool
	SetRules    bool
	Rules       *rules.Rules
}

// Empty reports whether the update carries no fields at all.
func (p UpdateParams) Empty() bool {
	return p.Description == nil && p.Enabled == nil && !p.SetRules
}
