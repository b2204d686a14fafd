package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forestbush/bushel/internal/rules"
)

// uniqueViolation is the postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

const flagColumns = "key, description, enabled, rules, created_at"

// PostgresStore is a PostgreSQL implementation of the Store interface backed
// by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateFlag inserts a new flag. The key uniqueness constraint is enforced by
// the database; a unique violation maps to ErrConflict.
func (p *PostgresStore) CreateFlag(ctx context.Context, params CreateParams) (*Flag, error) {
	rulesBytes, err := marshalRules(params.Rules)
	if err != nil {
		return nil, err
	}

	row := p.pool.QueryRow(ctx,
		`INSERT INTO flags (key, description, enabled, rules)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+flagColumns,
		params.Key, textOrNull(params.Description), params.Enabled, rulesBytes,
	)

	flag, err := scanFlag(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create flag: %w", err)
	}
	return flag, nil
}

// GetFlag retrieves a single flag by its key.
func (p *PostgresStore) GetFlag(ctx context.Context, key string) (*Flag, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+flagColumns+` FROM flags WHERE key = $1`, key)

	flag, err := scanFlag(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get flag: %w", err)
	}
	return flag, nil
}

// ListFlags retrieves all flags, newest-created first.
func (p *PostgresStore) ListFlags(ctx context.Context) ([]Flag, error) {
	dbRows, err := p.pool.Query(ctx,
		`SELECT `+flagColumns+` FROM flags ORDER BY created_at DESC, key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer dbRows.Close()

	var flags []Flag
	for dbRows.Next() {
		flag, err := scanFlag(dbRows)
		if err != nil {
			return nil, fmt.Errorf("list flags: %w", err)
		}
		flags = append(flags, *flag)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	return flags, nil
}

// UpdateFlag applies a partial update in a single statement; untouched fields
// keep their stored values.
func (p *PostgresStore) UpdateFlag(ctx context.Context, key string, params UpdateParams) (*Flag, error) {
	var rulesBytes []byte
	if params.SetRules {
		b, err := marshalRules(params.Rules)
		if err != nil {
			return nil, err
		}
		rulesBytes = b
	}

	description := pgtype.Text{}
	if params.Description != nil {
		description = pgtype.Text{String: *params.Description, Valid: true}
	}
	enabled := pgtype.Bool{}
	if params.Enabled != nil {
		enabled = pgtype.Bool{Bool: *params.Enabled, Valid: true}
	}

	row := p.pool.QueryRow(ctx,
		`UPDATE flags SET
			description = COALESCE($2, description),
			enabled     = COALESCE($3, enabled),
			rules       = CASE WHEN $4 THEN $5 ELSE rules END
		 WHERE key = $1
		 RETURNING `+flagColumns,
		key, description, enabled, params.SetRules, rulesBytes,
	)

	flag, err := scanFlag(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update flag: %w", err)
	}
	return flag, nil
}

// DeleteFlag removes a flag by key.
func (p *PostgresStore) DeleteFlag(ctx context.Context, key string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM flags WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping verifies database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlag(row rowScanner) (*Flag, error) {
	var (
		flag        Flag
		description pgtype.Text
		rulesBytes  []byte
		createdAt   time.Time
	)
	if err := row.Scan(&flag.Key, &description, &flag.Enabled, &rulesBytes, &createdAt); err != nil {
		return nil, err
	}
	flag.Description = description.String
	flag.CreatedAt = createdAt

	if len(rulesBytes) > 0 {
		var r rules.Rules
		if err := json.Unmarshal(rulesBytes, &r); err != nil {
			return nil, fmt.Errorf("decode rules for %q: %w", flag.Key, err)
		}
		flag.Rules = &r
	}
	return &flag, nil
}

func marshalRules(r *rules.Rules) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	return b, nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
