package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id         UUID PRIMARY KEY,
	owner_id   UUID NOT NULL,
	content    TEXT NOT NULL,
	tags       TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	deleted_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS notes_owner_idx ON notes (owner_id)`

// PGStore implements Store on Postgres. Every statement carries owner_id in
// its WHERE clause; there is no code path that queries notes globally.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed store and ensures its schema.
func NewPGStore(ctx context.Context, pool *pgxpool.Pool) (*PGStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensuring notes schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Create inserts a note.
func (s *PGStore) Create(ctx context.Context, note *Note) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notes (id, owner_id, content, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		note.ID, note.OwnerID, note.Content, note.Tags, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

// Get retrieves one of the owner's notes.
func (s *PGStore) Get(ctx context.Context, ownerID, id string) (*Note, error) {
	var n Note
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, content, tags, created_at, updated_at
		 FROM notes WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL`,
		ownerID, id,
	).Scan(&n.ID, &n.OwnerID, &n.Content, &n.Tags, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying note: %w", err)
	}
	return &n, nil
}

// List returns all of the owner's live notes, newest first.
func (s *PGStore) List(ctx context.Context, ownerID string) ([]Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, content, tags, created_at, updated_at
		 FROM notes WHERE owner_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Content, &n.Tags, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return out, nil
}

// Update rewrites one of the owner's notes.
func (s *PGStore) Update(ctx context.Context, ownerID, id, content string, tags []string) (*Note, error) {
	var n Note
	err := s.pool.QueryRow(ctx,
		`UPDATE notes SET content = $3, tags = $4, updated_at = now()
		 WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL
		 RETURNING id, owner_id, content, tags, created_at, updated_at`,
		ownerID, id, content, tags,
	).Scan(&n.ID, &n.OwnerID, &n.Content, &n.Tags, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating note: %w", err)
	}
	return &n, nil
}

// Delete soft-deletes one of the owner's notes so sync can propagate the
// tombstone.
func (s *PGStore) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notes SET deleted_at = now(), updated_at = now()
		 WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL`,
		ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
