// Package notes stores the notes synced by the CLI. Every operation takes
// the owner identity derived from the caller's verified credential: reads,
// lists, updates and deletes are all constrained to records the owner holds,
// and a note belonging to someone else is indistinguishable from one that
// does not exist.
package notes

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the note does not exist for this owner. Existing
// notes owned by someone else return the same error, never a permission
// error, so note ids cannot be probed.
var ErrNotFound = errors.New("note not found")

// Note is a single note record.
type Note struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"-"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Store persists notes. There is deliberately no owner-free accessor: every
// method takes ownerID and implementations must apply it to every query.
type Store interface {
	Create(ctx context.Context, note *Note) error
	Get(ctx context.Context, ownerID, id string) (*Note, error)
	List(ctx context.Context, ownerID string) ([]Note, error)
	Update(ctx context.Context, ownerID, id, content string, tags []string) (*Note, error)
	Delete(ctx context.Context, ownerID, id string) error
}
