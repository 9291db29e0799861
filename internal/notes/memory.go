package notes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store for tests and single-node setups. It
// enforces the same owner constraint as the Postgres store.
type MemStore struct {
	mu    sync.Mutex
	notes map[string]*Note // note id -> note
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{notes: make(map[string]*Note)}
}

// Create inserts a note.
func (s *MemStore) Create(_ context.Context, note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *note
	s.notes[note.ID] = &stored
	return nil
}

// Get retrieves one of the owner's notes.
func (s *MemStore) Get(_ context.Context, ownerID, id string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID || n.DeletedAt != nil {
		return nil, ErrNotFound
	}
	copied := *n
	return &copied, nil
}

// List returns all of the owner's live notes, newest first.
func (s *MemStore) List(_ context.Context, ownerID string) ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Note
	for _, n := range s.notes {
		if n.OwnerID != ownerID || n.DeletedAt != nil {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update rewrites one of the owner's notes.
func (s *MemStore) Update(_ context.Context, ownerID, id, content string, tags []string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID || n.DeletedAt != nil {
		return nil, ErrNotFound
	}
	n.Content = content
	n.Tags = tags
	n.UpdatedAt = time.Now()
	copied := *n
	return &copied, nil
}

// Delete soft-deletes one of the owner's notes.
func (s *MemStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID || n.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	n.DeletedAt = &now
	n.UpdatedAt = now
	return nil
}
