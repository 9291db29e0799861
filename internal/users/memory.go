package users

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store for tests and single-node setups.
type MemStore struct {
	mu      sync.Mutex
	byEmail map[string]*User
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{byEmail: make(map[string]*User)}
}

// Create inserts an account.
func (s *MemStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return ErrEmailTaken
	}
	stored := *u
	s.byEmail[u.Email] = &stored
	return nil
}

// GetByEmail retrieves an account by email.
func (s *MemStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}
