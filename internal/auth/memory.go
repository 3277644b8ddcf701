package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/workzen-hq/workzen/internal/shared"
)

// MemoryRepository is an in-memory Repository used in tests and local
// development. The uniqueness check and insert share one lock, so concurrent
// creates with the same email admit exactly one winner.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*User
	byID    map[string]*User
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
	}
}

// FindByEmail fetches a user by email.
func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// FindByID fetches a user by ID.
func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// Create inserts a new identity, failing with ErrEmailTaken on conflict.
func (r *MemoryRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := r.byEmail[key]; exists {
		return ErrEmailTaken
	}
	copied := *user
	r.byEmail[key] = &copied
	r.byID[copied.ID] = &copied
	return nil
}

// Len returns the number of stored identities.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

var _ Repository = (*MemoryRepository)(nil)
