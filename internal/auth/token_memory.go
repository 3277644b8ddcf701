package auth

import (
	"context"
	"sync"
	"time"

	"github.com/workzen-hq/workzen/internal/shared"
)

// MemoryTokenStore keeps grants in a map guarded by a RWMutex. Reads proceed
// concurrently; mutations take the write lock. Records past their retention
// window are reclaimed by Sweep.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	grants map[string]memoryGrant
	now    func() time.Time
}

type memoryGrant struct {
	grant    Grant
	retainTo time.Time
}

// NewMemoryTokenStore constructs an empty MemoryTokenStore.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		grants: make(map[string]memoryGrant),
		now:    time.Now,
	}
}

// Save stores the grant for the retention window.
func (s *MemoryTokenStore) Save(ctx context.Context, key string, grant Grant, retain time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[key] = memoryGrant{grant: grant, retainTo: s.now().Add(retain)}
	return nil
}

// Get fetches a grant, returning shared.ErrTokenInvalid on a miss or once the
// retention window has passed.
func (s *MemoryTokenStore) Get(ctx context.Context, key string) (*Grant, error) {
	s.mu.RLock()
	entry, ok := s.grants[key]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.retainTo) {
		return nil, shared.ErrTokenInvalid
	}
	grant := entry.grant
	return &grant, nil
}

// Delete removes a grant. Deleting an absent key is not an error.
func (s *MemoryTokenStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, key)
	return nil
}

// Sweep removes records past their retention window and reports how many
// were reclaimed.
func (s *MemoryTokenStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.grants {
		if now.After(entry.retainTo) {
			delete(s.grants, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of retained records, live or expired.
func (s *MemoryTokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.grants)
}

var _ TokenStore = (*MemoryTokenStore)(nil)
