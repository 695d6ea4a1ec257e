package app

import (
	"sync"
	"time"

	"flexliving_reviews/internal/domain"
)

// Store holds one operator's full, unfiltered review list. It is filled by
// Load and afterwards only the approval flag of a review ever changes.
type Store struct {
	mu       sync.RWMutex
	reviews  []domain.Review
	index    map[string]int
	loadedAt time.Time
}

func NewStore() *Store { return &Store{index: map[string]int{}} }

// Load replaces the store contents with a private copy of rs.
func (s *Store) Load(rs []domain.Review, at time.Time) {
	cp := make([]domain.Review, len(rs))
	copy(cp, rs)
	idx := make(map[string]int, len(cp))
	for i, r := range cp {
		idx[r.ID] = i
	}

	s.mu.Lock()
	s.reviews, s.index, s.loadedAt = cp, idx, at
	s.mu.Unlock()
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loadedAt.IsZero()
}

func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Snapshot returns a copy callers may filter and sort freely.
func (s *Store) Snapshot() []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Review, len(s.reviews))
	copy(out, s.reviews)
	return out
}

func (s *Store) Get(id string) (domain.Review, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Review{}, false
	}
	return s.reviews[i], true
}

// SetApproval sets the flag and returns the previous value. Setting the
// current value again changes nothing.
func (s *Store) SetApproval(id string, approved bool) (prev bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	prev = s.reviews[i].IsApproved
	s.reviews[i].IsApproved = approved
	return prev, nil
}

// Toggle flips pending <-> approved and returns the new value.
func (s *Store) Toggle(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	s.reviews[i].IsApproved = !s.reviews[i].IsApproved
	return s.reviews[i].IsApproved, nil
}
