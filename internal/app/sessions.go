package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions maps an operator session id to its Store. Idle sessions are
// dropped after ttl on the next Acquire.
type Sessions struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]*session
}

type session struct {
	store    *Store
	lastSeen time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{ttl: ttl, now: time.Now, items: map[string]*session{}}
}

// Acquire returns the store for id, creating a new session (and id) when id
// is empty, unknown, or expired.
func (s *Sessions) Acquire(id string) (string, *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	if sess, ok := s.items[id]; ok && id != "" {
		sess.lastSeen = now
		return id, sess.store
	}
	id = uuid.NewString()
	sess := &session{store: NewStore(), lastSeen: now}
	s.items[id] = sess
	return id, sess.store
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Sessions) evictLocked(now time.Time) {
	for id, sess := range s.items {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.items, id)
		}
	}
}
