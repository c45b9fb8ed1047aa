package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/session"
)

var (
	// ErrNotFound is returned when no session exists for an id.
	ErrNotFound = errors.New("session not found")
)

// MemoryStore is a concurrency-safe in-memory store of dashboard sessions.
type MemoryStore struct {
	mu sync.RWMutex

	// key: session id
	data map[string]*session.Session

	// retention configuration
	maxSessions int           // max number of live sessions (0 = unlimited)
	maxAge      time.Duration // idle time after which a session expires (0 = never)
	chatLimit   int

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxSessions is <= 0, it is treated as unlimited.
func NewMemoryStore(maxSessions int, maxAge time.Duration, chatLimit int) *MemoryStore {
	return &MemoryStore{
		data:        make(map[string]*session.Session),
		maxSessions: maxSessions,
		maxAge:      maxAge,
		chatLimit:   chatLimit,
		now:         time.Now,
	}
}

// Create starts a new empty session and enforces retention by count.
func (s *MemoryStore) Create() *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := session.New(uuid.NewString(), s.chatLimit, s.now())
	s.data[sess.ID] = sess

	// Enforce retention by count, least recently updated first.
	if s.maxSessions > 0 && len(s.data) > s.maxSessions {
		all := make([]*session.Session, 0, len(s.data))
		for _, v := range s.data {
			if v.ID != sess.ID {
				all = append(all, v)
			}
		}
		sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.Before(all[j].UpdatedAt) })
		for _, v := range all[:len(s.data)-s.maxSessions] {
			delete(s.data, v.ID)
		}
	}
	return sess.Clone()
}

// Get returns a copy of the session.
func (s *MemoryStore) Get(id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[id]
	if !ok || s.expired(sess) {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

// Update applies fn to the stored session under the store lock. Overlapping
// updates to one session are serialized; the last write wins.
func (s *MemoryStore) Update(id string, fn func(*session.Session) error) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.data[id]
	if !ok || s.expired(sess) {
		return nil, ErrNotFound
	}
	draft := sess.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	draft.UpdatedAt = s.now()
	s.data[id] = draft
	return draft.Clone(), nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// EvictExpired drops sessions idle for longer than the max age and returns how many were removed.
func (s *MemoryStore) EvictExpired() int {
	if s.maxAge <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.data {
		if s.expired(sess) {
			delete(s.data, id)
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(sess *session.Session) bool {
	if s.maxAge <= 0 {
		return false
	}
	return sess.UpdatedAt.Before(s.now().Add(-s.maxAge))
}
