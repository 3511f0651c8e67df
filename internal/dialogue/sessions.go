package dialogue

import (
	"sync"
	"time"

	"github.com/ashureev/collabmatch/internal/domain"
	"github.com/ashureev/collabmatch/internal/metrics"
)

type sessionEntry struct {
	mu       sync.Mutex
	session  domain.ConversationSession
	lastSeen time.Time
	removed  bool
}

// SessionStore keeps one conversation session per identity in memory.
// Turns for the same identity are serialized; different identities do not
// block each other.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	now     func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		entries: make(map[string]*sessionEntry),
		now:     time.Now,
	}
}

// With runs fn with exclusive access to the identity's session, creating it
// on first use. Changes fn makes to the session are kept.
func (s *SessionStore) With(id string, fn func(*domain.ConversationSession)) {
	for {
		e := s.entry(id)
		e.mu.Lock()
		if e.removed {
			// Swept between lookup and lock; retry with a fresh entry.
			e.mu.Unlock()
			continue
		}
		fn(&e.session)
		e.lastSeen = s.now()
		e.mu.Unlock()
		return
	}
}

func (s *SessionStore) entry(id string) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &sessionEntry{lastSeen: s.now()}
		s.entries[id] = e
		metrics.ActiveSessions.Inc()
	}
	return e
}

// Get returns a copy of the identity's session.
func (s *SessionStore) Get(id string) (domain.ConversationSession, bool) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return domain.ConversationSession{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return domain.ConversationSession{}, false
	}
	return e.session.Clone(), true
}

// Delete forgets the identity's session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
		metrics.ActiveSessions.Dec()
	}
	s.mu.Unlock()
	if ok {
		e.mu.Lock()
		e.removed = true
		e.mu.Unlock()
	}
}

// Count returns the number of tracked identities.
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SweepIdle removes sessions not touched for longer than ttl and returns
// the removed identities. Sessions in the middle of a turn are skipped.
func (s *SessionStore) SweepIdle(ttl time.Duration) []string {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			e.removed = true
			delete(s.entries, id)
			metrics.ActiveSessions.Dec()
			removed = append(removed, id)
		}
		e.mu.Unlock()
	}
	return removed
}
