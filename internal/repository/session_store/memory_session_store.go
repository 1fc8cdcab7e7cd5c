// Package session_store holds the in-memory session table. It is the only
// mutable shared state in the secure-channel core: one handshake writes while
// many requests read and a periodic sweep deletes.
package session_store

import (
	"sync"
	"time"

	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
)

type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domain.Session),
	}
}

// Save inserts or overwrites the entry for sess.ID. The key slice is copied
// so later caller mutation cannot reach the table.
func (s *MemorySessionStore) Save(sess domain.Session) {
	key := make([]byte, len(sess.Key))
	copy(key, sess.Key)
	sess.Key = key

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
}

func (s *MemorySessionStore) Get(sessionID string) (domain.Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	return sess, ok
}

func (s *MemorySessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Cleanup removes entries older than maxAge and returns how many were swept.
// The table has no capacity ceiling; this sweep is the only eviction.
func (s *MemorySessionStore) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
