package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps session records in process memory. Default when no
// database is configured, and the degraded target when one is.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) FindActive(_ context.Context, studentID, lessonID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.StudentID == studentID && sess.LessonID == lessonID && sess.Status == StatusActive {
			return clone(sess), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.StudentID == sess.StudentID && existing.LessonID == sess.LessonID && existing.Status == StatusActive {
			return ErrDuplicate
		}
	}
	s.sessions[sess.ID] = clone(sess)
	return nil
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = clone(sess)
	return nil
}

func (s *MemoryStore) DeleteIdleBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.Status == StatusInactive && sess.LastActivityAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }
