package lesson

import (
	"context"
	"sync"
)

// InMemoryStore serves lesson context from a seeded map. Used in local/dev
// runs and as the degraded path when the durability layer is down.
type InMemoryStore struct {
	mu      sync.RWMutex
	lessons map[string]Context
}

func NewInMemoryStore(seed []Context) *InMemoryStore {
	s := &InMemoryStore{lessons: make(map[string]Context)}
	for _, l := range seed {
		s.lessons[l.LessonID] = l
	}
	return s
}

// Seed adds or replaces a lesson. Intended for tests and dev fixtures.
func (s *InMemoryStore) Seed(l Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lessons[l.LessonID] = l
}

func (s *InMemoryStore) Lookup(_ context.Context, lessonID string) (Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.lessons[lessonID]; ok {
		return l, nil
	}
	return Context{LessonID: lessonID}, nil
}

func (s *InMemoryStore) Close() error { return nil }
