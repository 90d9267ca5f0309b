package profile

import (
	"context"
	"sync"
	"time"

	"github.com/lumenlearn/tutorcore/internal/emotion"
)

const rollingListCap = 10

// InMemoryStore is a process-local profile store for local/dev use and for
// degraded operation when the durability layer is unavailable.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*StudentProfile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]*StudentProfile)}
}

// Get returns a copy of the profile, creating a default one for first-time
// students. Profiles are never deleted.
func (s *InMemoryStore) Get(_ context.Context, studentID string) (*StudentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[studentID]
	if !ok {
		p = NewDefault(studentID)
		s.profiles[studentID] = p
	}
	return cloneProfile(p), nil
}

func (s *InMemoryStore) Save(_ context.Context, p *StudentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneProfile(p)
	c.UpdatedAt = time.Now().UTC()
	truncateRolling(c)
	s.profiles[p.StudentID] = c
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

// NewDefault builds the profile used before anything is known about a student.
func NewDefault(studentID string) *StudentProfile {
	return &StudentProfile{
		StudentID: studentID,
		Grade:     5,
		Style:     LearningStyle{Visual: 0.5, Auditory: 0.5, Kinesthetic: 0.5, Reading: 0.5},
		Baseline:  Baseline{Mood: emotion.MoodNeutral, Confidence: 70, Engagement: 70},
		UpdatedAt: time.Now().UTC(),
	}
}

// AppendRolling appends value to list with FIFO eviction at the cap,
// skipping duplicates already present.
func AppendRolling(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	list = append(list, value)
	if len(list) > rollingListCap {
		list = list[len(list)-rollingListCap:]
	}
	return list
}

func truncateRolling(p *StudentProfile) {
	if len(p.Strengths) > rollingListCap {
		p.Strengths = p.Strengths[len(p.Strengths)-rollingListCap:]
	}
	if len(p.Weaknesses) > rollingListCap {
		p.Weaknesses = p.Weaknesses[len(p.Weaknesses)-rollingListCap:]
	}
}

func cloneProfile(p *StudentProfile) *StudentProfile {
	c := *p
	c.Strengths = append([]string(nil), p.Strengths...)
	c.Weaknesses = append([]string(nil), p.Weaknesses...)
	return &c
}
