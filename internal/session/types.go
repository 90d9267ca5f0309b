// Package session owns live student presence: who is connected, which
// lesson sessions they hold, their per-connection heartbeat, and the
// accumulated behavioral signals the emotion engine reads. All other
// state in the engine hangs off this registry.
package session

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Session is one (student, lesson) engagement. At most one active session
// exists per pair; reconnects reactivate rather than duplicate. Marked
// inactive on disconnect and garbage-collected after the retention window.
type Session struct {
	ID             string     `json:"session_id"`
	StudentID      string     `json:"student_id"`
	LessonID       string     `json:"lesson_id"`
	Status         Status     `json:"status"`
	SlideIndex     int        `json:"slide_index"`
	MessageCount   int        `json:"message_count"`
	Ephemeral      bool       `json:"ephemeral,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func clone(s *Session) *Session {
	c := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
