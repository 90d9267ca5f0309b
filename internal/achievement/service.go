// Package achievement is the notification side-channel: it reacts to
// session and orchestrator events by unlocking badges and pushing advisory
// notifications. Nothing in here is ever consulted by the generation path.
package achievement

import (
	"sync"
	"time"
)

// EventType tags a domain event the side-channel reacts to.
type EventType string

const (
	EventSessionStarted   EventType = "session_started"
	EventSessionEnded     EventType = "session_ended"
	EventActivityRecorded EventType = "activity_recorded"
	EventScriptGenerated  EventType = "script_generated"
	EventBreakSuggested   EventType = "break_suggested"
)

// Event is a single observation pushed into the side-channel.
type Event struct {
	Type      EventType
	StudentID string
	Correct   bool
	At        time.Time
}

// Badge is an unlocked achievement.
type Badge struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Detail     string    `json:"detail"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Notification is pushed to the student's connection when something worth
// telling them about happens.
type Notification struct {
	Kind      string    `json:"kind"` // badge | break_reminder
	StudentID string    `json:"student_id"`
	Message   string    `json:"message"`
	Badge     *Badge    `json:"badge,omitempty"`
	At        time.Time `json:"at"`
}

type studentProgress struct {
	sessions      int
	interactions  int
	correctStreak int
	wrongStreak   int
	unlocked      map[string]bool
}

// Service evaluates badge rules over incoming events and fans notifications
// out to per-student subscribers. Safe for concurrent use.
type Service struct {
	mu          sync.Mutex
	progress    map[string]*studentProgress
	subscribers map[string][]chan Notification
}

func NewService() *Service {
	return &Service{
		progress:    make(map[string]*studentProgress),
		subscribers: make(map[string][]chan Notification),
	}
}

// Subscribe returns a notification channel for one student plus an
// unsubscribe func. The channel is buffered; slow consumers lose
// notifications rather than blocking the event source.
func (s *Service) Subscribe(studentID string) (<-chan Notification, func()) {
	ch := make(chan Notification, 16)
	s.mu.Lock()
	s.subscribers[studentID] = append(s.subscribers[studentID], ch)
	s.mu.Unlock()

	unsub := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subscribers[studentID]
		for i, c := range subs {
			if c == ch {
				s.subscribers[studentID] = append(subs[:i], subs[i+1:]...)
				close(c)
				return
			}
		}
	}
	return ch, unsub
}

// Record processes one event synchronously. It never calls back into the
// session manager or the orchestrator.
func (s *Service) Record(evt Event) {
	if evt.StudentID == "" {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	s.mu.Lock()
	p, ok := s.progress[evt.StudentID]
	if !ok {
		p = &studentProgress{unlocked: make(map[string]bool)}
		s.progress[evt.StudentID] = p
	}

	var out []Notification
	switch evt.Type {
	case EventSessionStarted:
		p.sessions++
		if p.sessions == 1 {
			out = s.unlockLocked(p, evt, "first_lesson", "First Lesson", "Started your very first lesson.")
		}
		if p.sessions == 5 {
			out = append(out, s.unlockLocked(p, evt, "regular", "Regular", "Five lessons started. Keep it up.")...)
		}
	case EventActivityRecorded:
		if evt.Correct {
			hadSlump := p.wrongStreak >= 3
			p.correctStreak++
			p.wrongStreak = 0
			if p.correctStreak == 5 {
				out = s.unlockLocked(p, evt, "hot_streak", "Hot Streak", "Five correct answers in a row.")
			}
			if hadSlump {
				out = append(out, s.unlockLocked(p, evt, "comeback", "Comeback", "Got one right after a rough patch.")...)
			}
		} else {
			p.wrongStreak++
			p.correctStreak = 0
		}
	case EventScriptGenerated:
		p.interactions++
		if p.interactions == 10 {
			out = s.unlockLocked(p, evt, "curious_mind", "Curious Mind", "Ten questions explored.")
		}
	case EventBreakSuggested:
		out = append(out, Notification{
			Kind:      "break_reminder",
			StudentID: evt.StudentID,
			Message:   "You've been working hard. A short break will help you focus.",
			At:        evt.At,
		})
	}
	subs := append([]chan Notification(nil), s.subscribers[evt.StudentID]...)
	s.mu.Unlock()

	for _, n := range out {
		for _, ch := range subs {
			select {
			case ch <- n:
			default:
			}
		}
	}
}

// Badges returns the badges a student has unlocked so far.
func (s *Service) Badges(studentID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[studentID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(p.unlocked))
	for id := range p.unlocked {
		out = append(out, id)
	}
	return out
}

func (s *Service) unlockLocked(p *studentProgress, evt Event, id, name, detail string) []Notification {
	if p.unlocked[id] {
		return nil
	}
	p.unlocked[id] = true
	badge := &Badge{ID: id, Name: name, Detail: detail, UnlockedAt: evt.At}
	return []Notification{{
		Kind:      "badge",
		StudentID: evt.StudentID,
		Message:   name + " unlocked: " + detail,
		Badge:     badge,
		At:        evt.At,
	}}
}
