package achievement

import (
	"testing"
	"time"
)

func drain(ch <-chan Notification) []Notification {
	var out []Notification
	for {
		select {
		case n := <-ch:
			out = append(out, n)
		case <-time.After(50 * time.Millisecond):
			return out
		}
	}
}

func TestFirstLessonBadgeUnlockedOnce(t *testing.T) {
	s := NewService()
	ch, unsub := s.Subscribe("u1")
	defer unsub()

	s.Record(Event{Type: EventSessionStarted, StudentID: "u1"})
	s.Record(Event{Type: EventSessionStarted, StudentID: "u1"})

	got := drain(ch)
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	if got[0].Badge == nil || got[0].Badge.ID != "first_lesson" {
		t.Fatalf("notification = %+v, want first_lesson badge", got[0])
	}
}

func TestHotStreakAndComeback(t *testing.T) {
	s := NewService()
	ch, unsub := s.Subscribe("u1")
	defer unsub()

	for i := 0; i < 3; i++ {
		s.Record(Event{Type: EventActivityRecorded, StudentID: "u1", Correct: false})
	}
	s.Record(Event{Type: EventActivityRecorded, StudentID: "u1", Correct: true})

	got := drain(ch)
	if len(got) != 1 || got[0].Badge == nil || got[0].Badge.ID != "comeback" {
		t.Fatalf("notifications = %+v, want comeback badge", got)
	}

	for i := 0; i < 4; i++ {
		s.Record(Event{Type: EventActivityRecorded, StudentID: "u1", Correct: true})
	}
	got = drain(ch)
	if len(got) != 1 || got[0].Badge == nil || got[0].Badge.ID != "hot_streak" {
		t.Fatalf("notifications = %+v, want hot_streak badge", got)
	}
}

func TestBreakSuggestedNotification(t *testing.T) {
	s := NewService()
	ch, unsub := s.Subscribe("u1")
	defer unsub()

	s.Record(Event{Type: EventBreakSuggested, StudentID: "u1"})
	got := drain(ch)
	if len(got) != 1 || got[0].Kind != "break_reminder" {
		t.Fatalf("notifications = %+v, want one break_reminder", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := NewService()
	ch, unsub := s.Subscribe("u1")
	unsub()

	s.Record(Event{Type: EventSessionStarted, StudentID: "u1"})
	if _, open := <-ch; open {
		t.Fatalf("channel should be closed after unsubscribe")
	}
	if badges := s.Badges("u1"); len(badges) != 1 {
		t.Fatalf("Badges() = %v, want the rule still evaluated", badges)
	}
}
