package profile

import (
	"context"
	"testing"

	"github.com/lumenlearn/tutorcore/internal/emotion"
)

func TestInMemoryStoreGetCreatesDefault(t *testing.T) {
	s := NewInMemoryStore()
	p, err := s.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.StudentID != "u1" {
		t.Fatalf("StudentID = %q, want u1", p.StudentID)
	}
	if p.Baseline.Mood != emotion.MoodNeutral {
		t.Fatalf("Baseline.Mood = %q, want neutral", p.Baseline.Mood)
	}
}

func TestInMemoryStoreSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	p, _ := s.Get(ctx, "u1")
	p.SessionCount = 3
	p.Weaknesses = AppendRolling(p.Weaknesses, "fractions")
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, _ := s.Get(ctx, "u1")
	if got.SessionCount != 3 {
		t.Fatalf("SessionCount = %d, want 3", got.SessionCount)
	}
	if len(got.Weaknesses) != 1 || got.Weaknesses[0] != "fractions" {
		t.Fatalf("Weaknesses = %v, want [fractions]", got.Weaknesses)
	}

	// Mutating the returned copy must not affect the stored profile.
	got.SessionCount = 99
	again, _ := s.Get(ctx, "u1")
	if again.SessionCount != 3 {
		t.Fatalf("stored profile mutated through returned copy")
	}
}

func TestAppendRollingFIFOAndDedup(t *testing.T) {
	var list []string
	for i := 0; i < rollingListCap+5; i++ {
		list = AppendRolling(list, string(rune('a'+i)))
	}
	if len(list) != rollingListCap {
		t.Fatalf("len = %d, want %d", len(list), rollingListCap)
	}
	if list[0] != "f" {
		t.Fatalf("oldest entry = %q, want FIFO eviction from the front", list[0])
	}

	before := len(list)
	list = AppendRolling(list, list[len(list)-1])
	if len(list) != before {
		t.Fatalf("duplicate append grew the list")
	}
}

func TestSuccessRatio(t *testing.T) {
	p := NewDefault("u1")
	if got := p.SuccessRatio(); got != 0.5 {
		t.Fatalf("SuccessRatio() with no answers = %v, want 0.5", got)
	}
	p.AnswersTotal = 10
	p.AnswersCorrect = 9
	if got := p.SuccessRatio(); got != 0.9 {
		t.Fatalf("SuccessRatio() = %v, want 0.9", got)
	}
}

func TestBlendBaseline(t *testing.T) {
	b := Baseline{Mood: emotion.MoodNeutral, Confidence: 70, Engagement: 70}
	st := emotion.State{Mood: emotion.MoodFrustrated, Confidence: 40, Engagement: 50}
	out := BlendBaseline(b, st)
	if out.Mood != emotion.MoodFrustrated {
		t.Fatalf("Mood = %q, want frustrated", out.Mood)
	}
	if out.Confidence != 61 {
		t.Fatalf("Confidence = %d, want 61", out.Confidence)
	}
	if out.Engagement != 64 {
		t.Fatalf("Engagement = %d, want 64", out.Engagement)
	}

	neutral := emotion.State{Mood: emotion.MoodNeutral, Confidence: 70, Engagement: 70}
	out = BlendBaseline(out, neutral)
	if out.Mood != emotion.MoodFrustrated {
		t.Fatalf("neutral state should not overwrite the baseline mood")
	}
}

func TestSaveLeavesCallerUntouched(t *testing.T) {
	over := make([]string, rollingListCap+2)
	for i := range over {
		over[i] = "topic"
	}

	p := NewDefault("u2")
	p.Weaknesses = append([]string(nil), over...)

	s := NewInMemoryStore()
	if err := s.Save(context.Background(), p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(p.Weaknesses) != rollingListCap+2 {
		t.Fatalf("caller Weaknesses len = %d, want %d", len(p.Weaknesses), rollingListCap+2)
	}
	stored, _ := s.Get(context.Background(), "u2")
	if len(stored.Weaknesses) != rollingListCap {
		t.Fatalf("stored Weaknesses len = %d, want cap %d", len(stored.Weaknesses), rollingListCap)
	}

	// The clone-then-truncate pair both stores rely on must not alias the
	// caller's slices.
	c := cloneProfile(p)
	truncateRolling(c)
	if len(p.Weaknesses) != rollingListCap+2 || len(c.Weaknesses) != rollingListCap {
		t.Fatalf("clone truncation leaked: caller %d, clone %d", len(p.Weaknesses), len(c.Weaknesses))
	}
}
