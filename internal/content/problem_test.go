package content

import (
	"strings"
	"testing"
)

func TestAdjustDifficulty(t *testing.T) {
	cases := []struct {
		requested string
		ratio     float64
		want      string
	}{
		{DifficultyMedium, 0.2, DifficultyEasy},
		{DifficultyHard, 0.1, DifficultyEasy},
		{DifficultyMedium, 0.5, DifficultyMedium},
		{DifficultyEasy, 0.9, DifficultyMedium},
		{DifficultyMedium, 0.85, DifficultyHard},
		{DifficultyHard, 0.95, DifficultyHard},
		{"bogus", 0.5, DifficultyMedium},
	}
	for _, tc := range cases {
		if got := AdjustDifficulty(tc.requested, tc.ratio); got != tc.want {
			t.Errorf("AdjustDifficulty(%q, %.2f) = %q, want %q", tc.requested, tc.ratio, got, tc.want)
		}
	}
}

func TestParseProblemWrappedInProse(t *testing.T) {
	raw := `Here is your problem! {"question": "What is 1/2 of 8?", "answer": "4", "difficulty": "easy", "hints": ["Split 8 into two equal groups."]} Good luck!`
	p, err := ParseProblem(raw)
	if err != nil {
		t.Fatalf("ParseProblem() error = %v", err)
	}
	if p.Question != "What is 1/2 of 8?" || p.Answer != "4" || p.Difficulty != DifficultyEasy {
		t.Fatalf("ParseProblem() = %+v", p)
	}
	if len(p.Hints) != 1 {
		t.Fatalf("ParseProblem() hints = %v, want 1", p.Hints)
	}
}

func TestParseProblemDefaultsDifficulty(t *testing.T) {
	p, err := ParseProblem(`{"question": "q", "answer": "a", "difficulty": "impossible"}`)
	if err != nil {
		t.Fatalf("ParseProblem() error = %v", err)
	}
	if p.Difficulty != DifficultyMedium {
		t.Fatalf("ParseProblem() difficulty = %q, want medium", p.Difficulty)
	}
}

func TestParseProblemRejectsMissingQuestion(t *testing.T) {
	if _, err := ParseProblem(`{"answer": "a"}`); err == nil {
		t.Fatal("ParseProblem() expected error for missing question")
	}
	if _, err := ParseProblem("no json here at all"); err == nil {
		t.Fatal("ParseProblem() expected error for missing payload")
	}
}

func TestStripProblemJSON(t *testing.T) {
	raw := `Try this one. {"question": "q", "answer": "a"} You can do it.`
	got := stripProblemJSON(raw)
	if strings.Contains(got, "{") || strings.Contains(got, "question") {
		t.Fatalf("stripProblemJSON() = %q, payload not removed", got)
	}
	if !strings.Contains(got, "Try this one.") || !strings.Contains(got, "You can do it.") {
		t.Fatalf("stripProblemJSON() = %q, surrounding prose lost", got)
	}
}

func TestSynthesizeProblemUsesKeyPoints(t *testing.T) {
	p := SynthesizeProblem("Fractions", []string{"a half is one of two equal parts"}, DifficultyEasy)
	if !strings.Contains(p.Question, "a half is one of two equal parts") {
		t.Fatalf("SynthesizeProblem() question = %q", p.Question)
	}
	if p.Difficulty != DifficultyEasy {
		t.Fatalf("SynthesizeProblem() difficulty = %q", p.Difficulty)
	}
}
