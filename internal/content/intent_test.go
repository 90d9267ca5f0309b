package content

import "testing"

func TestRemapKindQuestionOverridesRequested(t *testing.T) {
	cases := []struct {
		question string
		want     Kind
	}{
		{"why does the moon change shape?", KindSocratic},
		{"can you show me an example?", KindExample},
		{"i'm stuck on this one", KindHint},
		{"this is too hard", KindSimplify},
		{"ok quiz me", KindQuiz},
		{"say that again please", KindRepeat},
		{"can you recap?", KindSummary},
		{"tell me more about fractions", KindMoreDetail},
	}
	for _, tc := range cases {
		if got := RemapKind(KindExplain, tc.question); got != tc.want {
			t.Errorf("RemapKind(explain, %q) = %v, want %v", tc.question, got, tc.want)
		}
	}
}

func TestRemapKindFirstRuleWins(t *testing.T) {
	// "why" (socratic) appears before "example" in the rule order.
	if got := RemapKind(KindExplain, "why is this the example?"); got != KindSocratic {
		t.Fatalf("RemapKind() = %v, want %v", got, KindSocratic)
	}
}

func TestRemapKindNoQuestionKeepsRequested(t *testing.T) {
	if got := RemapKind(KindSummary, ""); got != KindSummary {
		t.Fatalf("RemapKind(summary, empty) = %v, want summary", got)
	}
}

func TestRemapKindInvalidRequestedDefaultsToExplain(t *testing.T) {
	if got := RemapKind(Kind("bogus"), ""); got != KindExplain {
		t.Fatalf("RemapKind(bogus, empty) = %v, want explain", got)
	}
	if got := RemapKind(Kind("bogus"), "just a plain question"); got != KindExplain {
		t.Fatalf("RemapKind(bogus, unmatched question) = %v, want explain", got)
	}
}

func TestRemapKindDeterministic(t *testing.T) {
	q := "why is this too hard, show me an example"
	first := RemapKind(KindExplain, q)
	for i := 0; i < 10; i++ {
		if got := RemapKind(KindExplain, q); got != first {
			t.Fatalf("RemapKind() not deterministic: %v then %v", first, got)
		}
	}
}
