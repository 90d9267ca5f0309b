package content

import (
	"testing"

	"github.com/lumenlearn/tutorcore/internal/emotion"
)

func TestCleanNarrationStripsMarkup(t *testing.T) {
	in := "## Fractions\n\n**Half** means `one of two` equal parts.\n> Remember that."
	want := "Fractions Half means one of two equal parts. Remember that."
	if got := CleanNarration(in); got != want {
		t.Fatalf("CleanNarration() = %q, want %q", got, want)
	}
}

func TestEstimateDurationSlowerForYoungerStudents(t *testing.T) {
	text := "One two three four five six seven eight nine ten. Eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty."
	young := EstimateDurationSeconds(text, 1)
	old := EstimateDurationSeconds(text, 10)
	if young <= old {
		t.Fatalf("duration grade 1 = %d, grade 10 = %d, want grade 1 longer", young, old)
	}
}

func TestEstimateDurationEmptyText(t *testing.T) {
	if got := EstimateDurationSeconds("", 5); got != 0 {
		t.Fatalf("EstimateDurationSeconds(empty) = %d, want 0", got)
	}
	if got := EstimateDurationSeconds("hi", 5); got < 1 {
		t.Fatalf("EstimateDurationSeconds(short) = %d, want >= 1", got)
	}
}

func TestExtractKeyPointsPrefersLessonPoints(t *testing.T) {
	text := "Remember that a half means one of two parts. The key idea is sharing equally. Always check the denominator. One more marker sentence is important."
	got := ExtractKeyPoints(text, []string{"lesson point one", "lesson point two"})
	if len(got) != 3 {
		t.Fatalf("ExtractKeyPoints() returned %d points, want 3", len(got))
	}
	if got[0] != "lesson point one" || got[1] != "lesson point two" {
		t.Fatalf("ExtractKeyPoints() = %v, want lesson points first", got)
	}
}

func TestExtractExamples(t *testing.T) {
	text := "Fractions split things up. For example, cutting a pizza into four slices. Imagine sharing it with a friend. That is the whole idea."
	got := ExtractExamples(text)
	if len(got) != 2 {
		t.Fatalf("ExtractExamples() = %v, want 2 sentences", got)
	}
}

func TestToneForMood(t *testing.T) {
	cases := map[emotion.Mood]string{
		emotion.MoodFrustrated: "reassuring",
		emotion.MoodConfused:   "patient",
		emotion.MoodTired:      "gentle",
		emotion.MoodHappy:      "upbeat",
		emotion.MoodNeutral:    "friendly",
	}
	for mood, want := range cases {
		if got := ToneForMood(mood); got != want {
			t.Errorf("ToneForMood(%v) = %q, want %q", mood, got, want)
		}
	}
}

func TestSuggestNextSkipsCurrentAndRecent(t *testing.T) {
	got := SuggestNext(KindExample, emotion.MoodConfused, []Kind{KindExplain, KindSimplify})
	if len(got) < 2 {
		t.Fatalf("SuggestNext() = %v, want at least 2 suggestions", got)
	}
	for _, k := range got {
		if k == KindExample || k == KindSimplify {
			t.Fatalf("SuggestNext() suggested excluded kind %v in %v", k, got)
		}
	}
}

func TestSuggestNextFrustratedLeadsWithSimplify(t *testing.T) {
	got := SuggestNext(KindExplain, emotion.MoodFrustrated, nil)
	if len(got) == 0 || got[0] != KindSimplify {
		t.Fatalf("SuggestNext(frustrated) = %v, want simplify first", got)
	}
}

func TestSuggestNextBounds(t *testing.T) {
	for _, mood := range []emotion.Mood{emotion.MoodHappy, emotion.MoodNeutral, emotion.MoodTired} {
		got := SuggestNext(KindExplain, mood, nil)
		if len(got) < 2 || len(got) > 4 {
			t.Fatalf("SuggestNext(%v) returned %d kinds, want 2..4", mood, len(got))
		}
	}
}
