package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/lumenlearn/tutorcore/internal/emotion"
)

// FallbackScript builds the deterministic templated script used when the
// provider is unavailable. Built only from lesson title and slide content;
// no network, no randomness.
func FallbackScript(kind Kind, lessonTitle string, slide Slide, state emotion.State) Script {
	topic := strings.TrimSpace(slide.Title)
	if topic == "" {
		topic = strings.TrimSpace(lessonTitle)
	}
	if topic == "" {
		topic = "this topic"
	}

	var narration string
	switch kind {
	case KindExample:
		narration = fmt.Sprintf("Let's look at an example of %s. Take the idea from the slide and try it on something small you know well. Work it through one step at a time.", topic)
	case KindHint:
		narration = fmt.Sprintf("Here's a hint for %s: reread the first line of the slide and ask yourself what it is really saying. The answer usually starts there.", topic)
	case KindSummary:
		narration = fmt.Sprintf("Quick recap of %s: we covered the main idea on this slide. If you can say it back in one sentence, you've got it.", topic)
	case KindMotivate:
		narration = fmt.Sprintf("You're doing fine. %s takes everyone a little practice. Each try is making this easier, even when it doesn't feel that way.", topic)
	default:
		narration = fmt.Sprintf("Let's go through %s together. Read the slide once more, slowly. Then tell me the main idea in your own words, and we'll build from there.", topic)
	}

	firstSentence := ""
	if sentences := splitSentences(slide.Content); len(sentences) > 0 {
		firstSentence = sentences[0]
	}

	s := Script{
		Narration:       narration,
		DurationSeconds: EstimateDurationSeconds(narration, 5),
		Tone:            ToneForMood(state.Mood),
		SuggestedNext:   SuggestNext(kind, state.Mood, nil),
		Fallback:        true,
		GeneratedAt:     time.Now().UTC(),
	}
	if firstSentence != "" {
		s.KeyPoints = []string{firstSentence}
	}
	return s
}

// BreakScript is the fixed response when the emotional state calls for a
// pause. It always wins over a normal generation request and is never
// cached.
func BreakScript(state emotion.State) Script {
	narration := "You've been working hard for a while now. Let's take a five minute break. " +
		"Stand up, stretch, get some water. The lesson will be right here when you come back."
	return Script{
		Narration:       narration,
		DurationSeconds: EstimateDurationSeconds(narration, 5),
		Tone:            "gentle",
		SuggestedNext:   []Kind{KindContinue, KindSummary},
		BreakSuggested:  true,
		GeneratedAt:     time.Now().UTC(),
	}
}
