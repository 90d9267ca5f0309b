package content

import (
	"regexp"
	"strings"

	"github.com/lumenlearn/tutorcore/internal/emotion"
)

var (
	markupRe     = regexp.MustCompile("[*_`#>]+")
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanNarration strips markup artifacts the provider tends to leak into
// prose meant to be spoken.
func CleanNarration(text string) string {
	text = markupRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// wordsPerMinute returns the spoken pace assumed for a grade band. Younger
// students get slower narration.
func wordsPerMinute(grade int) float64 {
	switch {
	case grade <= 2:
		return 100
	case grade <= 5:
		return 125
	case grade <= 8:
		return 145
	default:
		return 160
	}
}

// EstimateDurationSeconds estimates spoken duration from word count plus a
// pause allowance per sentence-ending punctuation mark.
func EstimateDurationSeconds(text string, grade int) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	pauses := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	secs := float64(words)/wordsPerMinute(grade)*60 + float64(pauses)*0.4
	if secs < 1 {
		secs = 1
	}
	return int(secs + 0.5)
}

var keyPointMarkers = []string{"remember", "important", "key", "means", "is called", "always", "never"}
var exampleMarkers = []string{"for example", "for instance", "such as", "imagine", "like when"}

// ExtractKeyPoints scans narration sentences for emphasis markers, seeding
// from the lesson's own key points first.
func ExtractKeyPoints(text string, lessonPoints []string) []string {
	out := make([]string, 0, 3)
	for _, p := range lessonPoints {
		if len(out) == 3 {
			return out
		}
		out = append(out, p)
	}
	for _, s := range splitSentences(text) {
		if len(out) == 3 {
			break
		}
		lower := strings.ToLower(s)
		for _, m := range keyPointMarkers {
			if strings.Contains(lower, m) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// ExtractExamples pulls sentences that read like worked examples.
func ExtractExamples(text string) []string {
	var out []string
	for _, s := range splitSentences(text) {
		if len(out) == 3 {
			break
		}
		lower := strings.ToLower(s)
		for _, m := range exampleMarkers {
			if strings.Contains(lower, m) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// ToneForMood maps mood to the narration tone tag.
func ToneForMood(mood emotion.Mood) string {
	switch mood {
	case emotion.MoodFrustrated:
		return "reassuring"
	case emotion.MoodConfused:
		return "patient"
	case emotion.MoodTired:
		return "gentle"
	case emotion.MoodHappy:
		return "upbeat"
	default:
		return "friendly"
	}
}

// SuggestNext proposes 2-4 follow-up interaction kinds for the current
// mood, skipping the kind just served and anything used in the last two
// interactions.
func SuggestNext(current Kind, mood emotion.Mood, recent []Kind) []Kind {
	var base []Kind
	switch mood {
	case emotion.MoodFrustrated:
		base = []Kind{KindSimplify, KindHint, KindExample, KindMotivate}
	case emotion.MoodConfused:
		base = []Kind{KindExample, KindSimplify, KindSocratic, KindRepeat}
	case emotion.MoodTired:
		base = []Kind{KindSummary, KindMotivate, KindContinue}
	case emotion.MoodHappy:
		base = []Kind{KindProblem, KindQuiz, KindMoreDetail, KindSocratic}
	default:
		base = []Kind{KindExample, KindProblem, KindSummary, KindCheck}
	}

	skip := map[Kind]bool{current: true}
	if n := len(recent); n > 0 {
		skip[recent[n-1]] = true
		if n > 1 {
			skip[recent[n-2]] = true
		}
	}

	out := make([]Kind, 0, 4)
	for _, k := range base {
		if skip[k] {
			continue
		}
		out = append(out, k)
		if len(out) == 4 {
			break
		}
	}
	for _, fill := range []Kind{KindContinue, KindSummary, KindExample} {
		if len(out) >= 2 {
			break
		}
		if !skip[fill] && !contains(out, fill) {
			out = append(out, fill)
		}
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func contains(kinds []Kind, k Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}
