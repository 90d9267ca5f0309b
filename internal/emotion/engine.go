package emotion

import (
	"strings"
	"time"
)

// Mood is the coarse emotional bucket inferred from behavioral signals.
type Mood string

const (
	MoodHappy      Mood = "happy"
	MoodNeutral    Mood = "neutral"
	MoodFrustrated Mood = "frustrated"
	MoodConfused   Mood = "confused"
	MoodTired      Mood = "tired"
)

// Indicator tags a single behavioral observation.
type Indicator string

const (
	IndicatorMultipleErrors Indicator = "multiple_errors"
	IndicatorWrongAnswer    Indicator = "wrong_answer"
	IndicatorTooHard        Indicator = "too_hard"
	IndicatorSlowResponse   Indicator = "slow_response"
	IndicatorHesitation     Indicator = "hesitation"
	IndicatorLongSession    Indicator = "long_session"
	IndicatorFatigueText    Indicator = "fatigue_text"
	IndicatorCorrectStreak  Indicator = "correct_streak"
	IndicatorPositiveText   Indicator = "positive_text"
)

// State is the inferred emotional snapshot. Callers never mutate it; the
// engine replaces it wholesale on every inference.
type State struct {
	Mood       Mood        `json:"mood"`
	Confidence int         `json:"confidence"`
	Engagement int         `json:"engagement"`
	NeedsBreak bool        `json:"needs_break"`
	Indicators []Indicator `json:"indicators,omitempty"`
	InferredAt time.Time   `json:"inferred_at"`
}

const (
	baselineConfidence = 70
	baselineEngagement = 70

	// Session length past which fatigue is assumed even without other signals.
	fatigueSessionMinutes = 45
	// Session length past which a break is forced regardless of mood.
	forcedBreakMinutes = 60
)

var frustrationPhrases = []string{"too hard", "i give up", "this is stupid", "can't do this", "i hate this"}
var confusionPhrases = []string{"i don't get", "i dont get", "what do you mean", "confused", "huh", "don't understand", "dont understand"}
var fatiguePhrases = []string{"tired", "i'm done", "im done", "sleepy", "can we stop", "exhausted"}
var positivePhrases = []string{"got it", "i see", "makes sense", "easy", "that was fun", "oh cool"}

// Infer turns behavioral indicators, recent free text, and session length into
// an emotional state. Pure: same inputs always yield the same output modulo
// the InferredAt timestamp.
func Infer(indicators []Indicator, recentText string, sessionMinutes int) State {
	text := strings.ToLower(recentText)

	frustration := countTags(indicators, IndicatorMultipleErrors, IndicatorWrongAnswer, IndicatorTooHard)
	frustration += countPhrases(text, frustrationPhrases)
	confusion := countTags(indicators, IndicatorSlowResponse, IndicatorHesitation)
	confusion += countPhrases(text, confusionPhrases)
	fatigue := countTags(indicators, IndicatorLongSession, IndicatorFatigueText)
	fatigue += countPhrases(text, fatiguePhrases)
	positive := countTags(indicators, IndicatorCorrectStreak, IndicatorPositiveText)
	positive += countPhrases(text, positivePhrases)

	if sessionMinutes > fatigueSessionMinutes {
		fatigue++
	}

	st := State{
		Mood:       MoodNeutral,
		Confidence: baselineConfidence,
		Engagement: baselineEngagement,
		Indicators: append([]Indicator(nil), indicators...),
		InferredAt: time.Now().UTC(),
	}

	// Mood precedence: first match wins. Confidence/engagement deltas stack.
	switch {
	case frustration >= 2:
		st.Mood = MoodFrustrated
	case confusion >= 2:
		st.Mood = MoodConfused
	case fatigue >= 1:
		st.Mood = MoodTired
		st.NeedsBreak = true
	case positive >= 1:
		st.Mood = MoodHappy
	}

	if frustration >= 2 {
		st.Confidence -= 20
	}
	if confusion >= 2 {
		st.Confidence -= 15
	}
	if fatigue >= 1 {
		st.Engagement -= 30
	}
	if positive >= 1 && frustration < 2 && confusion < 2 {
		st.Confidence += 10
		st.Engagement += 10
	}

	if sessionMinutes > forcedBreakMinutes {
		st.NeedsBreak = true
	}

	st.Confidence = clamp(st.Confidence)
	st.Engagement = clamp(st.Engagement)
	return st
}

// IndicatorsFromActivity maps a single recorded activity into indicator tags.
// consecutiveWrong is the student's current error streak including this answer.
func IndicatorsFromActivity(correct bool, latency time.Duration, consecutiveWrong int) []Indicator {
	var out []Indicator
	if !correct {
		out = append(out, IndicatorWrongAnswer)
		if consecutiveWrong >= 2 {
			out = append(out, IndicatorMultipleErrors)
		}
	}
	if correct && consecutiveWrong == 0 {
		out = append(out, IndicatorCorrectStreak)
	}
	if latency > 30*time.Second {
		out = append(out, IndicatorSlowResponse)
	}
	return out
}

func countTags(indicators []Indicator, match ...Indicator) int {
	n := 0
	for _, ind := range indicators {
		for _, m := range match {
			if ind == m {
				n++
				break
			}
		}
	}
	return n
}

func countPhrases(text string, phrases []string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, p := range phrases {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
