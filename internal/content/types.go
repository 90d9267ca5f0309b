// Package content turns interaction requests into generated tutoring
// scripts, with caching, provider retry, and deterministic fallback.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lumenlearn/tutorcore/internal/emotion"
	"github.com/lumenlearn/tutorcore/internal/profile"
)

// Kind is one state of the interaction state machine.
type Kind string

const (
	KindExplain    Kind = "explain"
	KindExample    Kind = "example"
	KindProblem    Kind = "problem"
	KindHint       Kind = "hint"
	KindSocratic   Kind = "socratic"
	KindSummary    Kind = "summary"
	KindSimplify   Kind = "simplify"
	KindMotivate   Kind = "motivate"
	KindCheck      Kind = "check"
	KindStop       Kind = "stop"
	KindContinue   Kind = "continue"
	KindRepeat     Kind = "repeat"
	KindQuiz       Kind = "quiz"
	KindMoreDetail Kind = "more_detail"
)

var allKinds = map[Kind]bool{
	KindExplain: true, KindExample: true, KindProblem: true, KindHint: true,
	KindSocratic: true, KindSummary: true, KindSimplify: true, KindMotivate: true,
	KindCheck: true, KindContinue: true, KindRepeat: true, KindQuiz: true,
	KindMoreDetail: true, KindStop: true,
}

func (k Kind) Valid() bool { return allKinds[k] }

// Slide is the unit of lesson content an interaction is about.
type Slide struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Request is the immutable unit of work submitted to the orchestrator.
type Request struct {
	StudentID   string
	LessonID    string
	Slide       Slide
	Kind        Kind
	Question    string
	State       emotion.State
	Profile     profile.StudentProfile
	RecentKinds []Kind
	WrongStreak int
}

// Problem is a generated practice problem.
type Problem struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty"`
	Hints      []string `json:"hints,omitempty"`
}

// ParentReport is the periodic parent-facing summary attached to a script.
type ParentReport struct {
	StudentID    string    `json:"student_id"`
	LessonID     string    `json:"lesson_id"`
	Mood         string    `json:"mood"`
	Interactions int       `json:"interactions"`
	CorrectRate  float64   `json:"correct_rate"`
	Note         string    `json:"note"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Script is the orchestrator's output. The caller always receives one, even
// under total provider failure.
type Script struct {
	Narration       string        `json:"narration"`
	DurationSeconds int           `json:"duration_seconds"`
	KeyPoints       []string      `json:"key_points,omitempty"`
	Examples        []string      `json:"examples,omitempty"`
	Tone            string        `json:"tone"`
	SuggestedNext   []Kind        `json:"suggested_next"`
	Problem         *Problem      `json:"problem,omitempty"`
	BreakSuggested  bool          `json:"break_suggested,omitempty"`
	Cached          bool          `json:"cached,omitempty"`
	Fallback        bool          `json:"fallback,omitempty"`
	ModelDowngraded bool          `json:"model_downgraded,omitempty"`
	ParentReport    *ParentReport `json:"parent_report,omitempty"`
	GeneratedAt     time.Time     `json:"generated_at"`
}

// CacheKey derives the deterministic cache key for a generation request.
// Emotional state is intentionally excluded: the same slide content is
// shared across moods, and tone is re-tagged on the way out.
func CacheKey(lessonID string, slide Slide, grade int, kind Kind) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s|%d|%s", lessonID, slide.Index, slide.Title, grade, kind)))
	return hex.EncodeToString(h[:16])
}
