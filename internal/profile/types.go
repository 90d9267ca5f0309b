package profile

import (
	"context"
	"time"

	"github.com/lumenlearn/tutorcore/internal/emotion"
)

// LearningStyle holds per-modality weights in [0,1]. Weights are independent
// preferences, not a distribution; they need not sum to 1.
type LearningStyle struct {
	Visual      float64 `json:"visual"`
	Auditory    float64 `json:"auditory"`
	Kinesthetic float64 `json:"kinesthetic"`
	Reading     float64 `json:"reading"`
}

// Baseline is the slow-moving emotional baseline a student returns to
// between sessions.
type Baseline struct {
	Mood       emotion.Mood `json:"mood"`
	Confidence int          `json:"confidence"`
	Engagement int          `json:"engagement"`
}

// StudentProfile outlives individual sessions. Strengths and weaknesses are
// bounded FIFO lists; the oldest entry falls off when the cap is reached.
type StudentProfile struct {
	StudentID        string        `json:"student_id"`
	Grade            int           `json:"grade"`
	Style            LearningStyle `json:"style"`
	Baseline         Baseline      `json:"baseline"`
	Strengths        []string      `json:"strengths"`
	Weaknesses       []string      `json:"weaknesses"`
	SessionCount     int           `json:"session_count"`
	LearningTime     time.Duration `json:"learning_time"`
	AnswersTotal     int           `json:"answers_total"`
	AnswersCorrect   int           `json:"answers_correct"`
	InteractionCount int           `json:"interaction_count"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// SuccessRatio is the historical share of correct answers in [0,1].
// Returns 0.5 when nothing has been answered yet so difficulty adjustment
// stays neutral for new students.
func (p *StudentProfile) SuccessRatio() float64 {
	if p.AnswersTotal == 0 {
		return 0.5
	}
	return float64(p.AnswersCorrect) / float64(p.AnswersTotal)
}

// Store persists long-lived student profiles. Implementations must be safe
// for concurrent use; the orchestrator and the session manager both touch it.
type Store interface {
	Get(ctx context.Context, studentID string) (*StudentProfile, error)
	Save(ctx context.Context, p *StudentProfile) error
	Close() error
}
