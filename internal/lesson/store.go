// Package lesson provides read-only access to lesson metadata for the
// content orchestrator: key points, worked examples, and known
// misconceptions per lesson.
package lesson

import (
	"context"
	"strings"
)

// Context is everything the orchestrator wants to know about a lesson
// before building a generation request.
type Context struct {
	LessonID       string   `json:"lesson_id"`
	Title          string   `json:"title"`
	Subject        string   `json:"subject"`
	GradeBand      string   `json:"grade_band"`
	KeyPoints      []string `json:"key_points"`
	PriorExamples  []string `json:"prior_examples"`
	Misconceptions []string `json:"misconceptions"`
}

// Store looks up lesson context. Implementations must treat a missing
// lesson as an empty context, not an error; generation degrades gracefully.
type Store interface {
	Lookup(ctx context.Context, lessonID string) (Context, error)
	Close() error
}

// NewStore creates a postgres-backed store when configured, otherwise a
// static in-memory store.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(nil), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
