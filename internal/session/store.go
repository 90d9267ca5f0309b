package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrDuplicate signals a uniqueness conflict on the active
	// (student, lesson) pair; callers re-query and reuse the winner.
	ErrDuplicate = errors.New("active session already exists")
)

// Store is the durability layer for sessions. The manager treats every
// store failure as non-fatal: sessions degrade to ephemeral in-memory
// records and the connection proceeds.
type Store interface {
	FindActive(ctx context.Context, studentID, lessonID string) (*Session, error)
	Create(ctx context.Context, s *Session) error
	Save(ctx context.Context, s *Session) error
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

// NewStore creates a postgres-backed store when a DSN is configured,
// otherwise an in-memory store.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
