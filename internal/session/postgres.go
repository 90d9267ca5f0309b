package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions in PostgreSQL. A partial unique index
// enforces the one-active-session-per-(student, lesson) invariant at the
// database level; concurrent creators surface ErrDuplicate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tutoring_sessions (
			session_id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			lesson_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			slide_index INTEGER NOT NULL DEFAULT 0,
			message_count INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_activity_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS tutoring_sessions_active_pair
			ON tutoring_sessions (student_id, lesson_id)
			WHERE status = 'active';`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init session schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindActive(ctx context.Context, studentID, lessonID string) (*Session, error) {
	sess := &Session{}
	err := s.pool.QueryRow(ctx, `
		SELECT session_id, student_id, lesson_id, status, slide_index,
			message_count, started_at, last_activity_at, completed_at
		FROM tutoring_sessions
		WHERE student_id = $1 AND lesson_id = $2 AND status = 'active'`,
		studentID, lessonID).Scan(
		&sess.ID, &sess.StudentID, &sess.LessonID, &sess.Status, &sess.SlideIndex,
		&sess.MessageCount, &sess.StartedAt, &sess.LastActivityAt, &sess.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) Create(ctx context.Context, sess *Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tutoring_sessions (
			session_id, student_id, lesson_id, status, slide_index,
			message_count, started_at, last_activity_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		sess.ID, sess.StudentID, sess.LessonID, sess.Status, sess.SlideIndex,
		sess.MessageCount, sess.StartedAt, sess.LastActivityAt, sess.CompletedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, sess *Session) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tutoring_sessions SET
			status = $2, slide_index = $3, message_count = $4,
			last_activity_at = $5, completed_at = $6
		WHERE session_id = $1`,
		sess.ID, sess.Status, sess.SlideIndex, sess.MessageCount,
		sess.LastActivityAt, sess.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM tutoring_sessions
		WHERE status = 'inactive' AND last_activity_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
