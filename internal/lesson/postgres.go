package lesson

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads lesson context from PostgreSQL. The authoring pipeline
// owns writes; this side only ever reads.
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
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS lessons (
			lesson_id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			grade_band TEXT NOT NULL DEFAULT '',
			key_points TEXT[] NOT NULL DEFAULT '{}',
			prior_examples TEXT[] NOT NULL DEFAULT '{}',
			misconceptions TEXT[] NOT NULL DEFAULT '{}'
		);`)
	if err != nil {
		return fmt.Errorf("init lesson schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Lookup(ctx context.Context, lessonID string) (Context, error) {
	l := Context{LessonID: lessonID}
	err := s.pool.QueryRow(ctx, `
		SELECT title, subject, grade_band, key_points, prior_examples, misconceptions
		FROM lessons WHERE lesson_id = $1`, lessonID).Scan(
		&l.Title, &l.Subject, &l.GradeBand, &l.KeyPoints, &l.PriorExamples, &l.Misconceptions,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Context{LessonID: lessonID}, nil
	}
	if err != nil {
		return Context{}, fmt.Errorf("lookup lesson: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
