package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists student profiles in PostgreSQL.
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
		`CREATE TABLE IF NOT EXISTS student_profiles (
			student_id TEXT PRIMARY KEY,
			grade INTEGER NOT NULL DEFAULT 5,
			style_visual DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			style_auditory DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			style_kinesthetic DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			style_reading DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			baseline_mood TEXT NOT NULL DEFAULT 'neutral',
			baseline_confidence INTEGER NOT NULL DEFAULT 70,
			baseline_engagement INTEGER NOT NULL DEFAULT 70,
			strengths TEXT[] NOT NULL DEFAULT '{}',
			weaknesses TEXT[] NOT NULL DEFAULT '{}',
			session_count INTEGER NOT NULL DEFAULT 0,
			learning_time_secs BIGINT NOT NULL DEFAULT 0,
			answers_total INTEGER NOT NULL DEFAULT 0,
			answers_correct INTEGER NOT NULL DEFAULT 0,
			interaction_count INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init profile schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, studentID string) (*StudentProfile, error) {
	p := &StudentProfile{StudentID: studentID}
	var learningSecs int64
	err := s.pool.QueryRow(ctx, `
		SELECT grade,
			style_visual, style_auditory, style_kinesthetic, style_reading,
			baseline_mood, baseline_confidence, baseline_engagement,
			strengths, weaknesses,
			session_count, learning_time_secs,
			answers_total, answers_correct, interaction_count, updated_at
		FROM student_profiles WHERE student_id = $1`, studentID).Scan(
		&p.Grade,
		&p.Style.Visual, &p.Style.Auditory, &p.Style.Kinesthetic, &p.Style.Reading,
		&p.Baseline.Mood, &p.Baseline.Confidence, &p.Baseline.Engagement,
		&p.Strengths, &p.Weaknesses,
		&p.SessionCount, &learningSecs,
		&p.AnswersTotal, &p.AnswersCorrect, &p.InteractionCount, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return NewDefault(studentID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p.LearningTime = time.Duration(learningSecs) * time.Second
	return p, nil
}

// Save never mutates the caller's profile; truncation happens on a copy.
func (s *PostgresStore) Save(ctx context.Context, p *StudentProfile) error {
	c := cloneProfile(p)
	truncateRolling(c)
	p = c
	_, err := s.pool.Exec(ctx, `
		INSERT INTO student_profiles (
			student_id, grade,
			style_visual, style_auditory, style_kinesthetic, style_reading,
			baseline_mood, baseline_confidence, baseline_engagement,
			strengths, weaknesses,
			session_count, learning_time_secs,
			answers_total, answers_correct, interaction_count, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now())
		ON CONFLICT (student_id) DO UPDATE SET
			grade = EXCLUDED.grade,
			style_visual = EXCLUDED.style_visual,
			style_auditory = EXCLUDED.style_auditory,
			style_kinesthetic = EXCLUDED.style_kinesthetic,
			style_reading = EXCLUDED.style_reading,
			baseline_mood = EXCLUDED.baseline_mood,
			baseline_confidence = EXCLUDED.baseline_confidence,
			baseline_engagement = EXCLUDED.baseline_engagement,
			strengths = EXCLUDED.strengths,
			weaknesses = EXCLUDED.weaknesses,
			session_count = EXCLUDED.session_count,
			learning_time_secs = EXCLUDED.learning_time_secs,
			answers_total = EXCLUDED.answers_total,
			answers_correct = EXCLUDED.answers_correct,
			interaction_count = EXCLUDED.interaction_count,
			updated_at = now()`,
		p.StudentID, p.Grade,
		p.Style.Visual, p.Style.Auditory, p.Style.Kinesthetic, p.Style.Reading,
		p.Baseline.Mood, p.Baseline.Confidence, p.Baseline.Engagement,
		p.Strengths, p.Weaknesses,
		p.SessionCount, int64(p.LearningTime/time.Second),
		p.AnswersTotal, p.AnswersCorrect, p.InteractionCount,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
