package output

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examforge/examforge/internal/pipeline"
)

const dbTimeout = 5 * time.Second

const postgresSchema = `
CREATE TABLE IF NOT EXISTS questions (
	id BIGSERIAL PRIMARY KEY,
	question_id TEXT NOT NULL,
	topic TEXT NOT NULL,
	difficulty TEXT NOT NULL DEFAULT '',
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic);
`

// PostgresStore persists questions in PostgreSQL with the full document as a
// jsonb payload.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore ensures the questions table exists and returns a store
// over the pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create questions table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Write inserts the batch inside a single transaction.
func (s *PostgresStore) Write(ctx context.Context, topic string, questions []pipeline.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, q := range questions {
		payload, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encode question %s: %w", q.QuestionID, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO questions (question_id, topic, difficulty, payload)
			 VALUES ($1, $2, $3, $4)`,
			q.QuestionID,
			topic,
			q.Difficulty,
			payload,
		)
		if err != nil {
			return fmt.Errorf("insert question %s: %w", q.QuestionID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Count returns the number of stored questions for a topic.
func (s *PostgresStore) Count(ctx context.Context, topic string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE topic = $1`, topic,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}
