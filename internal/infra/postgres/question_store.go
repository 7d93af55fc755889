package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"medquiz-service/internal/domain"
)

// QuestionStore loads and persists questions in Postgres.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) LoadQuestions(ctx context.Context, category string, limit int) ([]domain.Question, error) {
	query := `SELECT id, category, level, text, choices, correct_answer, explanation, created_by, is_ai_generated, created_at
		FROM questions`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category=$1 LIMIT $2`
		args = append(args, category, limit)
	} else {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Category, &q.Level, &q.Text, &q.Choices, &q.CorrectAnswer,
			&q.Explanation, &q.CreatedBy, &q.IsAIGenerated, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *QuestionStore) LoadCategories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, name)
	}
	return categories, rows.Err()
}

// SaveQuestions inserts a batch of questions (the AI generation path).
// Each question is validated before any row is written; a single invalid
// question rejects the whole batch.
func (s *QuestionStore) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return err
		}
	}
	for _, q := range questions {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO questions (id, category, level, text, choices, correct_answer, explanation, created_by, is_ai_generated)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO NOTHING`,
			q.ID, q.Category, q.Level, q.Text, q.Choices, q.CorrectAnswer, q.Explanation, q.CreatedBy, q.IsAIGenerated)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return nil
}
