package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"medquiz-service/internal/domain"
)

// ResultSink writes answer telemetry and game results to Postgres.
type ResultSink struct {
	pool *pgxpool.Pool
}

func NewResultSink(pool *pgxpool.Pool) *ResultSink {
	return &ResultSink{pool: pool}
}

func (s *ResultSink) RecordAnswer(ctx context.Context, record domain.AnswerRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_answers (user_id, question_id, is_correct, time_taken, points_earned, game_mode)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.UserID, record.QuestionID, record.Correct, record.TimeTaken, record.Points, string(record.Mode))
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	return nil
}

func (s *ResultSink) RecordGameSummary(ctx context.Context, summary domain.GameSummary) error {
	category := summary.Category
	if category == "" {
		category = "all"
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO games (id, user_id, mode, category, score, questions_answered, completed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		summary.ID, summary.UserID, string(summary.Mode), category, summary.Score, summary.QuestionsAnswered, summary.Completed)
	if err != nil {
		return fmt.Errorf("record game summary: %w", err)
	}
	return nil
}

// IncrementUserXP adds the session score to the user's cumulative XP as a
// single atomic increment, so concurrent game ends cannot lose an update.
func (s *ResultSink) IncrementUserXP(ctx context.Context, userID string, delta int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET xp = xp + $2 WHERE id = $1`,
		userID, delta)
	if err != nil {
		return fmt.Errorf("increment xp: %w", err)
	}
	return nil
}
