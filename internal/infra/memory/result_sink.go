package memory

import (
	"context"
	"sync"

	"medquiz-service/internal/domain"
)

// ResultSink collects records in memory. It serves the no-database demo mode
// and lets tests assert on what the game logic submitted.
type ResultSink struct {
	mu        sync.Mutex
	answers   []domain.AnswerRecord
	summaries []domain.GameSummary
	xp        map[string]int
}

func NewResultSink() *ResultSink {
	return &ResultSink{xp: make(map[string]int)}
}

func (s *ResultSink) RecordAnswer(_ context.Context, record domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, record)
	return nil
}

func (s *ResultSink) RecordGameSummary(_ context.Context, summary domain.GameSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return nil
}

func (s *ResultSink) IncrementUserXP(_ context.Context, userID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xp[userID] += delta
	return nil
}

// Answers returns a copy of the recorded answer telemetry.
func (s *ResultSink) Answers() []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AnswerRecord, len(s.answers))
	copy(out, s.answers)
	return out
}

// Summaries returns a copy of the recorded game summaries.
func (s *ResultSink) Summaries() []domain.GameSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.GameSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// XP returns the accumulated experience points for a user.
func (s *ResultSink) XP(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.xp[userID]
}
