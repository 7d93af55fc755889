package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"medquiz-service/internal/domain"
)

// GameRepository abstracts how active games are stored (in-memory, Redis-backed, etc).
// A player has at most one active game.
type GameRepository interface {
	Get(userID string) (*Game, bool)
	Put(userID string, game *Game)
	Delete(userID string)
}

// QuestionRepository loads question content (from cache/backing store).
// An empty category means no filter.
type QuestionRepository interface {
	FetchQuestions(ctx context.Context, category string, limit int) ([]domain.Question, error)
	FetchCategories(ctx context.Context) ([]string, error)
}

// ResultSink receives per-answer telemetry and final game results. All calls
// are made from the recorder goroutine; failures are logged, never surfaced
// into game logic.
type ResultSink interface {
	RecordAnswer(ctx context.Context, record domain.AnswerRecord) error
	RecordGameSummary(ctx context.Context, summary domain.GameSummary) error
	IncrementUserXP(ctx context.Context, userID string, delta int) error
}

// ScoreBoard ranks cumulative game scores per category ("" is the global board).
type ScoreBoard interface {
	AddScore(ctx context.Context, category string, player domain.UserSession, score int) error
	Top(ctx context.Context, category string, limit int) (domain.Leaderboard, error)
}

// GameService contains the quiz session use cases.
type GameService struct {
	games     GameRepository
	questions QuestionRepository
	sink      ResultSink
	board     ScoreBoard
	recorder  *Recorder
	tickEvery time.Duration
}

func NewGameService(games GameRepository, questions QuestionRepository, sink ResultSink, board ScoreBoard) *GameService {
	return newGameService(games, questions, sink, board, time.Second)
}

// NewGameServiceWithTick is test-only for fast deterministic countdowns.
func NewGameServiceWithTick(games GameRepository, questions QuestionRepository, sink ResultSink, board ScoreBoard, tickEvery time.Duration) *GameService {
	return newGameService(games, questions, sink, board, tickEvery)
}

func newGameService(games GameRepository, questions QuestionRepository, sink ResultSink, board ScoreBoard, tickEvery time.Duration) *GameService {
	return &GameService{
		games:     games,
		questions: questions,
		sink:      sink,
		board:     board,
		recorder:  NewRecorder(64),
		tickEvery: tickEvery,
	}
}

// StartGame fetches and shuffles a question batch and replaces any previous
// game for the player. On fetch failure or an empty batch no game is created
// and the caller must treat the session as not started.
func (s *GameService) StartGame(ctx context.Context, player domain.UserSession, mode domain.GameMode, category string) (domain.GameSnapshot, error) {
	if !mode.Valid() {
		return domain.GameSnapshot{}, domain.ErrInvalidMode
	}

	filter := category
	if filter == "all" {
		filter = ""
	}
	limit := defaultQuestionCount
	if mode == domain.ModeDaily {
		limit = dailyQuestionCount
	}

	questions, err := s.questions.FetchQuestions(ctx, filter, limit)
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	if len(questions) == 0 {
		return domain.GameSnapshot{}, domain.ErrNoQuestions
	}

	shuffled := make([]domain.Question, len(questions))
	copy(shuffled, questions)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if previous, ok := s.games.Get(player.UserID); ok {
		previous.stop()
	}
	game := newGame(mode, filter, shuffled, s.tickEvery)
	s.games.Put(player.UserID, game)
	return game.start(), nil
}

// AnswerQuestion scores the player's choice against the current question.
// With no active game, or with the question already answered, it is a silent
// no-op (ok=false), not an error.
func (s *GameService) AnswerQuestion(ctx context.Context, player domain.UserSession, choiceIndex int) (domain.AnswerResult, bool) {
	game, ok := s.games.Get(player.UserID)
	if !ok {
		return domain.AnswerResult{}, false
	}
	outcome, ok := game.answer(choiceIndex)
	if !ok {
		return domain.AnswerResult{}, false
	}

	record := domain.AnswerRecord{
		UserID:     player.UserID,
		QuestionID: outcome.question.ID,
		Correct:    outcome.correct,
		TimeTaken:  outcome.timeTaken,
		Points:     outcome.points,
		Mode:       game.mode,
	}
	s.recorder.Enqueue("answer record", func(ctx context.Context) error {
		return s.sink.RecordAnswer(ctx, record)
	})

	return domain.AnswerResult{
		QuestionID:    outcome.question.ID,
		Correct:       outcome.correct,
		Points:        outcome.points,
		CorrectAnswer: outcome.question.CorrectAnswer,
		Explanation:   outcome.question.Explanation,
		TotalScore:    outcome.total,
	}, true
}

// NextQuestion advances the game. Past the last question it delegates to
// EndGame and reports finished=true.
func (s *GameService) NextQuestion(ctx context.Context, player domain.UserSession) (domain.GameSnapshot, bool, error) {
	game, ok := s.games.Get(player.UserID)
	if !ok {
		return domain.GameSnapshot{}, false, domain.ErrGameNotFound
	}
	if finished := game.next(); finished {
		summary, _ := s.EndGame(ctx, player)
		snap := domain.GameSnapshot{
			Mode:          summary.Mode,
			Category:      summary.Category,
			QuestionCount: summary.QuestionsAnswered,
			Score:         summary.Score,
		}
		return snap, true, nil
	}
	return game.snapshot(), false, nil
}

// EndGame records the game summary, credits the player's XP and leaderboard
// entry, and clears the game. A second call is a no-op.
func (s *GameService) EndGame(ctx context.Context, player domain.UserSession) (domain.GameSummary, bool) {
	game, ok := s.games.Get(player.UserID)
	if !ok {
		return domain.GameSummary{}, false
	}
	score, questionCount := game.stop()
	s.games.Delete(player.UserID)

	summary := domain.GameSummary{
		ID:                uuid.NewString(),
		UserID:            player.UserID,
		Mode:              game.mode,
		Category:          game.category,
		Score:             score,
		QuestionsAnswered: questionCount,
		Completed:         true,
	}
	s.recorder.Enqueue("game summary", func(ctx context.Context) error {
		return s.sink.RecordGameSummary(ctx, summary)
	})
	s.recorder.Enqueue("xp update", func(ctx context.Context) error {
		return s.sink.IncrementUserXP(ctx, player.UserID, score)
	})
	if s.board != nil {
		category := game.category
		s.recorder.Enqueue("leaderboard update", func(ctx context.Context) error {
			if err := s.board.AddScore(ctx, "", player, score); err != nil {
				return err
			}
			if category != "" {
				return s.board.AddScore(ctx, category, player, score)
			}
			return nil
		})
	}
	return summary, true
}

// Snapshot returns the current game state for the player, if any.
func (s *GameService) Snapshot(player domain.UserSession) (domain.GameSnapshot, bool) {
	game, ok := s.games.Get(player.UserID)
	if !ok {
		return domain.GameSnapshot{}, false
	}
	return game.snapshot(), true
}

// Subscribe returns a channel receiving game snapshots on every mutation,
// ticks included. The caller must invoke the returned cancel function.
func (s *GameService) Subscribe(player domain.UserSession) (<-chan domain.GameSnapshot, func(), error) {
	game, ok := s.games.Get(player.UserID)
	if !ok {
		return nil, nil, domain.ErrGameNotFound
	}
	ch, cancel := game.subscribe()
	return ch, cancel, nil
}

// Categories lists the known question categories.
func (s *GameService) Categories(ctx context.Context) ([]string, error) {
	return s.questions.FetchCategories(ctx)
}

// Leaderboard returns the top entries for a category ("" or "all" is global).
func (s *GameService) Leaderboard(ctx context.Context, category string, limit int) (domain.Leaderboard, error) {
	if s.board == nil {
		return domain.Leaderboard{Category: category}, nil
	}
	if category == "all" {
		category = ""
	}
	return s.board.Top(ctx, category, limit)
}

// Flush blocks until all queued persistence work has been attempted.
// Intended for tests and shutdown.
func (s *GameService) Flush() {
	s.recorder.Flush()
}

// Close flushes and stops the background recorder.
func (s *GameService) Close() {
	s.recorder.Close()
}
