package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"medquiz-service/internal/app"
	"medquiz-service/internal/domain"
	"medquiz-service/internal/infra/memory"
)

func TestStartGameInitializesSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(cardiologyQuestions(10))
	defer service.Close()

	snap, err := service.StartGame(ctx, player("u1", "Alice"), domain.ModeSolo, "Cardiology")
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if snap.Mode != domain.ModeSolo || snap.Category != "Cardiology" {
		t.Fatalf("unexpected mode/category: %+v", snap)
	}
	if snap.QuestionCount != 10 || snap.QuestionIndex != 0 {
		t.Fatalf("expected 10 questions starting at index 0, got %+v", snap)
	}
	if snap.Score != 0 || snap.TimeLeft != 10 || snap.Answered {
		t.Fatalf("expected fresh countdown, got %+v", snap)
	}
}

func TestStartGameDailyModeFetchesFive(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(cardiologyQuestions(10))
	defer service.Close()

	snap, err := service.StartGame(ctx, player("u1", "Alice"), domain.ModeDaily, "all")
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if snap.QuestionCount != 5 {
		t.Fatalf("expected 5 questions in daily mode, got %d", snap.QuestionCount)
	}
	if snap.Category != "" {
		t.Fatalf(`expected category "all" to mean unfiltered, got %q`, snap.Category)
	}
}

func TestStartGameRejectsUnknownMode(t *testing.T) {
	service, _ := newTestService(cardiologyQuestions(10))
	defer service.Close()

	_, err := service.StartGame(context.Background(), player("u1", "Alice"), "marathon", "")
	if !errors.Is(err, domain.ErrInvalidMode) {
		t.Fatalf("expected invalid mode error, got %v", err)
	}
}

func TestStartGameEmptyFetchLeavesNoSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(nil)
	defer service.Close()

	_, err := service.StartGame(ctx, player("u1", "Alice"), domain.ModeSolo, "")
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no questions error, got %v", err)
	}
	if _, ok := service.Snapshot(player("u1", "Alice")); ok {
		t.Fatalf("expected no game after failed start")
	}
}

func TestShufflePreservesQuestionMultiset(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(cardiologyQuestions(10))
	defer service.Close()

	alice := player("u1", "Alice")
	if _, err := service.StartGame(ctx, alice, domain.ModeSolo, "Cardiology"); err != nil {
		t.Fatalf("start game: %v", err)
	}

	// Walk the whole game collecting question IDs; the shuffled sequence must
	// contain exactly the fetched questions, no duplication, no loss.
	seen := make(map[string]int)
	for {
		snap, ok := service.Snapshot(alice)
		if !ok {
			t.Fatalf("expected active game")
		}
		seen[snap.Question.ID]++
		if _, ok := service.AnswerQuestion(ctx, alice, 0); !ok {
			t.Fatalf("expected answer accepted")
		}
		if _, finished, err := service.NextQuestion(ctx, alice); err != nil {
			t.Fatalf("next question: %v", err)
		} else if finished {
			break
		}
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 distinct questions, got %d", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("question %s appeared %d times", id, count)
		}
	}
}

func TestAnswerRecordsTelemetry(t *testing.T) {
	ctx := context.Background()
	service, sink := newTestService(cardiologyQuestions(1))
	defer service.Close()

	alice := player("u1", "Alice")
	if _, err := service.StartGame(ctx, alice, domain.ModeSolo, ""); err != nil {
		t.Fatalf("start game: %v", err)
	}
	result, ok := service.AnswerQuestion(ctx, alice, 1)
	if !ok {
		t.Fatalf("expected answer accepted")
	}
	if !result.Correct || result.Points != 150 || result.TotalScore != 150 {
		t.Fatalf("expected instant correct answer worth 150, got %+v", result)
	}
	if result.CorrectAnswer != 1 || result.Explanation == "" {
		t.Fatalf("expected revealed answer with explanation, got %+v", result)
	}

	service.Flush()
	answers := sink.Answers()
	if len(answers) != 1 {
		t.Fatalf("expected 1 answer record, got %d", len(answers))
	}
	record := answers[0]
	if record.UserID != "u1" || !record.Correct || record.Points != 150 || record.Mode != domain.ModeSolo {
		t.Fatalf("unexpected answer record: %+v", record)
	}
}

func TestAnswerWithoutGameIsNoOp(t *testing.T) {
	service, sink := newTestService(cardiologyQuestions(1))
	defer service.Close()

	if _, ok := service.AnswerQuestion(context.Background(), player("ghost", "Ghost"), 0); ok {
		t.Fatalf("expected no-op without an active game")
	}
	service.Flush()
	if len(sink.Answers()) != 0 {
		t.Fatalf("expected no records, got %d", len(sink.Answers()))
	}
}

func TestDoubleAnswerScoresOnce(t *testing.T) {
	ctx := context.Background()
	service, sink := newTestService(cardiologyQuestions(1))
	defer service.Close()

	alice := player("u1", "Alice")
	if _, err := service.StartGame(ctx, alice, domain.ModeSolo, ""); err != nil {
		t.Fatalf("start game: %v", err)
	}
	first, ok := service.AnswerQuestion(ctx, alice, 1)
	if !ok {
		t.Fatalf("expected first answer accepted")
	}
	if _, ok := service.AnswerQuestion(ctx, alice, 1); ok {
		t.Fatalf("expected second answer ignored")
	}
	snap, _ := service.Snapshot(alice)
	if snap.Score != first.TotalScore {
		t.Fatalf("expected score %d after double answer, got %d", first.TotalScore, snap.Score)
	}
	service.Flush()
	if len(sink.Answers()) != 1 {
		t.Fatalf("expected exactly 1 answer record, got %d", len(sink.Answers()))
	}
}

func TestNextQuestionOnLastDelegatesToEndGame(t *testing.T) {
	ctx := context.Background()
	service, sink := newTestService(cardiologyQuestions(1))
	defer service.Close()

	alice := player("u1", "Alice")
	if _, err := service.StartGame(ctx, alice, domain.ModeSolo, ""); err != nil {
		t.Fatalf("start game: %v", err)
	}
	service.AnswerQuestion(ctx, alice, 1)

	_, finished, err := service.NextQuestion(ctx, alice)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if !finished {
		t.Fatalf("expected game to finish after last question")
	}
	if _, ok := service.Snapshot(alice); ok {
		t.Fatalf("expected game cleared after finishing")
	}

	service.Flush()
	summaries := sink.Summaries()
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].Score != 150 || !summaries[0].Completed || summaries[0].QuestionsAnswered != 1 {
		t.Fatalf("unexpected summary: %+v", summaries[0])
	}
	if xp := sink.XP("u1"); xp != 150 {
		t.Fatalf("expected 150 xp credited, got %d", xp)
	}
}

func TestEndGameTwiceEmitsOneSummary(t *testing.T) {
	ctx := context.Background()
	service, sink := newTestService(cardiologyQuestions(2))
	defer service.Close()

	alice := player("u1", "Alice")
	if _, err := service.StartGame(ctx, alice, domain.ModeSolo, ""); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if _, ok := service.EndGame(ctx, alice); !ok {
		t.Fatalf("expected end game to succeed")
	}
	if _, ok := service.EndGame(ctx, alice); ok {
		t.Fatalf("expected second end game to be a no-op")
	}
	service.Flush()
	if len(sink.Summaries()) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(sink.Summaries()))
	}
}

func TestEndGameFeedsLeaderboard(t *testing.T) {
	ctx := context.Background()
	board := memory.NewLeaderboard()
	service, _ := newTestServiceWithBoard(cardiologyQuestions(1), board)
	defer service.Close()

	alice := player("u1", "Alice")
	if _, err := service.StartGame(ctx, alice, domain.ModeSolo, "Cardiology"); err != nil {
		t.Fatalf("start game: %v", err)
	}
	service.AnswerQuestion(ctx, alice, 1)
	service.EndGame(ctx, alice)
	service.Flush()

	global, err := service.Leaderboard(ctx, "all", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(global.Entries) != 1 || global.Entries[0].UserID != "u1" || global.Entries[0].Score != 150 {
		t.Fatalf("unexpected global leaderboard: %+v", global.Entries)
	}
	byCategory, err := service.Leaderboard(ctx, "Cardiology", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(byCategory.Entries) != 1 || byCategory.Entries[0].Score != 150 {
		t.Fatalf("unexpected category leaderboard: %+v", byCategory.Entries)
	}
}

func TestStartGameReplacesPreviousSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(cardiologyQuestions(2))
	defer service.Close()

	alice := player("u1", "Alice")
	if _, err := service.StartGame(ctx, alice, domain.ModeSolo, ""); err != nil {
		t.Fatalf("start game: %v", err)
	}
	service.AnswerQuestion(ctx, alice, 1)

	snap, err := service.StartGame(ctx, alice, domain.ModeSolo, "")
	if err != nil {
		t.Fatalf("restart game: %v", err)
	}
	if snap.Score != 0 || snap.Answered || snap.QuestionIndex != 0 {
		t.Fatalf("expected fresh session, got %+v", snap)
	}
}

func newTestService(questions []domain.Question) (*app.GameService, *memory.ResultSink) {
	sink := memory.NewResultSink()
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(questions), 5*time.Minute)
	// An hour-long tick keeps countdowns inert during deterministic tests.
	service := app.NewGameServiceWithTick(memory.NewGameStore(), repo, sink, nil, time.Hour)
	return service, sink
}

func newTestServiceWithBoard(questions []domain.Question, board app.ScoreBoard) (*app.GameService, *memory.ResultSink) {
	sink := memory.NewResultSink()
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(questions), 5*time.Minute)
	service := app.NewGameServiceWithTick(memory.NewGameStore(), repo, sink, board, time.Hour)
	return service, sink
}

func player(id, name string) domain.UserSession {
	return domain.UserSession{UserID: id, DisplayName: name}
}

func cardiologyQuestions(n int) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, domain.Question{
			ID:            "q" + string(rune('a'+i)),
			Category:      "Cardiology",
			Level:         domain.LevelIntermediate,
			Text:          "sample question",
			Choices:       []string{"w", "x", "y", "z"},
			CorrectAnswer: 1,
			Explanation:   "sample explanation",
		})
	}
	return questions
}
