package app

import (
	"math"
	"sync"
	"time"

	"medquiz-service/internal/domain"
)

const (
	// countdownBudget is the per-question allowance in seconds.
	countdownBudget = 10

	dailyQuestionCount   = 5
	defaultQuestionCount = 10
)

// Game is the in-memory state of one active quiz session. Ticks from the
// countdown goroutine and user-triggered operations are serialized by the
// mutex; at most one countdown is live at any time, and every transition
// goes through swapCountdownLocked to cancel the previous handle first.
type Game struct {
	mode      domain.GameMode
	category  string
	questions []domain.Question
	tickEvery time.Duration

	mu          sync.Mutex
	index       int
	score       int
	timeLeft    int
	answered    bool
	generation  int
	cancel      func()
	subscribers map[chan domain.GameSnapshot]struct{}
}

func newGame(mode domain.GameMode, category string, questions []domain.Question, tickEvery time.Duration) *Game {
	return &Game{
		mode:        mode,
		category:    category,
		questions:   questions,
		tickEvery:   tickEvery,
		timeLeft:    countdownBudget,
		subscribers: make(map[chan domain.GameSnapshot]struct{}),
	}
}

// start kicks off the first question's countdown and returns the initial snapshot.
func (g *Game) start() domain.GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.startCountdownLocked()
	return g.broadcastLocked()
}

// answerOutcome carries everything the service needs to score and record
// one answered question.
type answerOutcome struct {
	question  domain.Question
	correct   bool
	points    int
	timeTaken int
	total     int
}

// answer scores the current question. It is a no-op (ok=false) when the
// question was already answered, by choice or by timeout.
func (g *Game) answer(choiceIndex int) (answerOutcome, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.answered || g.index >= len(g.questions) {
		return answerOutcome{}, false
	}
	g.swapCountdownLocked(nil)

	question := g.questions[g.index]
	correct := choiceIndex == question.CorrectAnswer
	points := 0
	if correct {
		// Linear time bonus: 150 for an instant answer down to 50 at expiry.
		points = int(math.Round(float64(g.timeLeft)/float64(countdownBudget)*100)) + 50
	}
	g.score += points
	g.answered = true
	g.broadcastLocked()

	return answerOutcome{
		question:  question,
		correct:   correct,
		points:    points,
		timeTaken: countdownBudget - g.timeLeft,
		total:     g.score,
	}, true
}

// next advances to the following question, restarting the countdown at full
// budget. It reports finished=true once the index passes the last question;
// the caller is then expected to end the game.
func (g *Game) next() (finished bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.index++
	if g.index >= len(g.questions) {
		g.swapCountdownLocked(nil)
		return true
	}
	g.answered = false
	g.timeLeft = countdownBudget
	g.startCountdownLocked()
	g.broadcastLocked()
	return false
}

// stop cancels the countdown, closes all subscriptions and returns the final
// score and question count.
func (g *Game) stop() (score, questionCount int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.swapCountdownLocked(nil)
	for ch := range g.subscribers {
		delete(g.subscribers, ch)
		close(ch)
	}
	return g.score, len(g.questions)
}

// swapCountdownLocked is the single place a countdown handle is cleared or
// replaced. Cancelling before installing guarantees at most one live timer.
func (g *Game) swapCountdownLocked(next func()) {
	if g.cancel != nil {
		g.cancel()
	}
	g.cancel = next
}

func (g *Game) startCountdownLocked() {
	g.generation++
	gen := g.generation
	stop := make(chan struct{})
	var once sync.Once
	g.swapCountdownLocked(func() {
		once.Do(func() { close(stop) })
	})
	go g.runCountdown(gen, stop)
}

func (g *Game) runCountdown(gen int, stop <-chan struct{}) {
	ticker := time.NewTicker(g.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if g.tick(gen) {
				return
			}
		}
	}
}

// tick decrements the countdown by one second. A tick racing a cancellation
// carries a stale generation and is ignored, so an answered question can
// never be double-scored. At zero the question is forced into the answered
// state with no points awarded.
func (g *Game) tick(gen int) (done bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.generation || g.answered {
		return true
	}
	g.timeLeft--
	if g.timeLeft <= 0 {
		g.timeLeft = 0
		g.answered = true
		g.swapCountdownLocked(nil)
		g.broadcastLocked()
		return true
	}
	g.broadcastLocked()
	return false
}

// subscribe returns a channel receiving a snapshot on every state mutation,
// including ticks. The caller must invoke cancel to avoid leaks.
func (g *Game) subscribe() (<-chan domain.GameSnapshot, func()) {
	ch := make(chan domain.GameSnapshot, 8)

	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	initial := g.snapshotLocked()
	g.mu.Unlock()

	ch <- initial

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

func (g *Game) snapshot() domain.GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Game) broadcastLocked() domain.GameSnapshot {
	snap := g.snapshotLocked()
	for ch := range g.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow client never blocks ticks.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (g *Game) snapshotLocked() domain.GameSnapshot {
	idx := g.index
	if idx >= len(g.questions) {
		idx = len(g.questions) - 1
	}
	question := g.questions[idx]
	return domain.GameSnapshot{
		Mode:     g.mode,
		Category: g.category,
		Question: domain.QuestionView{
			ID:       question.ID,
			Category: question.Category,
			Level:    question.Level,
			Text:     question.Text,
			Choices:  question.Choices,
		},
		QuestionIndex: g.index,
		QuestionCount: len(g.questions),
		Score:         g.score,
		TimeLeft:      g.timeLeft,
		Answered:      g.answered,
	}
}
