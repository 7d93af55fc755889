package domain

import "time"

// GameMode selects how a quiz session is assembled and reported.
type GameMode string

const (
	ModeSolo  GameMode = "solo"
	ModeMulti GameMode = "multi"
	ModeDaily GameMode = "daily"
)

// Valid reports whether the mode is one of the supported game modes.
func (m GameMode) Valid() bool {
	switch m {
	case ModeSolo, ModeMulti, ModeDaily:
		return true
	}
	return false
}

// Difficulty levels used by question authors and the AI generator.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Question is an MCQ item. Immutable once fetched into a game.
type Question struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	Level         string    `json:"level"`
	Text          string    `json:"text"`
	Choices       []string  `json:"choices"`
	CorrectAnswer int       `json:"correctAnswer"` // 0-based index into Choices
	Explanation   string    `json:"explanation"`
	CreatedBy     string    `json:"createdBy"`
	IsAIGenerated bool      `json:"isAIGenerated"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Validate checks the structural invariants the question editor enforces.
func (q Question) Validate() error {
	if q.Text == "" {
		return ErrInvalidQuestion
	}
	if len(q.Choices) != 4 {
		return ErrInvalidQuestion
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Choices) {
		return ErrInvalidQuestion
	}
	return nil
}

// UserSession identifies the authenticated player behind a request.
// Authentication itself is an external collaborator; the service only
// ever sees this injected identity.
type UserSession struct {
	UserID      string
	DisplayName string
}

// QuestionView is the client-facing shape of the current question. The
// correct index and explanation are withheld until the question is answered.
type QuestionView struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Level    string   `json:"level"`
	Text     string   `json:"text"`
	Choices  []string `json:"choices"`
}

// GameSnapshot is what the presentation layer reads every render tick.
type GameSnapshot struct {
	Mode          GameMode     `json:"mode"`
	Category      string       `json:"category"`
	Question      QuestionView `json:"question"`
	QuestionIndex int          `json:"questionIndex"`
	QuestionCount int          `json:"questionCount"`
	Score         int          `json:"score"`
	TimeLeft      int          `json:"timeLeft"`
	Answered      bool         `json:"answered"`
}

// AnswerResult summarizes one scored answer for the player who submitted it.
type AnswerResult struct {
	QuestionID    string `json:"questionId"`
	Correct       bool   `json:"correct"`
	Points        int    `json:"points"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
	TotalScore    int    `json:"totalScore"`
}

// AnswerRecord is per-answer telemetry, written fire-and-forget.
type AnswerRecord struct {
	UserID     string   `json:"userId"`
	QuestionID string   `json:"questionId"`
	Correct    bool     `json:"isCorrect"`
	TimeTaken  int      `json:"timeTaken"` // seconds from question start to answer
	Points     int      `json:"pointsEarned"`
	Mode       GameMode `json:"gameMode"`
}

// GameSummary is the final record of a session, written once at game end.
type GameSummary struct {
	ID                string   `json:"id"`
	UserID            string   `json:"userId"`
	Mode              GameMode `json:"mode"`
	Category          string   `json:"category"`
	Score             int      `json:"score"`
	QuestionsAnswered int      `json:"questionsAnswered"`
	Completed         bool     `json:"completed"`
}

// LeaderboardEntry is one ranked row of cumulative scores.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Leaderboard is the ordered scoreboard for a category ("" means global).
type Leaderboard struct {
	Category  string             `json:"category"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
