package domain

import "errors"

var (
	// ErrNoQuestions is returned when the question fetch fails or comes back
	// empty; the game never starts in that case.
	ErrNoQuestions = errors.New("no questions available")
	// ErrGameNotFound is returned when an operation needs an active game.
	ErrGameNotFound = errors.New("no active game for player")
	// ErrInvalidMode is returned for modes outside solo/multi/daily.
	ErrInvalidMode = errors.New("invalid game mode")
	// ErrInvalidQuestion indicates a question violating editor invariants
	// (not exactly 4 choices, or the correct index out of bounds).
	ErrInvalidQuestion = errors.New("invalid question")
)
