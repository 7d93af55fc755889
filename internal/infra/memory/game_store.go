package memory

import (
	"sync"

	"medquiz-service/internal/app"
)

// GameStore is an in-memory implementation of app.GameRepository, keyed by
// player. A player has at most one active game.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]*app.Game
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]*app.Game),
	}
}

func (s *GameStore) Get(userID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[userID]
	return game, ok
}

func (s *GameStore) Put(userID string, game *app.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[userID] = game
}

func (s *GameStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, userID)
}
