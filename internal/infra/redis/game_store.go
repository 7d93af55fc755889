package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"medquiz-service/internal/app"
)

// GameStore is a Redis-aware implementation of app.GameRepository.
// Notes:
//   - Games stay in a local in-memory map: the countdown goroutine and the
//     subscriber broadcast logic are in-process by design.
//   - Redis marks game liveness so operators can see active sessions across
//     instances (and it could be extended to route cross-instance pub/sub).
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*app.Game
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{
		client: client,
		ttl:    ttl,
		games:  make(map[string]*app.Game),
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(userID), "1", s.ttl).Err()
}

func (s *GameStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, userID)
	_ = s.client.Del(context.Background(), s.key(userID)).Err()
}

func (s *GameStore) key(userID string) string {
	return "game:active:" + userID
}
