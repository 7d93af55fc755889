package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"medquiz-service/internal/domain"
)

// Leaderboard keeps cumulative scores in process memory. It backs the
// leaderboard endpoint when no Redis is configured.
type Leaderboard struct {
	mu     sync.RWMutex
	boards map[string]map[string]*boardEntry
}

type boardEntry struct {
	displayName string
	score       int
	updatedAt   time.Time
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		boards: make(map[string]map[string]*boardEntry),
	}
}

func (l *Leaderboard) AddScore(_ context.Context, category string, player domain.UserSession, score int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	board, ok := l.boards[category]
	if !ok {
		board = make(map[string]*boardEntry)
		l.boards[category] = board
	}
	entry, ok := board[player.UserID]
	if !ok {
		entry = &boardEntry{displayName: player.DisplayName}
		board[player.UserID] = entry
	}
	entry.displayName = player.DisplayName
	entry.score += score
	entry.updatedAt = time.Now()
	return nil
}

func (l *Leaderboard) Top(_ context.Context, category string, limit int) (domain.Leaderboard, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	board := l.boards[category]
	entries := make([]domain.LeaderboardEntry, 0, len(board))
	for userID, entry := range board {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      userID,
			DisplayName: entry.displayName,
			Score:       entry.score,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return domain.Leaderboard{
		Category:  category,
		Entries:   entries,
		UpdatedAt: time.Now(),
	}, nil
}
