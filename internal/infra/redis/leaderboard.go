package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"medquiz-service/internal/domain"
)

// Leaderboard ranks cumulative scores in Redis sorted sets, one per category
// plus a global board:
//
//	ZINCRBY leaderboard:{category} {score} {userID}
//	HSET    leaderboard:names {userID} {displayName}
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func (l *Leaderboard) AddScore(ctx context.Context, category string, player domain.UserSession, score int) error {
	pipe := l.client.Pipeline()
	pipe.ZIncrBy(ctx, l.key(category), float64(score), player.UserID)
	pipe.HSet(ctx, "leaderboard:names", player.UserID, player.DisplayName)
	_, err := pipe.Exec(ctx)
	return err
}

func (l *Leaderboard) Top(ctx context.Context, category string, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = 10
	}
	ranked, err := l.client.ZRevRangeWithScores(ctx, l.key(category), 0, int64(limit-1)).Result()
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for i, member := range ranked {
		userID, _ := member.Member.(string)
		name, _ := l.client.HGet(ctx, "leaderboard:names", userID).Result()
		entries = append(entries, domain.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      userID,
			DisplayName: name,
			Score:       int(member.Score),
		})
	}
	return domain.Leaderboard{
		Category:  category,
		Entries:   entries,
		UpdatedAt: time.Now(),
	}, nil
}

func (l *Leaderboard) key(category string) string {
	if category == "" {
		return "leaderboard:global"
	}
	return "leaderboard:" + category
}
