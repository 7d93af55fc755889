package memory

import (
	"context"
	"testing"

	"medquiz-service/internal/domain"
)

func TestLeaderboardRanksAccumulatedScores(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard()

	alice := domain.UserSession{UserID: "u1", DisplayName: "Alice"}
	bob := domain.UserSession{UserID: "u2", DisplayName: "Bob"}

	_ = board.AddScore(ctx, "", alice, 100)
	_ = board.AddScore(ctx, "", bob, 250)
	_ = board.AddScore(ctx, "", alice, 200)

	top, err := board.Top(ctx, "", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top.Entries))
	}
	if top.Entries[0].UserID != "u1" || top.Entries[0].Score != 300 || top.Entries[0].Rank != 1 {
		t.Fatalf("expected Alice leading with 300, got %+v", top.Entries[0])
	}
	if top.Entries[1].UserID != "u2" || top.Entries[1].Score != 250 {
		t.Fatalf("expected Bob second with 250, got %+v", top.Entries[1])
	}
}

func TestLeaderboardLimitsAndIsolatesCategories(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard()

	_ = board.AddScore(ctx, "Cardiology", domain.UserSession{UserID: "u1", DisplayName: "Alice"}, 50)
	_ = board.AddScore(ctx, "Neurology", domain.UserSession{UserID: "u2", DisplayName: "Bob"}, 80)

	cardio, err := board.Top(ctx, "Cardiology", 1)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(cardio.Entries) != 1 || cardio.Entries[0].UserID != "u1" {
		t.Fatalf("expected only Alice in Cardiology, got %+v", cardio.Entries)
	}
}
