package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/google/uuid"
)

// BalanceProjection caches one user's coin balance. Invalidated on every
// ledger write for that user, so the TTL only bounds staleness across
// instances that missed the invalidation.
type BalanceProjection struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt string    `json:"updated_at"`
}

const (
	balanceTTL = 5 * time.Minute
	// The board moves constantly; a short TTL keeps the page fresh without
	// per-write invalidation fanning out to every cached page.
	leaderboardTTL = 30 * time.Second
)

func balanceKey(userID uuid.UUID) string {
	return fmt.Sprintf("projection:balance:%s", userID)
}

func leaderboardKey(page, limit int) string {
	return fmt.Sprintf("projection:leaderboard:%d:%d", page, limit)
}

// UpdateBalance caches a user's balance projection.
func UpdateBalance(ctx context.Context, store Store, userID uuid.UUID, balance int64) error {
	p := BalanceProjection{
		UserID:    userID,
		Balance:   balance,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return SetJSON(ctx, store, balanceKey(userID), p, balanceTTL)
}

// GetBalance retrieves a cached balance projection.
func GetBalance(ctx context.Context, store Store, userID uuid.UUID) (*BalanceProjection, error) {
	var p BalanceProjection
	if err := GetJSON(ctx, store, balanceKey(userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InvalidateBalance removes a user's cached balance.
func InvalidateBalance(ctx context.Context, store Store, userID uuid.UUID) error {
	return store.Delete(ctx, balanceKey(userID))
}

// UpdateLeaderboardPage caches one ranked page.
func UpdateLeaderboardPage(ctx context.Context, store Store, page *domain.LeaderboardPage) error {
	return SetJSON(ctx, store, leaderboardKey(page.Page, page.Limit), page, leaderboardTTL)
}

// GetLeaderboardPage retrieves a cached ranked page.
func GetLeaderboardPage(ctx context.Context, store Store, page, limit int) (*domain.LeaderboardPage, error) {
	var p domain.LeaderboardPage
	if err := GetJSON(ctx, store, leaderboardKey(page, limit), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
