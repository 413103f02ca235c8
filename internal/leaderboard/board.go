package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Board serves the ranked view and the points write path. Points only ever
// go up; level is derived from the total in the same statement that
// increments it, so the two can never drift apart.
type Board struct {
	pool    *pgxpool.Pool
	entries repository.LeaderboardRepository
	outbox  repository.OutboxRepository
	logger  *slog.Logger
}

// NewBoard creates a leaderboard service.
func NewBoard(pool *pgxpool.Pool, entries repository.LeaderboardRepository, outbox repository.OutboxRepository, logger *slog.Logger) *Board {
	return &Board{pool: pool, entries: entries, outbox: outbox, logger: logger}
}

// AwardPoints adds points to a user's total, creating the entry when absent,
// and emits a level-up event when the derived level rises.
func (b *Board) AwardPoints(ctx context.Context, userID uuid.UUID, points int64) (*domain.LeaderboardEntry, error) {
	var entry *domain.LeaderboardEntry
	err := pgx.BeginTxFunc(ctx, b.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var err error
		entry, err = b.AwardPointsTx(ctx, tx, userID, points)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AwardPointsTx is the transactional core of AwardPoints.
func (b *Board) AwardPointsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int64) (*domain.LeaderboardEntry, error) {
	if points <= 0 {
		return nil, domain.ErrValidation("points must be positive")
	}

	entry, err := b.entries.AddPoints(ctx, tx, userID, points)
	if err != nil {
		return nil, fmt.Errorf("add points: %w", err)
	}

	fromLevel := domain.LevelForPoints(entry.TotalPoints - points)
	if entry.Level > fromLevel {
		if err := b.outbox.Insert(ctx, tx, domain.NewLevelUpEvent(userID, fromLevel, entry.Level, entry.TotalPoints)); err != nil {
			return nil, fmt.Errorf("insert level up event: %w", err)
		}
		b.logger.Info("level up",
			"user_id", userID, "from_level", fromLevel, "to_level", entry.Level, "total_points", entry.TotalPoints)
	}
	return entry, nil
}

// GetRankedPage returns one page of the board ordered by total points
// descending, optionally narrowed to a minimum level. Rank is computed by
// the query over the full table, so entry N on page 2 carries its true
// global rank.
func (b *Board) GetRankedPage(ctx context.Context, db repository.DBTX, page, limit int, filter domain.LeaderboardFilter) (*domain.LeaderboardPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if filter.MinLevel != nil && *filter.MinLevel < 1 {
		return nil, domain.ErrValidation("min_level must be at least 1")
	}

	entries, total, err := b.entries.RankedPage(ctx, db, page, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("ranked page: %w", err)
	}
	return &domain.LeaderboardPage{Entries: entries, Page: page, Limit: limit, Total: total}, nil
}

// GetUserEntry returns the user's entry with its current global rank,
// creating a zeroed entry for users who have never scored.
func (b *Board) GetUserEntry(ctx context.Context, db repository.DBTX, userID uuid.UUID) (*domain.LeaderboardEntry, error) {
	entry, err := b.entries.RankForUser(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("rank for user: %w", err)
	}
	if entry != nil {
		return entry, nil
	}

	entry, err = b.entries.GetOrCreate(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create entry: %w", err)
	}
	return entry, nil
}
