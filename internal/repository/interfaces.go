package repository

import (
	"context"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// WalletRepository provides access to coin_wallets. The wallet row carries
// the running balance and serves as the per-user serialization point for
// ledger writes.
type WalletRepository interface {
	// LockForUpdate creates the wallet row if absent, then acquires a
	// row-level lock (SELECT FOR UPDATE) and returns the current balance.
	LockForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error)

	// ApplyDelta adds delta to the locked wallet balance using server-side
	// arithmetic and returns the new balance.
	ApplyDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta int64) (int64, error)
}

// CoinTransactionRepository provides access to coin_transactions.
type CoinTransactionRepository interface {
	// FindByIdempotencyKey checks for a duplicate ledger write. Returns nil
	// if no duplicate exists.
	FindByIdempotencyKey(ctx context.Context, db DBTX, userID uuid.UUID, key string) (*domain.CoinTransaction, error)

	// Insert appends a new immutable ledger entry with its balance snapshot.
	Insert(ctx context.Context, db DBTX, params domain.RecordTransactionParams, balanceAfter int64) (*domain.CoinTransaction, error)

	// LatestBalance returns the balance_after of the newest entry, or 0 when
	// no entry exists.
	LatestBalance(ctx context.Context, db DBTX, userID uuid.UUID) (int64, error)

	// ListByUser returns a newest-first page of entries with the total count.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, filter domain.CoinTransactionFilter, page, limit int) ([]domain.CoinTransaction, int, error)

	// SumAmounts returns the sum of all amounts for a user. Used by the
	// balance audit check; must always equal LatestBalance.
	SumAmounts(ctx context.Context, db DBTX, userID uuid.UUID) (int64, error)
}

// BadgeRepository provides access to badges.
type BadgeRepository interface {
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Badge, error)

	// List returns badges sorted rarity ascending, points descending.
	List(ctx context.Context, db DBTX, filter domain.BadgeFilter) ([]domain.Badge, error)

	Create(ctx context.Context, db DBTX, badge *domain.Badge) error

	SetActive(ctx context.Context, db DBTX, id uuid.UUID, active bool) (bool, error)

	// AddHolder appends the user to the badge's holder list and increments
	// the holder count, once. Returns false when the user already holds it.
	AddHolder(ctx context.Context, db DBTX, badgeID, userID uuid.UUID) (bool, error)
}

// AchievementRepository provides access to achievements.
type AchievementRepository interface {
	// UpsertProgress creates the (user, badge) record with the given target
	// if absent, otherwise overwrites current with an absolute set. Returns
	// the post-write row.
	UpsertProgress(ctx context.Context, db DBTX, userID, badgeID uuid.UUID, current, target int) (*domain.Achievement, error)

	// MarkUnlocked flips is_unlocked false→true atomically. Returns true
	// only for the caller that won the transition.
	MarkUnlocked(ctx context.Context, db DBTX, userID, badgeID uuid.UUID, at time.Time) (bool, error)

	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Achievement, error)

	FindByUserAndBadge(ctx context.Context, db DBTX, userID, badgeID uuid.UUID) (*domain.Achievement, error)
}

// StreakRepository provides access to streaks. Writes go through a row lock
// so concurrent activity events for the same (user, type) serialize.
type StreakRepository interface {
	// LockForUpdate returns the locked streak row, or nil when none exists.
	LockForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, streakType domain.StreakType) (*domain.Streak, error)

	Create(ctx context.Context, tx pgx.Tx, streak *domain.Streak) error

	Update(ctx context.Context, tx pgx.Tx, streak *domain.Streak) error

	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Streak, error)
}

// LeaderboardRepository provides access to leaderboard_entries.
type LeaderboardRepository interface {
	// AddPoints atomically increments total_points (create-if-absent) and
	// recomputes level server-side. Returns the post-update entry.
	AddPoints(ctx context.Context, db DBTX, userID uuid.UUID, points int64) (*domain.LeaderboardEntry, error)

	// GetOrCreate fetches the entry, inserting a zeroed one when absent.
	GetOrCreate(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.LeaderboardEntry, error)

	// RankedPage returns one page ordered by total_points descending with a
	// global rank computed by the query, plus the matching entry count.
	RankedPage(ctx context.Context, db DBTX, page, limit int, filter domain.LeaderboardFilter) ([]domain.LeaderboardEntry, int, error)

	// RankForUser returns the user's entry with its current global rank.
	RankForUser(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.LeaderboardEntry, error)
}

// EngagementRepository provides access to engagement_days, the per (user,
// calendar day) activity counters.
type EngagementRepository interface {
	// AddSignal increments one counter for the user's day row
	// (create-if-absent), recomputes the weighted score, and returns the
	// post-write row.
	AddSignal(ctx context.Context, tx pgx.Tx, userID uuid.UUID, signal domain.SignalType, value int, day time.Time) (*domain.EngagementDay, error)

	// GetDay returns the user's counters for one day, or nil when the user
	// had no recorded activity.
	GetDay(ctx context.Context, db DBTX, userID uuid.UUID, day time.Time) (*domain.EngagementDay, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the
	// state change it describes).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error
}
