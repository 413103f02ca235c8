package streak

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/ledger"
	"github.com/cinesocial/platform/internal/policy"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MilestoneTier pairs a consecutive-day threshold with the coins it pays out.
type MilestoneTier struct {
	Days        int   `json:"days"`
	RewardCoins int64 `json:"reward_coins"`
}

// MilestoneSchedule lists the thresholds a streak can cross, ascending by
// days. The schedule is injected so deployments can tune tiers without a
// code change.
type MilestoneSchedule []MilestoneTier

// DefaultSchedule is the stock 7/30/100-day ladder.
var DefaultSchedule = MilestoneSchedule{
	{Days: 7, RewardCoins: 70},
	{Days: 30, RewardCoins: 300},
	{Days: 100, RewardCoins: 1000},
}

// Tracker owns the per (user, streakType) consecutive-day counters. All
// writes happen under the streak row lock so concurrent activity events for
// the same key serialize.
type Tracker struct {
	pool         *pgxpool.Pool
	streaks      repository.StreakRepository
	engine       *ledger.Engine
	outbox       repository.OutboxRepository
	freezes      policy.FreezePolicy
	schedule     MilestoneSchedule
	freezeBudget int
	logSameDay   bool
	logger       *slog.Logger
}

// Options tunes tracker behavior beyond the repository wiring.
type Options struct {
	// FreezePolicy decides automatic freeze consumption on a gap. Nil means
	// policy.NoAutoFreeze.
	FreezePolicy policy.FreezePolicy
	// Schedule overrides DefaultSchedule when non-nil.
	Schedule MilestoneSchedule
	// FreezeBudget is the freeze allowance a new streak starts with. Zero
	// means domain.DefaultFreezeBudget.
	FreezeBudget int
	// LogSameDayActivity appends a history entry for repeated activity on an
	// already-counted day.
	LogSameDayActivity bool
}

// NewTracker creates a streak tracker.
func NewTracker(
	pool *pgxpool.Pool,
	streaks repository.StreakRepository,
	engine *ledger.Engine,
	outbox repository.OutboxRepository,
	opts Options,
	logger *slog.Logger,
) *Tracker {
	if opts.FreezePolicy == nil {
		opts.FreezePolicy = policy.NoAutoFreeze{}
	}
	if opts.Schedule == nil {
		opts.Schedule = DefaultSchedule
	}
	if opts.FreezeBudget == 0 {
		opts.FreezeBudget = domain.DefaultFreezeBudget
	}
	return &Tracker{
		pool:         pool,
		streaks:      streaks,
		engine:       engine,
		outbox:       outbox,
		freezes:      opts.FreezePolicy,
		schedule:     opts.Schedule,
		freezeBudget: opts.FreezeBudget,
		logSameDay:   opts.LogSameDayActivity,
		logger:       logger,
	}
}

// ActivityResult is the outcome of one activity record.
type ActivityResult struct {
	Streak *domain.Streak `json:"streak"`
	// Broken is true when this activity arrived after an uncovered gap and
	// the counter restarted at 1.
	Broken bool `json:"broken"`
	// FreezesConsumed is the number of freezes spent bridging the gap.
	FreezesConsumed int `json:"freezes_consumed"`
	// MilestonesReached lists tiers crossed by this activity, oldest first.
	MilestonesReached []domain.StreakMilestone `json:"milestones_reached,omitempty"`
}

// RecordActivity registers one activity of the given type at the given time
// and advances the streak state machine.
func (t *Tracker) RecordActivity(ctx context.Context, userID uuid.UUID, streakType domain.StreakType, at time.Time) (*ActivityResult, error) {
	var result *ActivityResult
	err := pgx.BeginTxFunc(ctx, t.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var err error
		result, err = t.RecordActivityTx(ctx, tx, userID, streakType, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordActivityTx is the transactional core of RecordActivity.
//
// The calendar-day difference between the stored lastActivityDate and the
// activity time decides the transition: 0 leaves the counter alone, 1
// increments it, anything larger either gets bridged by the freeze policy or
// breaks the streak back to 1.
func (t *Tracker) RecordActivityTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, streakType domain.StreakType, at time.Time) (*ActivityResult, error) {
	if !domain.ValidStreakTypes[streakType] {
		return nil, domain.ErrValidation(fmt.Sprintf("unknown streak type %q", streakType))
	}

	streak, err := t.streaks.LockForUpdate(ctx, tx, userID, streakType)
	if err != nil {
		return nil, fmt.Errorf("lock streak: %w", err)
	}
	if streak == nil {
		return t.startStreak(ctx, tx, userID, streakType, at)
	}

	result := &ActivityResult{Streak: streak}
	switch days := domain.CalendarDaysBetween(streak.LastActivityDate, at); {
	case days < 0:
		// Clock skew or a replayed old event. Refuse rather than rewind.
		return nil, domain.ErrValidation("activity time precedes last recorded activity")

	case days == 0:
		// The counter holds, but the last-seen timestamp still moves so the
		// record reflects the most recent activity within the day.
		streak.LastActivityDate = at
		if t.logSameDay {
			streak.History = append(streak.History, domain.StreakHistoryEntry{Date: at, Count: streak.CurrentStreak})
		}

	case days == 1:
		t.advance(streak, at)
		if err := t.payMilestones(ctx, tx, streak, result, at); err != nil {
			return nil, err
		}

	default:
		missed := days - 1
		decision := t.freezes.EvaluateGap(streak, missed)
		if decision.Covered {
			streak.FreezesAvailable -= decision.Consumed
			streak.FreezesUsed += decision.Consumed
			result.FreezesConsumed = decision.Consumed
			t.advance(streak, at)
			if err := t.payMilestones(ctx, tx, streak, result, at); err != nil {
				return nil, err
			}
			t.logger.Info("streak gap bridged",
				"user_id", userID, "type", streakType, "missed_days", missed, "freezes_spent", decision.Consumed)
			break
		}

		previous := streak.CurrentStreak
		streak.CurrentStreak = 1
		streak.LastActivityDate = at
		streak.History = append(streak.History, domain.StreakHistoryEntry{Date: at, Count: 1})
		result.Broken = true
		if err := t.outbox.Insert(ctx, tx, domain.NewStreakBrokenEvent(userID, streakType, previous)); err != nil {
			return nil, fmt.Errorf("insert streak broken event: %w", err)
		}
		t.logger.Info("streak broken",
			"user_id", userID, "type", streakType, "previous_streak", previous, "missed_days", missed)
	}

	streak.UpdatedAt = time.Now()
	if err := t.streaks.Update(ctx, tx, streak); err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}
	return result, nil
}

func (t *Tracker) startStreak(ctx context.Context, tx pgx.Tx, userID uuid.UUID, streakType domain.StreakType, at time.Time) (*ActivityResult, error) {
	now := time.Now()
	streak := &domain.Streak{
		ID:               uuid.New(),
		UserID:           userID,
		Type:             streakType,
		CurrentStreak:    1,
		LongestStreak:    1,
		LastActivityDate: at,
		FreezesAvailable: t.freezeBudget,
		History:          []domain.StreakHistoryEntry{{Date: at, Count: 1}},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := t.streaks.Create(ctx, tx, streak); err != nil {
		return nil, fmt.Errorf("create streak: %w", err)
	}
	return &ActivityResult{Streak: streak}, nil
}

// advance increments the counter, lifts the longest watermark, and logs the
// day in the history.
func (t *Tracker) advance(streak *domain.Streak, at time.Time) {
	streak.CurrentStreak++
	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}
	streak.LastActivityDate = at
	streak.History = append(streak.History, domain.StreakHistoryEntry{Date: at, Count: streak.CurrentStreak})
}

// payMilestones records every schedule tier the counter has crossed but not
// yet claimed, crediting the reward and emitting the outbox event for each.
// The ledger idempotency key carries the tier so a retried transaction can
// never double-pay.
func (t *Tracker) payMilestones(ctx context.Context, tx pgx.Tx, streak *domain.Streak, result *ActivityResult, at time.Time) error {
	for _, tier := range t.schedule {
		if streak.CurrentStreak < tier.Days || streak.HasMilestone(tier.Days) {
			continue
		}
		milestone := domain.StreakMilestone{Days: tier.Days, RewardCoin: tier.RewardCoins, AchievedAt: at}
		streak.Milestones = append(streak.Milestones, milestone)
		result.MilestonesReached = append(result.MilestonesReached, milestone)

		if tier.RewardCoins > 0 {
			_, err := t.engine.RecordTransaction(ctx, tx, domain.RecordTransactionParams{
				UserID:         streak.UserID,
				Type:           domain.CoinBonus,
				Amount:         tier.RewardCoins,
				Reason:         domain.ReasonStreakMilestone,
				Description:    fmt.Sprintf("%d-day %s streak", tier.Days, streak.Type),
				IdempotencyKey: fmt.Sprintf("streak-%s-%s-%d", streak.Type, streak.UserID, tier.Days),
			})
			if err != nil {
				return fmt.Errorf("credit streak milestone: %w", err)
			}
		}
		if err := t.outbox.Insert(ctx, tx, domain.NewStreakMilestoneEvent(streak.UserID, streak.Type, tier.Days, tier.RewardCoins)); err != nil {
			return fmt.Errorf("insert streak milestone event: %w", err)
		}
		t.logger.Info("streak milestone reached",
			"user_id", streak.UserID, "type", streak.Type, "days", tier.Days, "reward", tier.RewardCoins)
	}
	return nil
}

// UseFreeze explicitly spends freezes to bridge the gap between the last
// recorded activity and now, keeping the streak alive without counting an
// activity. One freeze covers one missed day; the whole gap must be
// affordable or nothing is spent.
func (t *Tracker) UseFreeze(ctx context.Context, userID uuid.UUID, streakType domain.StreakType, now time.Time) (*domain.Streak, error) {
	var streak *domain.Streak
	err := pgx.BeginTxFunc(ctx, t.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var err error
		streak, err = t.UseFreezeTx(ctx, tx, userID, streakType, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return streak, nil
}

// UseFreezeTx is the transactional core of UseFreeze.
func (t *Tracker) UseFreezeTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, streakType domain.StreakType, now time.Time) (*domain.Streak, error) {
	if !domain.ValidStreakTypes[streakType] {
		return nil, domain.ErrValidation(fmt.Sprintf("unknown streak type %q", streakType))
	}

	streak, err := t.streaks.LockForUpdate(ctx, tx, userID, streakType)
	if err != nil {
		return nil, fmt.Errorf("lock streak: %w", err)
	}
	if streak == nil {
		return nil, domain.ErrNotFound("streak", string(streakType))
	}

	// A freeze is only spendable while the streak is at risk: at least one
	// whole day missed, but close enough that bridging it still matters.
	missed := domain.CalendarDaysBetween(streak.LastActivityDate, now) - 1
	if missed < 1 {
		return nil, domain.ErrInvalidState("streak has no gap to freeze")
	}
	if missed > streak.FreezesAvailable {
		return nil, domain.ErrInvalidState("not enough freezes to cover the gap")
	}

	streak.FreezesAvailable -= missed
	streak.FreezesUsed += missed
	// Move the anchor to yesterday so today's activity lands as a normal
	// one-day advance.
	streak.LastActivityDate = now.AddDate(0, 0, -1)
	streak.UpdatedAt = time.Now()
	if err := t.streaks.Update(ctx, tx, streak); err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}
	t.logger.Info("streak freeze used",
		"user_id", userID, "type", streakType, "freezes_spent", missed, "remaining", streak.FreezesAvailable)
	return streak, nil
}

// GetUserStreaks lists all streaks for a user.
func (t *Tracker) GetUserStreaks(ctx context.Context, db repository.DBTX, userID uuid.UUID) ([]domain.Streak, error) {
	streaks, err := t.streaks.ListByUser(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("list streaks: %w", err)
	}
	return streaks, nil
}
