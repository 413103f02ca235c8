package achievement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/ledger"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tracker owns achievement progress records and the one-way unlock
// transition. It is the only component that reaches across to mutate badge
// holders and leaderboard points, and it does so inside a single database
// transaction guarded by the is_unlocked compare-and-set.
type Tracker struct {
	pool         *pgxpool.Pool
	badges       repository.BadgeRepository
	achievements repository.AchievementRepository
	leaderboard  repository.LeaderboardRepository
	engine       *ledger.Engine
	outbox       repository.OutboxRepository
	logger       *slog.Logger
}

// NewTracker creates an achievement tracker.
func NewTracker(
	pool *pgxpool.Pool,
	badges repository.BadgeRepository,
	achievements repository.AchievementRepository,
	leaderboard repository.LeaderboardRepository,
	engine *ledger.Engine,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *Tracker {
	return &Tracker{
		pool:         pool,
		badges:       badges,
		achievements: achievements,
		leaderboard:  leaderboard,
		engine:       engine,
		outbox:       outbox,
		logger:       logger,
	}
}

// ProgressResult is the outcome of one progress write.
type ProgressResult struct {
	Achievement *domain.Achievement `json:"achievement"`
	Badge       *domain.Badge       `json:"badge"`
	// Unlocked is true only for the call that won the unlock transition.
	Unlocked bool `json:"unlocked"`
}

// RecordProgress writes an absolute progress value for (user, badge) and
// runs the unlock side effects exactly once when the target is reached.
func (t *Tracker) RecordProgress(ctx context.Context, userID, badgeID uuid.UUID, value int) (*ProgressResult, error) {
	var result *ProgressResult
	err := pgx.BeginTxFunc(ctx, t.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var err error
		result, err = t.RecordProgressTx(ctx, tx, userID, badgeID, value)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordProgressTx is the transactional core of RecordProgress. All writes
// happen within the caller's transaction so a failed ledger credit or
// leaderboard award rolls the unlock flag back too, which is what makes the
// whole sequence retryable.
func (t *Tracker) RecordProgressTx(ctx context.Context, tx pgx.Tx, userID, badgeID uuid.UUID, value int) (*ProgressResult, error) {
	if value < 0 {
		return nil, domain.ErrValidation("progress value must not be negative")
	}

	badge, err := t.badges.FindByID(ctx, tx, badgeID)
	if err != nil {
		return nil, fmt.Errorf("record progress: %w", err)
	}
	if badge == nil {
		return nil, domain.ErrNotFound("badge", badgeID.String())
	}
	if !badge.IsActive {
		return nil, domain.ErrInvalidState("badge is not active")
	}

	ach, err := t.achievements.UpsertProgress(ctx, tx, userID, badgeID, value, badge.Criteria.Target)
	if err != nil {
		return nil, fmt.Errorf("record progress: %w", err)
	}

	result := &ProgressResult{Achievement: ach, Badge: badge}
	if ach.IsUnlocked || !ach.ReachedTarget() {
		// Already unlocked before this write, or target not reached:
		// progress persists, side effects stay untouched.
		return result, nil
	}

	won, err := t.achievements.MarkUnlocked(ctx, tx, userID, badgeID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("unlock transition: %w", err)
	}
	if !won {
		// A concurrent call crossed the threshold first.
		return result, nil
	}

	if err := t.applyUnlockEffects(ctx, tx, userID, badge); err != nil {
		return nil, err
	}

	now := time.Now()
	ach.IsUnlocked = true
	ach.UnlockedAt = &now
	result.Unlocked = true
	t.logger.Info("achievement unlocked",
		"user_id", userID, "badge_id", badgeID, "badge", badge.Name, "points", badge.Points)
	return result, nil
}

// applyUnlockEffects runs the unlock fan-out: holders append, ledger credit,
// leaderboard award, outbox event. Each leg is idempotent on its own
// (holders check, ledger idempotency key, atomic increment keyed to the
// single CAS winner), so a partial failure can be retried safely.
func (t *Tracker) applyUnlockEffects(ctx context.Context, tx pgx.Tx, userID uuid.UUID, badge *domain.Badge) error {
	if _, err := t.badges.AddHolder(ctx, tx, badge.ID, userID); err != nil {
		return fmt.Errorf("add badge holder: %w", err)
	}

	if badge.Points > 0 {
		_, err := t.engine.RecordTransaction(ctx, tx, domain.RecordTransactionParams{
			UserID:         userID,
			Type:           domain.CoinEarn,
			Amount:         badge.Points,
			Reason:         domain.ReasonAchievement,
			Description:    badge.Name,
			RelatedItem:    &badge.ID,
			IdempotencyKey: fmt.Sprintf("achievement-%s-%s", badge.ID, userID),
		})
		if err != nil {
			return fmt.Errorf("credit achievement reward: %w", err)
		}

		entry, err := t.leaderboard.AddPoints(ctx, tx, userID, badge.Points)
		if err != nil {
			return fmt.Errorf("award leaderboard points: %w", err)
		}

		fromLevel := domain.LevelForPoints(entry.TotalPoints - badge.Points)
		if entry.Level > fromLevel {
			if err := t.outbox.Insert(ctx, tx, domain.NewLevelUpEvent(userID, fromLevel, entry.Level, entry.TotalPoints)); err != nil {
				return fmt.Errorf("insert level up event: %w", err)
			}
		}
	}

	if err := t.outbox.Insert(ctx, tx, domain.NewAchievementUnlockedEvent(userID, badge.ID, badge.Name, badge.Points)); err != nil {
		return fmt.Errorf("insert unlock event: %w", err)
	}
	return nil
}

// BadgeProgress is the read view of one (user, badge) pair.
type BadgeProgress struct {
	Achievement *domain.Achievement `json:"achievement"`
	Badge       *domain.Badge       `json:"badge"`
}

// GetBadgeProgress returns the user's progress record for one badge. Users
// who have never reported progress get a zeroed view against the badge's
// current target; nothing is persisted by the read.
func (t *Tracker) GetBadgeProgress(ctx context.Context, db repository.DBTX, userID, badgeID uuid.UUID) (*BadgeProgress, error) {
	badge, err := t.badges.FindByID(ctx, db, badgeID)
	if err != nil {
		return nil, fmt.Errorf("get badge progress: %w", err)
	}
	if badge == nil {
		return nil, domain.ErrNotFound("badge", badgeID.String())
	}

	ach, err := t.achievements.FindByUserAndBadge(ctx, db, userID, badgeID)
	if err != nil {
		return nil, fmt.Errorf("get badge progress: %w", err)
	}
	if ach == nil {
		ach = &domain.Achievement{
			UserID:  userID,
			BadgeID: badgeID,
			Target:  badge.Criteria.Target,
		}
	}
	return &BadgeProgress{Achievement: ach, Badge: badge}, nil
}

// UserAchievements is the listing returned for one user.
type UserAchievements struct {
	Achievements []domain.Achievement    `json:"achievements"`
	Stats        domain.AchievementStats `json:"stats"`
}

// GetUserAchievements lists a user's achievement records with summary stats.
func (t *Tracker) GetUserAchievements(ctx context.Context, db repository.DBTX, userID uuid.UUID) (*UserAchievements, error) {
	achievements, err := t.achievements.ListByUser(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return &UserAchievements{
		Achievements: achievements,
		Stats:        domain.ComputeAchievementStats(achievements),
	}, nil
}
