package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const achievementColumns = `id, user_id, badge_id, current_progress, target_progress,
	       is_unlocked, unlocked_at, created_at, updated_at`

type achievementRepo struct{}

// NewAchievementRepository returns a pgx-backed AchievementRepository.
func NewAchievementRepository() AchievementRepository {
	return &achievementRepo{}
}

// UpsertProgress is an absolute set: the new value replaces the old one, it
// is not an increment. Target is only written on first insert so later badge
// edits never retarget existing records.
func (r *achievementRepo) UpsertProgress(ctx context.Context, db DBTX, userID, badgeID uuid.UUID, current, target int) (*domain.Achievement, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO achievements (id, user_id, badge_id, current_progress, target_progress)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, badge_id) DO UPDATE
		SET current_progress = EXCLUDED.current_progress, updated_at = now()
		RETURNING `+achievementColumns,
		uuid.New(), userID, badgeID, current, target)
	return scanAchievement(row)
}

// MarkUnlocked is the compare-and-set transition guard: only one caller ever
// sees a row flip from false to true.
func (r *achievementRepo) MarkUnlocked(ctx context.Context, db DBTX, userID, badgeID uuid.UUID, at time.Time) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE achievements
		SET is_unlocked = true, unlocked_at = $3, updated_at = now()
		WHERE user_id = $1 AND badge_id = $2 AND is_unlocked = false`,
		userID, badgeID, at)
	if err != nil {
		return false, fmt.Errorf("mark unlocked: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *achievementRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Achievement, error) {
	rows, err := db.Query(ctx, `
		SELECT `+achievementColumns+`
		FROM achievements
		WHERE user_id = $1
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	defer rows.Close()

	var achievements []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		err := rows.Scan(&a.ID, &a.UserID, &a.BadgeID, &a.Current, &a.Target,
			&a.IsUnlocked, &a.UnlockedAt, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan achievement row: %w", err)
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

func (r *achievementRepo) FindByUserAndBadge(ctx context.Context, db DBTX, userID, badgeID uuid.UUID) (*domain.Achievement, error) {
	row := db.QueryRow(ctx, `
		SELECT `+achievementColumns+`
		FROM achievements
		WHERE user_id = $1 AND badge_id = $2`, userID, badgeID)
	return scanAchievement(row)
}

func scanAchievement(row pgx.Row) (*domain.Achievement, error) {
	var a domain.Achievement
	err := row.Scan(&a.ID, &a.UserID, &a.BadgeID, &a.Current, &a.Target,
		&a.IsUnlocked, &a.UnlockedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan achievement: %w", err)
	}
	return &a, nil
}
