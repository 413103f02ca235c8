package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const streakColumns = `id, user_id, streak_type, current_streak, longest_streak,
	       last_activity_date, freezes_available, freezes_used,
	       history, milestones, created_at, updated_at`

type streakRepo struct{}

// NewStreakRepository returns a pgx-backed StreakRepository.
func NewStreakRepository() StreakRepository {
	return &streakRepo{}
}

func (r *streakRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, streakType domain.StreakType) (*domain.Streak, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+streakColumns+`
		FROM streaks
		WHERE user_id = $1 AND streak_type = $2
		FOR UPDATE`, userID, string(streakType))
	return scanStreak(row)
}

func (r *streakRepo) Create(ctx context.Context, tx pgx.Tx, s *domain.Streak) error {
	history, err := json.Marshal(s.History)
	if err != nil {
		return fmt.Errorf("marshal streak history: %w", err)
	}
	milestones, err := json.Marshal(s.Milestones)
	if err != nil {
		return fmt.Errorf("marshal streak milestones: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO streaks
		  (id, user_id, streak_type, current_streak, longest_streak, last_activity_date,
		   freezes_available, freezes_used, history, milestones)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, streak_type) DO NOTHING
		RETURNING created_at, updated_at`,
		s.ID, s.UserID, string(s.Type), s.CurrentStreak, s.LongestStreak, s.LastActivityDate,
		s.FreezesAvailable, s.FreezesUsed, history, milestones,
	)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			// Lost a create race; the caller retries under the row lock.
			return domain.ErrConflict("streak already exists")
		}
		return fmt.Errorf("insert streak: %w", err)
	}
	return nil
}

func (r *streakRepo) Update(ctx context.Context, tx pgx.Tx, s *domain.Streak) error {
	history, err := json.Marshal(s.History)
	if err != nil {
		return fmt.Errorf("marshal streak history: %w", err)
	}
	milestones, err := json.Marshal(s.Milestones)
	if err != nil {
		return fmt.Errorf("marshal streak milestones: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE streaks
		SET current_streak = $3, longest_streak = $4, last_activity_date = $5,
		    freezes_available = $6, freezes_used = $7, history = $8, milestones = $9,
		    updated_at = now()
		WHERE user_id = $1 AND streak_type = $2`,
		s.UserID, string(s.Type), s.CurrentStreak, s.LongestStreak, s.LastActivityDate,
		s.FreezesAvailable, s.FreezesUsed, history, milestones,
	)
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

func (r *streakRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Streak, error) {
	rows, err := db.Query(ctx, `
		SELECT `+streakColumns+`
		FROM streaks
		WHERE user_id = $1
		ORDER BY streak_type ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query streaks: %w", err)
	}
	defer rows.Close()

	var streaks []domain.Streak
	for rows.Next() {
		s, err := scanStreakFromRows(rows)
		if err != nil {
			return nil, err
		}
		streaks = append(streaks, *s)
	}
	return streaks, rows.Err()
}

func scanStreak(row pgx.Row) (*domain.Streak, error) {
	var s domain.Streak
	var history, milestones []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.Type, &s.CurrentStreak, &s.LongestStreak,
		&s.LastActivityDate, &s.FreezesAvailable, &s.FreezesUsed,
		&history, &milestones, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan streak: %w", err)
	}
	if err := unmarshalStreakLogs(&s, history, milestones); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanStreakFromRows(rows pgx.Rows) (*domain.Streak, error) {
	var s domain.Streak
	var history, milestones []byte
	err := rows.Scan(
		&s.ID, &s.UserID, &s.Type, &s.CurrentStreak, &s.LongestStreak,
		&s.LastActivityDate, &s.FreezesAvailable, &s.FreezesUsed,
		&history, &milestones, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan streak row: %w", err)
	}
	if err := unmarshalStreakLogs(&s, history, milestones); err != nil {
		return nil, err
	}
	return &s, nil
}

func unmarshalStreakLogs(s *domain.Streak, history, milestones []byte) error {
	if len(history) > 0 {
		if err := json.Unmarshal(history, &s.History); err != nil {
			return fmt.Errorf("unmarshal streak history: %w", err)
		}
	}
	if len(milestones) > 0 {
		if err := json.Unmarshal(milestones, &s.Milestones); err != nil {
			return fmt.Errorf("unmarshal streak milestones: %w", err)
		}
	}
	return nil
}
