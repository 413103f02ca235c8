package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// signalColumns maps each signal type to the counter it increments. The
// column name is interpolated into the upsert, so the map doubles as the
// allow-list keeping request input out of the SQL text.
var signalColumns = map[domain.SignalType]string{
	domain.SignalWatch:  "watch_minutes",
	domain.SignalReview: "reviews_written",
	domain.SignalQuiz:   "quizzes_taken",
	domain.SignalLogin:  "logins",
}

type engagementRepo struct{}

// NewEngagementRepository returns a pgx-backed EngagementRepository.
func NewEngagementRepository() EngagementRepository {
	return &engagementRepo{}
}

func (r *engagementRepo) AddSignal(ctx context.Context, tx pgx.Tx, userID uuid.UUID, signal domain.SignalType, value int, day time.Time) (*domain.EngagementDay, error) {
	col, ok := signalColumns[signal]
	if !ok {
		return nil, domain.ErrValidation(fmt.Sprintf("unknown signal type %q", signal))
	}
	date := day.Format("2006-01-02")

	_, err := tx.Exec(ctx, `
		INSERT INTO engagement_days (user_id, date, `+col+`)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, date)
		DO UPDATE SET `+col+` = engagement_days.`+col+` + $3, updated_at = now()`,
		userID, date, value)
	if err != nil {
		return nil, fmt.Errorf("upsert engagement day: %w", err)
	}

	// Score is always derived from the counters, in the same transaction as
	// the increment.
	row := tx.QueryRow(ctx, `
		UPDATE engagement_days
		SET score = watch_minutes * 2 + reviews_written * 3 + quizzes_taken * 5
		WHERE user_id = $1 AND date = $2
		RETURNING user_id, date, watch_minutes, reviews_written, quizzes_taken, logins, score, updated_at`,
		userID, date)
	return scanEngagementDay(row)
}

func (r *engagementRepo) GetDay(ctx context.Context, db DBTX, userID uuid.UUID, day time.Time) (*domain.EngagementDay, error) {
	row := db.QueryRow(ctx, `
		SELECT user_id, date, watch_minutes, reviews_written, quizzes_taken, logins, score, updated_at
		FROM engagement_days
		WHERE user_id = $1 AND date = $2`,
		userID, day.Format("2006-01-02"))
	out, err := scanEngagementDay(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func scanEngagementDay(row pgx.Row) (*domain.EngagementDay, error) {
	var d domain.EngagementDay
	err := row.Scan(&d.UserID, &d.Date,
		&d.Signals.WatchMinutes, &d.Signals.ReviewsWritten, &d.Signals.QuizzesTaken, &d.Signals.Logins,
		&d.Score, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan engagement day: %w", err)
	}
	return &d, nil
}
