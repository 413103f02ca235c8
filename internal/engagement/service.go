package engagement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/cinesocial/platform/internal/streak"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service is the single write entry point for raw activity signals. A
// signal increments the day's counters, recomputes the weighted score, and
// advances the matching streak, all in one transaction so the counters and
// the streak can never disagree about whether a day happened.
type Service struct {
	pool    *pgxpool.Pool
	days    repository.EngagementRepository
	streaks *streak.Tracker
	logger  *slog.Logger
}

// NewService creates an engagement service.
func NewService(pool *pgxpool.Pool, days repository.EngagementRepository, streaks *streak.Tracker, logger *slog.Logger) *Service {
	return &Service{pool: pool, days: days, streaks: streaks, logger: logger}
}

// SignalResult is the outcome of one recorded signal.
type SignalResult struct {
	Day *domain.EngagementDay `json:"day"`
	// Streak is nil for signals that do not drive a streak.
	Streak *streak.ActivityResult `json:"streak,omitempty"`
}

// RecordSignal records one activity signal for the user at the given time.
func (s *Service) RecordSignal(ctx context.Context, userID uuid.UUID, signal domain.SignalType, value int, at time.Time) (*SignalResult, error) {
	var result *SignalResult
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var err error
		result, err = s.RecordSignalTx(ctx, tx, userID, signal, value, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordSignalTx is the transactional core of RecordSignal.
func (s *Service) RecordSignalTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, signal domain.SignalType, value int, at time.Time) (*SignalResult, error) {
	if value <= 0 {
		return nil, domain.ErrValidation("signal value must be positive")
	}

	day, err := s.days.AddSignal(ctx, tx, userID, signal, value, at)
	if err != nil {
		return nil, err
	}
	result := &SignalResult{Day: day}

	streakType, drivesStreak := domain.StreakTypeForSignal(signal)
	if drivesStreak {
		activity, err := s.streaks.RecordActivityTx(ctx, tx, userID, streakType, at)
		if err != nil {
			return nil, fmt.Errorf("advance %s streak: %w", streakType, err)
		}
		result.Streak = activity
	}

	s.logger.Debug("signal recorded",
		"user_id", userID, "signal", signal, "value", value, "score", day.Score)
	return result, nil
}

// GetToday returns the user's counters for the current day. Users with no
// activity today get a zeroed row rather than an error.
func (s *Service) GetToday(ctx context.Context, db repository.DBTX, userID uuid.UUID, now time.Time) (*domain.EngagementDay, error) {
	day, err := s.days.GetDay(ctx, db, userID, now)
	if err != nil {
		return nil, fmt.Errorf("get engagement day: %w", err)
	}
	if day == nil {
		day = &domain.EngagementDay{UserID: userID, Date: now}
	}
	return day, nil
}
