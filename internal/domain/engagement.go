package domain

import (
	"time"

	"github.com/google/uuid"
)

// EngagementSignals holds the raw daily activity counts for engagement scoring.
type EngagementSignals struct {
	WatchMinutes   int `json:"watch_minutes"`
	ReviewsWritten int `json:"reviews_written"`
	QuizzesTaken   int `json:"quizzes_taken"`
	Logins         int `json:"logins"`
}

// ComputeScore calculates the weighted engagement score.
// Formula: watchMinutes*2 + reviewsWritten*3 + quizzesTaken*5
func (s EngagementSignals) ComputeScore() int {
	return s.WatchMinutes*2 + s.ReviewsWritten*3 + s.QuizzesTaken*5
}

// SignalType enumerates the raw event kinds the engine accepts.
type SignalType string

const (
	SignalWatch  SignalType = "watch"
	SignalReview SignalType = "review"
	SignalQuiz   SignalType = "quiz"
	SignalLogin  SignalType = "login"
)

// EngagementDay is one user's activity counters for one calendar day. Score
// is recomputed from the counters on every write, never incremented directly.
type EngagementDay struct {
	UserID    uuid.UUID         `json:"user_id"`
	Date      time.Time         `json:"date"`
	Signals   EngagementSignals `json:"signals"`
	Score     int               `json:"score"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// StreakTypeForSignal maps a signal to the streak it advances. The bool is
// false for signals that do not drive a streak.
func StreakTypeForSignal(t SignalType) (StreakType, bool) {
	switch t {
	case SignalWatch:
		return StreakDailyWatch, true
	case SignalReview:
		return StreakDailyReview, true
	case SignalLogin:
		return StreakDailyLogin, true
	default:
		return "", false
	}
}
