package domain

import (
	"time"

	"github.com/google/uuid"
)

// StreakType enumerates the tracked daily activity streaks.
type StreakType string

const (
	StreakDailyLogin  StreakType = "daily_login"
	StreakDailyWatch  StreakType = "daily_watch"
	StreakDailyReview StreakType = "daily_review"
)

// ValidStreakTypes is the accepted set for activity recording.
var ValidStreakTypes = map[StreakType]bool{
	StreakDailyLogin:  true,
	StreakDailyWatch:  true,
	StreakDailyReview: true,
}

// DefaultFreezeBudget is the number of streak freezes a new streak starts with.
const DefaultFreezeBudget = 3

// StreakHistoryEntry is one append-only activity log record.
type StreakHistoryEntry struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// StreakMilestone records a day-count threshold the streak has crossed.
type StreakMilestone struct {
	Days       int       `json:"days"`
	RewardCoin int64     `json:"reward_coins"`
	AchievedAt time.Time `json:"achieved_at"`
}

// Streak is a per (user, type) consecutive-day counter. longestStreak is a
// watermark and always satisfies longestStreak >= currentStreak. A broken
// streak followed by new activity restarts at 1, not 0.
type Streak struct {
	ID               uuid.UUID            `json:"id"`
	UserID           uuid.UUID            `json:"user_id"`
	Type             StreakType           `json:"type"`
	CurrentStreak    int                  `json:"current_streak"`
	LongestStreak    int                  `json:"longest_streak"`
	LastActivityDate time.Time            `json:"last_activity_date"`
	FreezesAvailable int                  `json:"freezes_available"`
	FreezesUsed      int                  `json:"freezes_used"`
	History          []StreakHistoryEntry `json:"history"`
	Milestones       []StreakMilestone    `json:"milestones"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// HasMilestone reports whether the given day threshold was already recorded.
func (s *Streak) HasMilestone(days int) bool {
	for _, m := range s.Milestones {
		if m.Days == days {
			return true
		}
	}
	return false
}

// CalendarDaysBetween returns the number of calendar-day boundaries crossed
// between from and to, truncating both to local midnight first. Raw
// millisecond division is deliberately avoided so DST shifts cannot produce
// off-by-one day buckets.
func CalendarDaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	return int(toDay.Sub(fromDay).Hours() / 24)
}
