package domain

import (
	"time"

	"github.com/google/uuid"
)

// Achievement is a user's progress record toward one badge, uniquely keyed
// by (user, badge). Target is copied from the badge criteria at creation and
// is not re-synced if the badge definition changes later. IsUnlocked moves
// false→true at most once; progress may keep being written after unlock but
// must not trigger the unlock side effects again.
type Achievement struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	BadgeID    uuid.UUID  `json:"badge_id"`
	Current    int        `json:"current"`
	Target     int        `json:"target"`
	IsUnlocked bool       `json:"is_unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ReachedTarget reports whether current progress meets the unlock target.
func (a *Achievement) ReachedTarget() bool {
	return a.Current >= a.Target
}

// AchievementStats summarizes a user's achievement state.
type AchievementStats struct {
	Total      int `json:"total"`
	Unlocked   int `json:"unlocked"`
	InProgress int `json:"in_progress"`
}

// ComputeAchievementStats derives the summary counters from a listing.
func ComputeAchievementStats(achievements []Achievement) AchievementStats {
	stats := AchievementStats{Total: len(achievements)}
	for _, a := range achievements {
		if a.IsUnlocked {
			stats.Unlocked++
		} else {
			stats.InProgress++
		}
	}
	return stats
}
