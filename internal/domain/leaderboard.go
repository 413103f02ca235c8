package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PointsPerLevel is the level step: 1 level per 1000 points.
const PointsPerLevel = 1000

// LevelForPoints derives the coarse tier from a points total.
func LevelForPoints(totalPoints int64) int {
	if totalPoints < 0 {
		return 1
	}
	return int(totalPoints/PointsPerLevel) + 1
}

// LeaderboardEntry is a per-user competitive aggregate. totalPoints is
// monotonically non-decreasing; level is always derived from it. Rank is
// computed from the sorted view at read time and never persisted, so it is
// a true global rank as of the query.
type LeaderboardEntry struct {
	UserID      uuid.UUID       `json:"user_id"`
	TotalPoints int64           `json:"total_points"`
	Level       int             `json:"level"`
	Rank        int             `json:"rank,omitempty"`
	Stats       json.RawMessage `json:"stats"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LeaderboardFilter narrows the ranked listing. Nil fields match everything.
// Level rises monotonically with points, so a minimum-level cut keeps a
// prefix of the global ordering and ranks inside it stay global ranks.
type LeaderboardFilter struct {
	MinLevel *int
}

// LeaderboardPage is one page of the ranked listing.
type LeaderboardPage struct {
	Entries []LeaderboardEntry `json:"entries"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
	Total   int                `json:"total"`
}
