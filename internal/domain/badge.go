package domain

import (
	"time"

	"github.com/google/uuid"
)

// BadgeRarity enumerates badge rarity tiers, commonest first.
type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "common"
	RarityRare      BadgeRarity = "rare"
	RarityEpic      BadgeRarity = "epic"
	RarityLegendary BadgeRarity = "legendary"
)

// RarityOrder maps rarity to its sort position (ascending = commonest first).
var RarityOrder = map[BadgeRarity]int{
	RarityCommon:    0,
	RarityRare:      1,
	RarityEpic:      2,
	RarityLegendary: 3,
}

// CriteriaKind enumerates how a badge unlocks.
type CriteriaKind string

const (
	CriteriaCount     CriteriaKind = "count"
	CriteriaStreak    CriteriaKind = "streak"
	CriteriaSpecial   CriteriaKind = "special"
	CriteriaTimeBased CriteriaKind = "time_based"
	CriteriaLevel     CriteriaKind = "level"
)

// UnlockCriteria defines the target a user must reach to unlock a badge.
type UnlockCriteria struct {
	Kind   CriteriaKind `json:"kind"`
	Target int          `json:"target"`
	Metric string       `json:"metric"`
}

// Badge is an admin-managed achievement definition. The holders list and
// holder count are denormalized and grow monotonically; they never shrink.
type Badge struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Rarity      BadgeRarity    `json:"rarity"`
	Criteria    UnlockCriteria `json:"criteria"`
	Points      int64          `json:"points"`
	IsActive    bool           `json:"is_active"`
	IsSecret    bool           `json:"is_secret"`
	Holders     []uuid.UUID    `json:"holders,omitempty"`
	HolderCount int            `json:"holder_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BadgeFilter narrows catalog listings.
type BadgeFilter struct {
	Category *string
	Rarity   *BadgeRarity
	IsActive *bool
}

// Validate checks a badge definition before it is created.
func (b *Badge) Validate() error {
	if b.Name == "" {
		return ErrValidation("badge name is required")
	}
	if _, ok := RarityOrder[b.Rarity]; !ok {
		return ErrValidation("invalid badge rarity: " + string(b.Rarity))
	}
	switch b.Criteria.Kind {
	case CriteriaCount, CriteriaStreak, CriteriaSpecial, CriteriaTimeBased, CriteriaLevel:
	default:
		return ErrValidation("invalid criteria kind: " + string(b.Criteria.Kind))
	}
	if b.Criteria.Target <= 0 {
		return ErrValidation("criteria target must be positive")
	}
	if b.Points < 0 {
		return ErrValidation("badge points must not be negative")
	}
	return nil
}
