package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewCoinTransactionPostedEvent creates the standard ledger event for an entry.
func NewCoinTransactionPostedEvent(tx *CoinTransaction) OutboxDraft {
	payload, _ := json.Marshal(tx)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateLedger,
		AggregateID:   tx.UserID.String(),
		EventType:     EventCoinTransactionPosted,
		PartitionKey:  tx.UserID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewAchievementUnlockedEvent creates the unlock fan-out event. Ledger credit
// and leaderboard award happen in the same transaction; the event exists so
// downstream consumers (notifications, feeds) see the unlock exactly once.
func NewAchievementUnlockedEvent(userID, badgeID uuid.UUID, badgeName string, points int64) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":    userID.String(),
		"badge_id":   badgeID.String(),
		"badge_name": badgeName,
		"points":     points,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateAchievement,
		AggregateID:   badgeID.String(),
		EventType:     EventAchievementUnlocked,
		PartitionKey:  userID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewStreakMilestoneEvent creates a streak milestone event.
func NewStreakMilestoneEvent(userID uuid.UUID, streakType StreakType, days int, rewardCoins int64) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":      userID.String(),
		"streak_type":  streakType,
		"days":         days,
		"reward_coins": rewardCoins,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateStreak,
		AggregateID:   userID.String() + ":" + string(streakType),
		EventType:     EventStreakMilestoneReached,
		PartitionKey:  userID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewStreakBrokenEvent creates a streak reset event.
func NewStreakBrokenEvent(userID uuid.UUID, streakType StreakType, previousStreak int) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":         userID.String(),
		"streak_type":     streakType,
		"previous_streak": previousStreak,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateStreak,
		AggregateID:   userID.String() + ":" + string(streakType),
		EventType:     EventStreakBroken,
		PartitionKey:  userID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewLevelUpEvent creates a leaderboard level transition event.
func NewLevelUpEvent(userID uuid.UUID, fromLevel, toLevel int, totalPoints int64) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":      userID.String(),
		"from_level":   fromLevel,
		"to_level":     toLevel,
		"total_points": totalPoints,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateLeaderboard,
		AggregateID:   userID.String(),
		EventType:     EventLeaderboardLevelUp,
		PartitionKey:  userID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
