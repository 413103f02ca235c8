package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventCoinTransactionPosted  EventType = "engage.ledger.transaction.posted"
	EventAchievementUnlocked    EventType = "engage.achievement.unlocked"
	EventStreakMilestoneReached EventType = "engage.streak.milestone.reached"
	EventStreakBroken           EventType = "engage.streak.broken"
	EventLeaderboardLevelUp     EventType = "engage.leaderboard.level.up"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateLedger      AggregateType = "ledger"
	AggregateAchievement AggregateType = "achievement"
	AggregateStreak      AggregateType = "streak"
	AggregateLeaderboard AggregateType = "leaderboard"
)

// OutboxDraft is the payload written to the event_outbox table in the same
// transaction as the state change it describes.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
