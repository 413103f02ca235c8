package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CoinTransactionType enumerates all coin ledger transaction types.
type CoinTransactionType string

const (
	CoinEarn     CoinTransactionType = "earn"
	CoinSpend    CoinTransactionType = "spend"
	CoinGift     CoinTransactionType = "gift"
	CoinPurchase CoinTransactionType = "purchase"
	CoinRefund   CoinTransactionType = "refund"
	CoinBonus    CoinTransactionType = "bonus"
	CoinPenalty  CoinTransactionType = "penalty"
)

// ValidCoinTransactionTypes is the accepted set for ledger writes.
var ValidCoinTransactionTypes = map[CoinTransactionType]bool{
	CoinEarn:     true,
	CoinSpend:    true,
	CoinGift:     true,
	CoinPurchase: true,
	CoinRefund:   true,
	CoinBonus:    true,
	CoinPenalty:  true,
}

// CoinReason enumerates why a ledger entry was posted.
type CoinReason string

const (
	ReasonWatchContent    CoinReason = "watch_content"
	ReasonWriteReview     CoinReason = "write_review"
	ReasonCompleteQuiz    CoinReason = "complete_quiz"
	ReasonDailyLogin      CoinReason = "daily_login"
	ReasonAchievement     CoinReason = "achievement"
	ReasonStreakMilestone CoinReason = "streak_milestone"
	ReasonItemPurchase    CoinReason = "item_purchase"
	ReasonGiftSent        CoinReason = "gift_sent"
	ReasonGiftReceived    CoinReason = "gift_received"
	ReasonRefund          CoinReason = "refund"
	ReasonAdminAdjustment CoinReason = "admin_adjustment"
)

// CoinTransaction is an append-only coin ledger entry. Amounts are signed:
// debits carry a negative amount and balance_after is always
// previous balance_after + amount. Entries are never updated or deleted;
// corrections are posted as new refund entries.
type CoinTransaction struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	Type         CoinTransactionType `json:"type"`
	Amount       int64               `json:"amount"`
	BalanceAfter int64               `json:"balance_after"`
	Reason       CoinReason          `json:"reason"`
	Description  *string             `json:"description,omitempty"`
	RelatedItem  *uuid.UUID          `json:"related_item,omitempty"`
	Metadata     json.RawMessage     `json:"metadata"`
	CreatedAt    time.Time           `json:"created_at"`
}

// RecordTransactionParams are the caller-facing inputs for a ledger write.
type RecordTransactionParams struct {
	UserID      uuid.UUID
	Type        CoinTransactionType
	Amount      int64
	Reason      CoinReason
	Description string
	RelatedItem *uuid.UUID
	// IdempotencyKey deduplicates retried writes. Optional; empty disables
	// the duplicate check.
	IdempotencyKey string
	Metadata       json.RawMessage
}

// CommandResult is the outcome of a ledger command.
type CommandResult struct {
	Transaction *CoinTransaction `json:"transaction"`
	Balance     int64            `json:"balance"`
	Idempotent  bool             `json:"idempotent,omitempty"`
}

// CoinTransactionFilter narrows transaction listings.
type CoinTransactionFilter struct {
	Type *CoinTransactionType
}
