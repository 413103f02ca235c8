package ledger

import (
	"context"
	"fmt"

	"github.com/cinesocial/platform/internal/repository"
	"github.com/google/uuid"
)

// AuditResult holds the outcome of a per-user ledger audit.
type AuditResult struct {
	UserID        uuid.UUID `json:"user_id"`
	LatestBalance int64     `json:"latest_balance"`
	SumOfAmounts  int64     `json:"sum_of_amounts"`
	Consistent    bool      `json:"consistent"`
}

// AuditUser verifies the ledger chain invariant for one user: the
// balance_after of the newest entry must equal the sum of every amount ever
// recorded. A mismatch means a write bypassed the wallet lock.
func (e *Engine) AuditUser(ctx context.Context, db repository.DBTX, userID uuid.UUID) (*AuditResult, error) {
	latest, err := e.transactions.LatestBalance(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("audit latest balance: %w", err)
	}
	sum, err := e.transactions.SumAmounts(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("audit sum amounts: %w", err)
	}

	return &AuditResult{
		UserID:        userID,
		LatestBalance: latest,
		SumOfAmounts:  sum,
		Consistent:    latest == sum,
	}, nil
}
