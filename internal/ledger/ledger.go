package ledger

import (
	"context"
	"fmt"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/cinesocial/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Engine provides the coin ledger write path. Every write follows the same
// shape: Lock → Idempotency → Post. The wallet row lock serializes all
// concurrent ledger writes for one user, which is what keeps the
// balance_after chain consistent.
type Engine struct {
	wallets      repository.WalletRepository
	transactions repository.CoinTransactionRepository
	outbox       repository.OutboxRepository
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	wallets repository.WalletRepository,
	transactions repository.CoinTransactionRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		wallets:      wallets,
		transactions: transactions,
		outbox:       outbox,
	}
}

// RecordTransaction appends one immutable coin transaction. Amount is signed
// and added to the balance as-is: callers pass negative amounts for debits.
// Must be called within a transaction; a failed write rolls back with it.
//
// Steps:
//  1. Lock the user's wallet row (create-if-absent, SELECT FOR UPDATE)
//  2. Idempotency check when the caller supplied a key
//  3. Apply the delta with server-side arithmetic
//  4. Insert the ledger entry with the post-update balance snapshot
//  5. Insert the outbox event (same transaction for atomicity)
func (e *Engine) RecordTransaction(ctx context.Context, tx pgx.Tx, params domain.RecordTransactionParams) (*domain.CommandResult, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	if _, err := e.wallets.LockForUpdate(ctx, tx, params.UserID); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	if params.IdempotencyKey != "" {
		existing, err := e.transactions.FindByIdempotencyKey(ctx, tx, params.UserID, params.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("find existing transaction: %w", err)
		}
		if existing != nil {
			return &domain.CommandResult{
				Transaction: existing,
				Balance:     existing.BalanceAfter,
				Idempotent:  true,
			}, nil
		}
	}

	balanceAfter, err := e.wallets.ApplyDelta(ctx, tx, params.UserID, params.Amount)
	if err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	if balanceAfter < 0 {
		// Roll the whole transaction back; coins can not go negative.
		return nil, domain.ErrInsufficientBalance()
	}

	entry, err := e.transactions.Insert(ctx, tx, params, balanceAfter)
	if err != nil {
		return nil, fmt.Errorf("insert coin transaction: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewCoinTransactionPostedEvent(entry)); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return &domain.CommandResult{Transaction: entry, Balance: balanceAfter}, nil
}

// GetBalance returns the balance_after of the user's most recent transaction,
// or 0 when the user has no ledger history.
func (e *Engine) GetBalance(ctx context.Context, db repository.DBTX, userID uuid.UUID) (int64, error) {
	balance, err := e.transactions.LatestBalance(ctx, db, userID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// ListTransactions returns a newest-first page of the user's ledger.
func (e *Engine) ListTransactions(ctx context.Context, db repository.DBTX, userID uuid.UUID, filter domain.CoinTransactionFilter, page, limit int) ([]domain.CoinTransaction, int, error) {
	return e.transactions.ListByUser(ctx, db, userID, filter, page, limit)
}

func validateParams(params domain.RecordTransactionParams) error {
	if params.UserID == uuid.Nil {
		return domain.ErrValidation("user id is required")
	}
	if !domain.ValidCoinTransactionTypes[params.Type] {
		return domain.ErrValidation(fmt.Sprintf("invalid transaction type: %s", params.Type))
	}
	if params.Amount == 0 {
		return domain.ErrValidation("amount must not be zero")
	}
	if params.Reason == "" {
		return domain.ErrValidation("reason is required")
	}
	return nil
}
