package repository

import (
	"fmt"

	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type walletRepo struct{}

// NewWalletRepository returns a pgx-backed WalletRepository.
func NewWalletRepository() WalletRepository {
	return &walletRepo{}
}

func (r *walletRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error) {
	// Ensure the row exists before locking; new users start at 0.
	_, err := tx.Exec(ctx, `
		INSERT INTO coin_wallets (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return 0, fmt.Errorf("ensure wallet: %w", err)
	}

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM coin_wallets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("lock wallet: %w", err)
	}
	return balance, nil
}

func (r *walletRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
		UPDATE coin_wallets
		SET balance = balance + $2, updated_at = now()
		WHERE user_id = $1
		RETURNING balance`, userID, delta).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("apply wallet delta: %w", err)
	}
	return balance, nil
}
