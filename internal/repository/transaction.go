package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cinesocial/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const coinTxColumns = `id, user_id, type, amount, balance_after, reason,
	       description, related_item, metadata, created_at`

type coinTransactionRepo struct{}

// NewCoinTransactionRepository returns a pgx-backed CoinTransactionRepository.
func NewCoinTransactionRepository() CoinTransactionRepository {
	return &coinTransactionRepo{}
}

func (r *coinTransactionRepo) FindByIdempotencyKey(ctx context.Context, db DBTX, userID uuid.UUID, key string) (*domain.CoinTransaction, error) {
	row := db.QueryRow(ctx, `
		SELECT `+coinTxColumns+`
		FROM coin_transactions
		WHERE user_id = $1 AND idempotency_key = $2`, userID, key)
	return scanCoinTransaction(row)
}

func (r *coinTransactionRepo) Insert(ctx context.Context, db DBTX, params domain.RecordTransactionParams, balanceAfter int64) (*domain.CoinTransaction, error) {
	meta := params.Metadata
	if meta == nil {
		meta = json.RawMessage(`{}`)
	}

	row := db.QueryRow(ctx, `
		INSERT INTO coin_transactions
		  (user_id, type, amount, balance_after, reason, description, related_item, idempotency_key, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+coinTxColumns,
		params.UserID,
		string(params.Type),
		params.Amount,
		balanceAfter,
		string(params.Reason),
		nullableStr(params.Description),
		params.RelatedItem,
		nullableStr(params.IdempotencyKey),
		meta,
	)
	return scanCoinTransaction(row)
}

func (r *coinTransactionRepo) LatestBalance(ctx context.Context, db DBTX, userID uuid.UUID) (int64, error) {
	var balance int64
	err := db.QueryRow(ctx, `
		SELECT balance_after FROM coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, userID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("latest balance: %w", err)
	}
	return balance, nil
}

func (r *coinTransactionRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, filter domain.CoinTransactionFilter, page, limit int) ([]domain.CoinTransaction, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	where := `WHERE user_id = $1`
	args := []interface{}{userID}
	if filter.Type != nil {
		where += ` AND type = $2`
		args = append(args, string(*filter.Type))
	}

	var total int
	if err := db.QueryRow(ctx, `SELECT count(*) FROM coin_transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := db.Query(ctx, fmt.Sprintf(`
		SELECT `+coinTxColumns+`
		FROM coin_transactions
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs, err := collectCoinTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (r *coinTransactionRepo) SumAmounts(ctx context.Context, db DBTX, userID uuid.UUID) (int64, error) {
	var sum int64
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM coin_transactions WHERE user_id = $1`,
		userID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum amounts: %w", err)
	}
	return sum, nil
}

func scanCoinTransaction(row pgx.Row) (*domain.CoinTransaction, error) {
	var tx domain.CoinTransaction
	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.BalanceAfter, &tx.Reason,
		&tx.Description, &tx.RelatedItem, &tx.Metadata, &tx.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan coin transaction: %w", err)
	}
	return &tx, nil
}

func collectCoinTransactions(rows pgx.Rows) ([]domain.CoinTransaction, error) {
	var txs []domain.CoinTransaction
	for rows.Next() {
		var tx domain.CoinTransaction
		err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.BalanceAfter, &tx.Reason,
			&tx.Description, &tx.RelatedItem, &tx.Metadata, &tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan coin transaction row: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func nullableStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
