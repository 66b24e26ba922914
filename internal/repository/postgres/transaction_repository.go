package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/repository"
)

const transactionColumns = `t.id, t.transaction_id, t.transaction_type, t.transaction_result_type, t.account_id,
		a.account_number, t.amount, t.balance_snapshot, t.original_transaction_id, t.transacted_at, t.created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Save(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	now := time.Now()
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO transactions
		(transaction_id, transaction_type, transaction_result_type, account_id, amount, balance_snapshot,
		 original_transaction_id, transacted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		txn.TransactionID, txn.Type, txn.Result, txn.AccountID, txn.Amount, txn.BalanceSnapshot,
		nullString(txn.OriginalTransactionID), txn.TransactedAt, now,
	).Scan(&txn.ID)
	if err != nil {
		return nil, fmt.Errorf("insert transaction %s: %w", txn.TransactionID, err)
	}

	txn.CreatedAt = now
	return txn, nil
}

func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return r.findOne(ctx, `WHERE t.transaction_id = $1`, transactionID)
}

func (r *TransactionRepository) FindCancellation(ctx context.Context, originalID string) (*models.Transaction, error) {
	return r.findOne(ctx, `WHERE t.original_transaction_id = $1
		AND t.transaction_type = 'CANCEL' AND t.transaction_result_type = 'SUCCESS'
		LIMIT 1`, originalID)
}

func (r *TransactionRepository) findOne(ctx context.Context, where string, arg any) (*models.Transaction, error) {
	var (
		txn      models.Transaction
		original sql.NullString
	)
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		`+where, arg).Scan(&txn.ID, &txn.TransactionID, &txn.Type, &txn.Result, &txn.AccountID,
		&txn.AccountNumber, &txn.Amount, &txn.BalanceSnapshot, &original, &txn.TransactedAt, &txn.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}

	txn.OriginalTransactionID = original.String
	return &txn, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
