package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/models"
)

// TransactionService is the entry point for balance operations. Each
// mutation runs under the account lock; validation failures are written
// to the ledger as FAIL records while the lock is still held.
type TransactionService struct {
	guard  *AccountLockGuard
	engine *BalanceEngine
	ledger *LedgerService
	logger *zap.Logger
}

func NewTransactionService(guard *AccountLockGuard, engine *BalanceEngine, ledger *LedgerService, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		guard:  guard,
		engine: engine,
		ledger: ledger,
		logger: logger,
	}
}

func (ts *TransactionService) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.TransactionView, error) {
	var txn *models.Transaction
	err := ts.guard.WithAccountLock(ctx, accountNumber, func(ctx context.Context) error {
		var err error
		txn, err = ts.engine.UseBalance(ctx, userID, accountNumber, amount)
		if IsValidation(err) {
			ts.ledger.RecordFailure(ctx, accountNumber, models.TransactionTypeUse, amount, "")
		}
		return err
	})
	if err != nil {
		ts.logFailure("use balance", accountNumber, err)
		return nil, err
	}

	ts.logger.Info("balance used",
		zap.String("account_number", accountNumber),
		zap.String("transaction_id", txn.TransactionID),
		zap.Int64("amount", amount),
		zap.Int64("balance", txn.BalanceSnapshot))
	return txn.View(), nil
}

func (ts *TransactionService) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*models.TransactionView, error) {
	var txn *models.Transaction
	err := ts.guard.WithAccountLock(ctx, accountNumber, func(ctx context.Context) error {
		var err error
		txn, err = ts.engine.CancelBalance(ctx, transactionID, accountNumber, amount)
		if IsValidation(err) {
			ts.ledger.RecordFailure(ctx, accountNumber, models.TransactionTypeCancel, amount, transactionID)
		}
		return err
	})
	if err != nil {
		ts.logFailure("cancel balance", accountNumber, err)
		return nil, err
	}

	ts.logger.Info("balance cancelled",
		zap.String("account_number", accountNumber),
		zap.String("transaction_id", txn.TransactionID),
		zap.String("original_transaction_id", transactionID),
		zap.Int64("amount", amount),
		zap.Int64("balance", txn.BalanceSnapshot))
	return txn.View(), nil
}

func (ts *TransactionService) QueryTransaction(ctx context.Context, transactionID string) (*models.TransactionView, error) {
	return ts.ledger.QueryTransaction(ctx, transactionID)
}

func (ts *TransactionService) logFailure(op, accountNumber string, err error) {
	fields := []zap.Field{
		zap.String("account_number", accountNumber),
		zap.String("error_code", string(CodeOf(err))),
		zap.Error(err),
	}
	if IsValidation(err) {
		ts.logger.Info(op+" rejected", fields...)
		return
	}
	ts.logger.Error(op+" failed", fields...)
}
