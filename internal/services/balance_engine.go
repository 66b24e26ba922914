package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/repository"
)

// DefaultCancelWindow is how far back a USE transaction may still be cancelled.
const DefaultCancelWindow = 365 * 24 * time.Hour

// BalanceEngine validates and applies use and cancel operations to a single
// account. It takes no locks itself: callers hold the account lock.
type BalanceEngine struct {
	users        repository.UserRepository
	accounts     repository.AccountRepository
	transactor   repository.Transactor
	ledger       *LedgerService
	cancelWindow time.Duration
	now          func() time.Time
}

func NewBalanceEngine(
	users repository.UserRepository,
	accounts repository.AccountRepository,
	transactor repository.Transactor,
	ledger *LedgerService,
	cancelWindow time.Duration,
) *BalanceEngine {
	if cancelWindow <= 0 {
		cancelWindow = DefaultCancelWindow
	}
	return &BalanceEngine{
		users:        users,
		accounts:     accounts,
		transactor:   transactor,
		ledger:       ledger,
		cancelWindow: cancelWindow,
		now:          time.Now,
	}
}

// UseBalance debits amount from the account and records a USE/SUCCESS
// transaction. Validation failures return an AccountError and change nothing.
func (e *BalanceEngine) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, NewAccountError(ErrCodeInvalidRequest)
	}

	var recorded *models.Transaction
	err := e.transactor.WithinTx(ctx, func(ctx context.Context) error {
		user, err := e.findUser(ctx, userID)
		if err != nil {
			return err
		}

		account, err := e.findAccount(ctx, accountNumber)
		if err != nil {
			return err
		}

		if account.UserID != user.ID {
			return NewAccountError(ErrCodeUserAccountUnMatch)
		}
		if account.Status != models.AccountStatusInUse {
			return NewAccountError(ErrCodeAccountAlreadyUnregistered)
		}
		if amount > account.Balance {
			return NewAccountError(ErrCodeAmountExceedBalance)
		}

		account.Use(amount)
		if _, err := e.accounts.Save(ctx, account); err != nil {
			return fmt.Errorf("save account %s: %w", accountNumber, err)
		}

		recorded, err = e.ledger.Record(ctx, account, models.TransactionTypeUse, models.TransactionResultSuccess, amount, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	e.ledger.Announce(ctx, recorded)
	return recorded, nil
}

// CancelBalance reverses a USE transaction in full and records a
// CANCEL/SUCCESS transaction referencing it.
func (e *BalanceEngine) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, NewAccountError(ErrCodeInvalidRequest)
	}

	var recorded *models.Transaction
	err := e.transactor.WithinTx(ctx, func(ctx context.Context) error {
		original, err := e.ledger.FindByTransactionID(ctx, transactionID)
		if err != nil {
			return err
		}

		account, err := e.findAccount(ctx, accountNumber)
		if err != nil {
			return err
		}

		if original.AccountID != account.ID {
			return NewAccountError(ErrCodeTransactionAccountUnMatch)
		}
		if amount != original.Amount {
			return NewAccountError(ErrCodeCancelMustFully)
		}
		if original.TransactedAt.Before(e.now().Add(-e.cancelWindow)) {
			return NewAccountError(ErrCodeTooOldOrderToCancel)
		}
		if original.Type != models.TransactionTypeUse || !original.Succeeded() {
			return NewAccountError(ErrCodeTransactionNotCancellable)
		}

		cancelled, err := e.ledger.IsCancelled(ctx, original.TransactionID)
		if err != nil {
			return err
		}
		if cancelled {
			return NewAccountError(ErrCodeTransactionAlreadyCancelled)
		}

		account.Refund(amount)
		if _, err := e.accounts.Save(ctx, account); err != nil {
			return fmt.Errorf("save account %s: %w", accountNumber, err)
		}

		recorded, err = e.ledger.Record(ctx, account, models.TransactionTypeCancel, models.TransactionResultSuccess, amount, original.TransactionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.ledger.Announce(ctx, recorded)
	return recorded, nil
}

func (e *BalanceEngine) findUser(ctx context.Context, userID int64) (*models.AccountUser, error) {
	user, err := e.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewAccountError(ErrCodeUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
	return user, nil
}

func (e *BalanceEngine) findAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, err := e.accounts.FindByAccountNumber(ctx, accountNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewAccountError(ErrCodeAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", accountNumber, err)
	}
	return account, nil
}
