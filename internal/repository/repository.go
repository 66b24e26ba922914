// Package repository declares the storage contracts the balance services depend on.
// Implementations live in the postgres and memory subpackages.
package repository

import (
	"context"
	"errors"

	"github.com/ruralpay/myaccount/internal/models"
)

// ErrNotFound is returned by finders when no row matches.
var ErrNotFound = errors.New("record not found")

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.AccountUser, error)
}

type AccountRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	// FindLatest returns the most recently opened account.
	FindLatest(ctx context.Context) (*models.Account, error)
	FindByUser(ctx context.Context, userID int64) ([]models.Account, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	// Save inserts the account when ID is zero and updates it otherwise.
	Save(ctx context.Context, account *models.Account) (*models.Account, error)
}

type TransactionRepository interface {
	Save(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	// FindCancellation returns the successful CANCEL record that reverses originalID.
	FindCancellation(ctx context.Context, originalID string) (*models.Transaction, error)
}

// Transactor runs fn so that every repository call made with the ctx it
// receives commits or rolls back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
