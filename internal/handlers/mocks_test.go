package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ruralpay/myaccount/internal/models"
)

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.TransactionView, error) {
	args := m.Called(ctx, userID, accountNumber, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransactionView), args.Error(1)
}

func (m *MockTransactionService) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*models.TransactionView, error) {
	args := m.Called(ctx, transactionID, accountNumber, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransactionView), args.Error(1)
}

func (m *MockTransactionService) QueryTransaction(ctx context.Context, transactionID string) (*models.TransactionView, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransactionView), args.Error(1)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, userID, initialBalance int64) (*models.Account, error) {
	args := m.Called(ctx, userID, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, userID int64, accountNumber string) (*models.Account, error) {
	args := m.Called(ctx, userID, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, userID int64) ([]models.AccountInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccountInfo), args.Error(1)
}
