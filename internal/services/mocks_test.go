package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ruralpay/myaccount/internal/lock"
	"github.com/ruralpay/myaccount/internal/models"
)

type MockLockProvider struct {
	mock.Mock
}

func (m *MockLockProvider) Acquire(ctx context.Context, key string, wait, hold time.Duration) (lock.Handle, error) {
	args := m.Called(ctx, key, wait, hold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(lock.Handle), args.Error(1)
}

type MockLockHandle struct {
	mock.Mock
}

func (m *MockLockHandle) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	args := m.Called(ctx, stream, eventType, data)
	return args.Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Save(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindCancellation(ctx context.Context, originalID string) (*models.Transaction, error) {
	args := m.Called(ctx, originalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

type MockTransactionViewCache struct {
	mock.Mock
}

func (m *MockTransactionViewCache) Get(ctx context.Context, key string) (*models.TransactionView, bool) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.TransactionView), args.Bool(1)
}

func (m *MockTransactionViewCache) Set(ctx context.Context, key string, value *models.TransactionView) {
	m.Called(ctx, key, value)
}
