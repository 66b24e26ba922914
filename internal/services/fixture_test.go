package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/audit"
	"github.com/ruralpay/myaccount/internal/lock"
	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/repository/memory"
)

type fixture struct {
	store    *memory.Store
	ledger   *LedgerService
	engine   *BalanceEngine
	guard    *AccountLockGuard
	service  *TransactionService
	accounts *AccountService
	mr       *miniredis.Miniredis
}

// newFixture wires the services over the memory store and a redsync lock
// provider backed by miniredis.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newFixtureWithProvider(t, lock.NewRedisProvider(client, 5*time.Millisecond))
	f.mr = mr
	return f
}

func newFixtureWithProvider(t *testing.T, provider lock.Provider) *fixture {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()
	auditLogger := audit.NewAuditLogger(logger)

	ledger := NewLedgerService(store.Transactions(), store.Accounts(), nil, nil, auditLogger, logger)
	engine := NewBalanceEngine(store.Users(), store.Accounts(), store, ledger, DefaultCancelWindow)
	guard := NewAccountLockGuard(provider, LockConfig{
		KeyPrefix:   DefaultLockKeyPrefix,
		WaitTimeout: 2 * time.Second,
		HoldTimeout: 5 * time.Second,
	}, auditLogger, logger)

	return &fixture{
		store:    store,
		ledger:   ledger,
		engine:   engine,
		guard:    guard,
		service:  NewTransactionService(guard, engine, ledger, logger),
		accounts: NewAccountService(store.Users(), store.Accounts(), store, guard, nil, auditLogger, logger, AccountConfig{}),
	}
}

func (f *fixture) seedUser(id int64) {
	f.store.AddUser(models.AccountUser{ID: id, Name: "Pororo", CreatedAt: time.Now(), UpdatedAt: time.Now()})
}

func (f *fixture) seedAccount(t *testing.T, userID int64, accountNumber string, balance int64) *models.Account {
	t.Helper()
	f.seedUser(userID)
	account, err := f.store.Accounts().Save(context.Background(), &models.Account{
		UserID:        userID,
		AccountNumber: accountNumber,
		Status:        models.AccountStatusInUse,
		Balance:       balance,
		RegisteredAt:  time.Now(),
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) balanceOf(t *testing.T, accountNumber string) int64 {
	t.Helper()
	account, err := f.store.Accounts().FindByAccountNumber(context.Background(), accountNumber)
	require.NoError(t, err)
	return account.Balance
}
