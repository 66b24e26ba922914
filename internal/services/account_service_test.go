package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ruralpay/myaccount/internal/audit"
	"github.com/ruralpay/myaccount/internal/events"
	"github.com/ruralpay/myaccount/internal/lock"
	"github.com/ruralpay/myaccount/internal/models"
)

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("first account gets the initial number", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(1)

		account, err := f.accounts.CreateAccount(ctx, 1, 1000)
		require.NoError(t, err)
		assert.Equal(t, DefaultFirstAccountNumber, account.AccountNumber)
		assert.Equal(t, models.AccountStatusInUse, account.Status)
		assert.Equal(t, int64(1000), account.Balance)
		assert.False(t, account.RegisteredAt.IsZero())
	})

	t.Run("numbers follow the latest account", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, 1, "1110000000", 0)

		account, err := f.accounts.CreateAccount(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, "1110000001", account.AccountNumber)
	})

	t.Run("numbers keep their width at the top of the range", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, 1, "9999999998", 0)

		account, err := f.accounts.CreateAccount(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, "9999999999", account.AccountNumber)

		_, err = f.accounts.CreateAccount(ctx, 1, 0)
		assert.Equal(t, ErrCodeAccountNumberExhausted, CodeOf(err))

		accounts, err := f.store.Accounts().FindByUser(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})

	t.Run("leading zeros are preserved", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(1)
		logger := zap.NewNop()
		service := NewAccountService(f.store.Users(), f.store.Accounts(), f.store, f.guard, nil,
			audit.NewAuditLogger(logger), logger, AccountConfig{FirstNumber: "0000000001"})

		first, err := service.CreateAccount(ctx, 1, 0)
		require.NoError(t, err)
		second, err := service.CreateAccount(ctx, 1, 0)
		require.NoError(t, err)

		assert.Equal(t, "0000000001", first.AccountNumber)
		assert.Equal(t, "0000000002", second.AccountNumber)
	})

	t.Run("malformed latest number is an internal error", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, 1, "12345", 0)

		_, err := f.accounts.CreateAccount(ctx, 1, 0)
		require.Error(t, err)
		assert.Equal(t, ErrCodeInternalServerError, CodeOf(err))
	})

	t.Run("number lock failure is not audited as an account", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		logger := zap.New(core)
		auditLogger := audit.NewAuditLogger(logger)
		provider := new(MockLockProvider)
		provider.On("Acquire", mock.Anything, "ACLK:ACCOUNT_NUMBER_SEQ", mock.Anything, mock.Anything).
			Return(nil, lock.ErrNotAcquired).Once()

		f := newFixture(t)
		f.seedUser(1)
		guard := NewAccountLockGuard(provider, LockConfig{}, auditLogger, logger)
		service := NewAccountService(f.store.Users(), f.store.Accounts(), f.store, guard, nil, auditLogger, logger, AccountConfig{})

		_, err := service.CreateAccount(ctx, 1, 0)
		assert.Equal(t, ErrCodeAccountTransactionLock, CodeOf(err))
		provider.AssertExpectations(t)

		audited := 0
		require.NotZero(t, logs.Len())
		for _, entry := range logs.All() {
			fields := entry.ContextMap()
			assert.NotContains(t, fields, "account_number", entry.Message)
			if entry.LoggerName == "audit" {
				audited++
				assert.Equal(t, map[string]string{"key": "ACLK:ACCOUNT_NUMBER_SEQ", "error": lock.ErrNotAcquired.Error()}, fields["details"])
			}
		}
		assert.Equal(t, 1, audited)
	})

	t.Run("user not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.accounts.CreateAccount(ctx, 7, 0)
		assert.Equal(t, ErrCodeUserNotFound, CodeOf(err))
	})

	t.Run("per user limit", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(1)
		logger := zap.NewNop()
		service := NewAccountService(f.store.Users(), f.store.Accounts(), f.store, f.guard, nil,
			audit.NewAuditLogger(logger), logger, AccountConfig{MaxPerUser: 2})

		for i := 0; i < 2; i++ {
			_, err := service.CreateAccount(ctx, 1, 0)
			require.NoError(t, err)
		}

		_, err := service.CreateAccount(ctx, 1, 0)
		assert.Equal(t, ErrCodeMaxAccountPerUser, CodeOf(err))
	})

	t.Run("negative initial balance", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(1)

		_, err := f.accounts.CreateAccount(ctx, 1, -1)
		assert.Equal(t, ErrCodeInvalidRequest, CodeOf(err))
	})

	t.Run("publishes account opened", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(1)
		publisher := new(MockEventPublisher)
		publisher.On("Publish", mock.Anything, events.AccountEventsStream, events.AccountOpened,
			events.AccountEvent{AccountNumber: DefaultFirstAccountNumber, UserID: 1, Balance: 10}).Return(nil).Once()

		logger := zap.NewNop()
		service := NewAccountService(f.store.Users(), f.store.Accounts(), f.store, f.guard, publisher,
			audit.NewAuditLogger(logger), logger, AccountConfig{})

		_, err := service.CreateAccount(ctx, 1, 10)
		require.NoError(t, err)
		publisher.AssertExpectations(t)
	})
}

func TestAccountService_DeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("unregisters an empty account", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, 1, "1110000000", 0)

		account, err := f.accounts.DeleteAccount(ctx, 1, "1110000000")
		require.NoError(t, err)
		assert.Equal(t, models.AccountStatusUnregistered, account.Status)
		require.NotNil(t, account.UnregisteredAt)
		assert.WithinDuration(t, time.Now(), *account.UnregisteredAt, time.Minute)
		assert.False(t, f.mr.Exists("ACLK:1110000000"))
	})

	t.Run("balance not empty", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, 1, "1110000000", 10)

		_, err := f.accounts.DeleteAccount(ctx, 1, "1110000000")
		assert.Equal(t, ErrCodeBalanceNotEmpty, CodeOf(err))
	})

	t.Run("already unregistered", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, 1, "1110000000", 0)
		_, err := f.accounts.DeleteAccount(ctx, 1, "1110000000")
		require.NoError(t, err)

		_, err = f.accounts.DeleteAccount(ctx, 1, "1110000000")
		assert.Equal(t, ErrCodeAccountAlreadyUnregistered, CodeOf(err))
	})

	t.Run("owner mismatch", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, 1, "1110000000", 0)
		f.seedUser(2)

		_, err := f.accounts.DeleteAccount(ctx, 2, "1110000000")
		assert.Equal(t, ErrCodeUserAccountUnMatch, CodeOf(err))
	})

	t.Run("account not found", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(1)

		_, err := f.accounts.DeleteAccount(ctx, 1, "9999999999")
		assert.Equal(t, ErrCodeAccountNotFound, CodeOf(err))
	})

	t.Run("unregistered account rejects further use", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, 1, "1110000000", 0)
		_, err := f.accounts.DeleteAccount(ctx, 1, "1110000000")
		require.NoError(t, err)

		_, err = f.service.UseBalance(ctx, 1, "1110000000", 10)
		assert.Equal(t, ErrCodeAccountAlreadyUnregistered, CodeOf(err))
	})
}

func TestAccountService_Queries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.seedAccount(t, 1, "1110000000", 1000)
	f.seedAccount(t, 1, "1110000001", 0)

	t.Run("get by id", func(t *testing.T) {
		account, err := f.accounts.GetAccount(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "1110000000", account.AccountNumber)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := f.accounts.GetAccount(ctx, 999)
		assert.Equal(t, ErrCodeAccountNotFound, CodeOf(err))
	})

	t.Run("list by user", func(t *testing.T) {
		infos, err := f.accounts.ListAccounts(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []models.AccountInfo{
			{AccountNumber: "1110000000", Balance: 1000},
			{AccountNumber: "1110000001", Balance: 0},
		}, infos)
	})

	t.Run("list for unknown user", func(t *testing.T) {
		_, err := f.accounts.ListAccounts(ctx, 99)
		assert.Equal(t, ErrCodeUserNotFound, CodeOf(err))
	})
}
