package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/audit"
	"github.com/ruralpay/myaccount/internal/lock"
)

func newTestGuard(provider lock.Provider) *AccountLockGuard {
	logger := zap.NewNop()
	return NewAccountLockGuard(provider, LockConfig{}, audit.NewAuditLogger(logger), logger)
}

func TestAccountLockGuard_WithAccountLock(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		guard := newTestGuard(new(MockLockProvider))
		assert.Equal(t, "ACLK:1110000000", guard.LockKey("1110000000"))
		assert.Equal(t, DefaultLockWaitTimeout, guard.cfg.WaitTimeout)
		assert.Equal(t, DefaultLockHoldTimeout, guard.cfg.HoldTimeout)
	})

	t.Run("releases after success", func(t *testing.T) {
		handle := new(MockLockHandle)
		handle.On("Release", mock.Anything).Return(nil).Once()
		provider := new(MockLockProvider)
		provider.On("Acquire", mock.Anything, "ACLK:1110000000", DefaultLockWaitTimeout, DefaultLockHoldTimeout).
			Return(handle, nil).Once()

		called := false
		err := newTestGuard(provider).WithAccountLock(ctx, "1110000000", func(context.Context) error {
			called = true
			return nil
		})

		require.NoError(t, err)
		assert.True(t, called)
		provider.AssertExpectations(t)
		handle.AssertExpectations(t)
	})

	t.Run("releases after error and returns it", func(t *testing.T) {
		handle := new(MockLockHandle)
		handle.On("Release", mock.Anything).Return(nil).Once()
		provider := new(MockLockProvider)
		provider.On("Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(handle, nil)

		want := NewAccountError(ErrCodeAmountExceedBalance)
		err := newTestGuard(provider).WithAccountLock(ctx, "1110000000", func(context.Context) error {
			return want
		})

		assert.Same(t, want, err)
		handle.AssertExpectations(t)
	})

	t.Run("releases after panic", func(t *testing.T) {
		handle := new(MockLockHandle)
		handle.On("Release", mock.Anything).Return(nil).Once()
		provider := new(MockLockProvider)
		provider.On("Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(handle, nil)

		assert.Panics(t, func() {
			_ = newTestGuard(provider).WithAccountLock(ctx, "1110000000", func(context.Context) error {
				panic("boom")
			})
		})
		handle.AssertExpectations(t)
	})

	t.Run("release failure does not mask the result", func(t *testing.T) {
		handle := new(MockLockHandle)
		handle.On("Release", mock.Anything).Return(lock.ErrNotHeld)
		provider := new(MockLockProvider)
		provider.On("Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(handle, nil)

		err := newTestGuard(provider).WithAccountLock(ctx, "1110000000", func(context.Context) error { return nil })
		assert.NoError(t, err)
	})

	t.Run("acquisition failure skips the operation", func(t *testing.T) {
		provider := new(MockLockProvider)
		provider.On("Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("i/o timeout"))

		called := false
		err := newTestGuard(provider).WithAccountLock(ctx, "1110000000", func(context.Context) error {
			called = true
			return nil
		})

		assert.False(t, called)
		assert.Equal(t, ErrCodeAccountTransactionLock, CodeOf(err))
	})

	t.Run("nil handle without error counts as failure", func(t *testing.T) {
		provider := new(MockLockProvider)
		provider.On("Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

		called := false
		err := newTestGuard(provider).WithAccountLock(ctx, "1110000000", func(context.Context) error {
			called = true
			return nil
		})

		assert.False(t, called)
		assert.ErrorIs(t, err, lock.ErrNotAcquired)
	})

	t.Run("custom timeouts reach the provider", func(t *testing.T) {
		handle := new(MockLockHandle)
		handle.On("Release", mock.Anything).Return(nil)
		provider := new(MockLockProvider)
		provider.On("Acquire", mock.Anything, "LOCK-1110000000", time.Second, 10*time.Second).Return(handle, nil).Once()

		logger := zap.NewNop()
		guard := NewAccountLockGuard(provider, LockConfig{KeyPrefix: "LOCK-", WaitTimeout: time.Second, HoldTimeout: 10 * time.Second},
			audit.NewAuditLogger(logger), logger)

		require.NoError(t, guard.WithAccountLock(ctx, "1110000000", func(context.Context) error { return nil }))
		provider.AssertExpectations(t)
	})
}
