package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/audit"
	"github.com/ruralpay/myaccount/internal/lock"
)

const (
	DefaultLockKeyPrefix   = "ACLK:"
	DefaultLockWaitTimeout = 3 * time.Second
	DefaultLockHoldTimeout = 5 * time.Second
)

type LockConfig struct {
	KeyPrefix   string
	WaitTimeout time.Duration
	HoldTimeout time.Duration
}

// AccountLockGuard serializes work per account number through a lock.Provider.
type AccountLockGuard struct {
	provider lock.Provider
	cfg      LockConfig
	audit    *audit.AuditLogger
	logger   *zap.Logger
}

func NewAccountLockGuard(provider lock.Provider, cfg LockConfig, auditLogger *audit.AuditLogger, logger *zap.Logger) *AccountLockGuard {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultLockKeyPrefix
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultLockWaitTimeout
	}
	if cfg.HoldTimeout <= 0 {
		cfg.HoldTimeout = DefaultLockHoldTimeout
	}
	return &AccountLockGuard{
		provider: provider,
		cfg:      cfg,
		audit:    auditLogger,
		logger:   logger,
	}
}

func (g *AccountLockGuard) LockKey(accountNumber string) string {
	return g.cfg.KeyPrefix + accountNumber
}

// WithAccountLock runs fn while holding the lock for accountNumber. Any
// acquisition failure returns ACCOUNT_TRANSACTION_LOCK without calling fn.
// The lock is released on every exit path, panics included.
func (g *AccountLockGuard) WithAccountLock(ctx context.Context, accountNumber string, fn func(ctx context.Context) error) error {
	return g.withLock(ctx, g.LockKey(accountNumber), accountNumber, fn)
}

// withLock is WithAccountLock for an arbitrary key. accountNumber is empty
// when the key guards something other than one account.
func (g *AccountLockGuard) withLock(ctx context.Context, key, accountNumber string, fn func(ctx context.Context) error) error {
	handle, err := g.provider.Acquire(ctx, key, g.cfg.WaitTimeout, g.cfg.HoldTimeout)
	if err == nil && handle == nil {
		err = lock.ErrNotAcquired
	}
	if err != nil {
		fields := []zap.Field{zap.String("key", key), zap.Error(err)}
		if accountNumber != "" {
			fields = append(fields, zap.String("account_number", accountNumber))
		}
		g.logger.Warn("account lock acquisition failed", fields...)
		g.audit.LogLockFailure(accountNumber, key, err)
		return wrapAccountError(ErrCodeAccountTransactionLock, err)
	}

	g.logger.Debug("account lock acquired", zap.String("key", key))

	defer func() {
		if err := handle.Release(ctx); err != nil {
			level := zap.ErrorLevel
			if errors.Is(err, lock.ErrNotHeld) {
				level = zap.WarnLevel
			}
			g.logger.Log(level, "account lock release failed", zap.String("key", key), zap.Error(err))
			return
		}
		g.logger.Debug("account lock released", zap.String("key", key))
	}()

	return fn(ctx)
}
