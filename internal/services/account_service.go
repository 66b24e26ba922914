package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/audit"
	"github.com/ruralpay/myaccount/internal/events"
	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/repository"
)

const (
	DefaultMaxAccountsPerUser = 10
	DefaultFirstAccountNumber = "1000000000"

	// accountNumberLock serializes number allocation; it shares the
	// account lock namespace but can never collide with a numeric number.
	accountNumberLock = "ACCOUNT_NUMBER_SEQ"

	maxAccountNumber = 9_999_999_999
)

type AccountConfig struct {
	MaxPerUser  int
	FirstNumber string
}

type AccountService struct {
	users      repository.UserRepository
	accounts   repository.AccountRepository
	transactor repository.Transactor
	guard      *AccountLockGuard
	publisher  EventPublisher
	audit      *audit.AuditLogger
	logger     *zap.Logger
	cfg        AccountConfig
	now        func() time.Time
}

func NewAccountService(
	users repository.UserRepository,
	accounts repository.AccountRepository,
	transactor repository.Transactor,
	guard *AccountLockGuard,
	publisher EventPublisher,
	auditLogger *audit.AuditLogger,
	logger *zap.Logger,
	cfg AccountConfig,
) *AccountService {
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = DefaultMaxAccountsPerUser
	}
	if cfg.FirstNumber == "" {
		cfg.FirstNumber = DefaultFirstAccountNumber
	}
	return &AccountService{
		users:      users,
		accounts:   accounts,
		transactor: transactor,
		guard:      guard,
		publisher:  publisher,
		audit:      auditLogger,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// CreateAccount opens an IN_USE account numbered one past the latest account.
func (s *AccountService) CreateAccount(ctx context.Context, userID, initialBalance int64) (*models.Account, error) {
	if initialBalance < 0 {
		return nil, NewAccountError(ErrCodeInvalidRequest)
	}

	var created *models.Account
	err := s.guard.withLock(ctx, s.guard.LockKey(accountNumberLock), "", func(ctx context.Context) error {
		return s.transactor.WithinTx(ctx, func(ctx context.Context) error {
			user, err := s.findUser(ctx, userID)
			if err != nil {
				return err
			}

			count, err := s.accounts.CountByUser(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("count accounts of user %d: %w", user.ID, err)
			}
			if count >= s.cfg.MaxPerUser {
				return NewAccountError(ErrCodeMaxAccountPerUser)
			}

			number, err := s.nextAccountNumber(ctx)
			if err != nil {
				return err
			}

			created, err = s.accounts.Save(ctx, &models.Account{
				UserID:        user.ID,
				AccountNumber: number,
				Status:        models.AccountStatusInUse,
				Balance:       initialBalance,
				RegisteredAt:  s.now(),
			})
			if err != nil {
				return fmt.Errorf("create account %s: %w", number, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, events.AccountOpened, created, "CREATE")
	return created, nil
}

func (s *AccountService) nextAccountNumber(ctx context.Context) (string, error) {
	latest, err := s.accounts.FindLatest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return s.cfg.FirstNumber, nil
	}
	if err != nil {
		return "", fmt.Errorf("find latest account: %w", err)
	}

	if !models.ValidAccountNumber(latest.AccountNumber) {
		return "", fmt.Errorf("latest account number %q is not %d digits", latest.AccountNumber, models.AccountNumberWidth)
	}
	n, err := strconv.ParseInt(latest.AccountNumber, 10, 64)
	if err != nil {
		return "", fmt.Errorf("parse latest account number %q: %w", latest.AccountNumber, err)
	}
	if n >= maxAccountNumber {
		return "", NewAccountError(ErrCodeAccountNumberExhausted)
	}
	return fmt.Sprintf("%0*d", models.AccountNumberWidth, n+1), nil
}

// DeleteAccount unregisters an empty account. It runs under the account lock
// so it cannot interleave with a balance mutation.
func (s *AccountService) DeleteAccount(ctx context.Context, userID int64, accountNumber string) (*models.Account, error) {
	var closed *models.Account
	err := s.guard.WithAccountLock(ctx, accountNumber, func(ctx context.Context) error {
		return s.transactor.WithinTx(ctx, func(ctx context.Context) error {
			user, err := s.findUser(ctx, userID)
			if err != nil {
				return err
			}

			account, err := s.accounts.FindByAccountNumber(ctx, accountNumber)
			if errors.Is(err, repository.ErrNotFound) {
				return NewAccountError(ErrCodeAccountNotFound)
			}
			if err != nil {
				return fmt.Errorf("find account %s: %w", accountNumber, err)
			}

			if account.UserID != user.ID {
				return NewAccountError(ErrCodeUserAccountUnMatch)
			}
			if account.Status == models.AccountStatusUnregistered {
				return NewAccountError(ErrCodeAccountAlreadyUnregistered)
			}
			if account.Balance > 0 {
				return NewAccountError(ErrCodeBalanceNotEmpty)
			}

			account.Unregister(s.now())
			closed, err = s.accounts.Save(ctx, account)
			if err != nil {
				return fmt.Errorf("unregister account %s: %w", accountNumber, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, events.AccountClosed, closed, "DELETE")
	return closed, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewAccountError(ErrCodeAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find account %d: %w", id, err)
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, userID int64) ([]models.AccountInfo, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list accounts of user %d: %w", user.ID, err)
	}

	infos := make([]models.AccountInfo, 0, len(accounts))
	for _, a := range accounts {
		infos = append(infos, models.AccountInfo{AccountNumber: a.AccountNumber, Balance: a.Balance})
	}
	return infos, nil
}

func (s *AccountService) findUser(ctx context.Context, userID int64) (*models.AccountUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewAccountError(ErrCodeUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
	return user, nil
}

func (s *AccountService) announce(ctx context.Context, eventType string, account *models.Account, operation string) {
	s.audit.LogAccount(account.AccountNumber, operation)
	s.logger.Info("account lifecycle event",
		zap.String("event", eventType),
		zap.String("account_number", account.AccountNumber),
		zap.Int64("user_id", account.UserID))

	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.AccountEventsStream, eventType, events.AccountEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
		Balance:       account.Balance,
	})
	if err != nil {
		s.logger.Warn("failed to publish account event",
			zap.String("account_number", account.AccountNumber), zap.Error(err))
	}
}
