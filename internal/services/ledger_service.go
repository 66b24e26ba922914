package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/audit"
	"github.com/ruralpay/myaccount/internal/events"
	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/repository"
)

const transactionCacheKeyPrefix = "transaction:"

// TransactionViewCache is satisfied by cache.ViewCache[models.TransactionView].
type TransactionViewCache interface {
	Get(ctx context.Context, key string) (*models.TransactionView, bool)
	Set(ctx context.Context, key string, value *models.TransactionView)
}

// EventPublisher is satisfied by events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// LedgerService owns transaction records: it writes them with their balance
// snapshot, announces them once committed and answers point queries.
type LedgerService struct {
	transactions repository.TransactionRepository
	accounts     repository.AccountRepository
	cache        TransactionViewCache
	publisher    EventPublisher
	audit        *audit.AuditLogger
	logger       *zap.Logger
	newID        func() string
	now          func() time.Time
}

// NewLedgerService builds the ledger. cache and publisher are optional.
func NewLedgerService(
	transactions repository.TransactionRepository,
	accounts repository.AccountRepository,
	cache TransactionViewCache,
	publisher EventPublisher,
	auditLogger *audit.AuditLogger,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		transactions: transactions,
		accounts:     accounts,
		cache:        cache,
		publisher:    publisher,
		audit:        auditLogger,
		logger:       logger,
		newID:        newTransactionID,
		now:          time.Now,
	}
}

// newTransactionID returns 32 lower-case hex characters.
func newTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Record persists one transaction for account. The snapshot is the account
// balance as passed in, so callers mutate the balance first.
func (s *LedgerService) Record(
	ctx context.Context,
	account *models.Account,
	txType models.TransactionType,
	result models.TransactionResult,
	amount int64,
	originalTransactionID string,
) (*models.Transaction, error) {
	txn := &models.Transaction{
		TransactionID:         s.newID(),
		Type:                  txType,
		Result:                result,
		AccountID:             account.ID,
		AccountNumber:         account.AccountNumber,
		Amount:                amount,
		BalanceSnapshot:       account.Balance,
		OriginalTransactionID: originalTransactionID,
		TransactedAt:          s.now(),
	}

	saved, err := s.transactions.Save(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("record %s/%s transaction for account %s: %w", txType, result, account.AccountNumber, err)
	}
	return saved, nil
}

// Announce publishes a committed transaction to the audit log, the view cache
// and the event stream. Failures are logged only.
func (s *LedgerService) Announce(ctx context.Context, txn *models.Transaction) {
	s.audit.LogTransaction(txn)

	if s.cache != nil {
		s.cache.Set(ctx, transactionCacheKeyPrefix+txn.TransactionID, txn.View())
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, events.TransactionEventsStream, events.TransactionRecorded, events.TransactionRecordedEvent{
			TransactionID:         txn.TransactionID,
			AccountNumber:         txn.AccountNumber,
			TransactionType:       string(txn.Type),
			TransactionResultType: string(txn.Result),
			Amount:                txn.Amount,
			BalanceSnapshot:       txn.BalanceSnapshot,
			OriginalTransactionID: txn.OriginalTransactionID,
			TransactedAt:          txn.TransactedAt,
		})
		if err != nil {
			s.logger.Warn("failed to publish transaction event",
				zap.String("transaction_id", txn.TransactionID), zap.Error(err))
		}
	}
}

// RecordFailure writes a FAIL record with the account's current balance as
// snapshot. It is best effort: an unknown account is skipped and write
// errors are logged.
func (s *LedgerService) RecordFailure(
	ctx context.Context,
	accountNumber string,
	txType models.TransactionType,
	amount int64,
	originalTransactionID string,
) *models.Transaction {
	account, err := s.accounts.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("failed to load account for failure record",
				zap.String("account_number", accountNumber), zap.Error(err))
		}
		return nil
	}

	txn, err := s.Record(ctx, account, txType, models.TransactionResultFail, amount, originalTransactionID)
	if err != nil {
		s.logger.Error("failed to record failed transaction",
			zap.String("account_number", accountNumber),
			zap.String("type", string(txType)),
			zap.Error(err))
		s.audit.LogError("", accountNumber, err)
		return nil
	}

	s.Announce(ctx, txn)
	return txn
}

// FindByTransactionID reads through to storage, bypassing the cache.
func (s *LedgerService) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	txn, err := s.transactions.FindByTransactionID(ctx, transactionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewAccountError(ErrCodeTransactionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

// IsCancelled reports whether a successful CANCEL already reverses transactionID.
func (s *LedgerService) IsCancelled(ctx context.Context, transactionID string) (bool, error) {
	_, err := s.transactions.FindCancellation(ctx, transactionID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find cancellation of %s: %w", transactionID, err)
	}
	return true, nil
}

// QueryTransaction returns the view of a recorded transaction, from the cache
// when present.
func (s *LedgerService) QueryTransaction(ctx context.Context, transactionID string) (*models.TransactionView, error) {
	if transactionID == "" {
		return nil, NewAccountError(ErrCodeTransactionNotFound)
	}

	key := transactionCacheKeyPrefix + transactionID
	if s.cache != nil {
		if view, ok := s.cache.Get(ctx, key); ok {
			return view, nil
		}
	}

	txn, err := s.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	view := txn.View()
	if s.cache != nil {
		s.cache.Set(ctx, key, view)
	}
	return view, nil
}
