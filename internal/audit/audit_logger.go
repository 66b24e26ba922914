package audit

import (
	"time"

	"go.uber.org/zap"

	"github.com/ruralpay/myaccount/internal/models"
)

const (
	EventTransaction = "TRANSACTION"
	EventLockFailure = "LOCK_FAILURE"
	EventAccount     = "ACCOUNT"
	EventError       = "ERROR"
)

type AuditEvent struct {
	Timestamp     time.Time         `json:"timestamp"`
	EventType     string            `json:"event_type"`
	TransactionID string            `json:"transaction_id,omitempty"`
	AccountNumber string            `json:"account_number,omitempty"`
	Amount        int64             `json:"amount,omitempty"`
	Status        string            `json:"status"`
	Details       map[string]string `json:"details,omitempty"`
}

// AuditLogger writes audit events as structured log entries on a dedicated
// "audit" logger.
type AuditLogger struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	return &AuditLogger{logger: logger.Named("audit"), now: time.Now}
}

// LogTransaction records a persisted transaction, successful or failed.
func (a *AuditLogger) LogTransaction(txn *models.Transaction) {
	details := map[string]string{"type": string(txn.Type)}
	if txn.OriginalTransactionID != "" {
		details["original_transaction_id"] = txn.OriginalTransactionID
	}
	a.log(AuditEvent{
		EventType:     EventTransaction,
		TransactionID: txn.TransactionID,
		AccountNumber: txn.AccountNumber,
		Amount:        txn.Amount,
		Status:        string(txn.Result),
		Details:       details,
	})
}

func (a *AuditLogger) LogLockFailure(accountNumber, key string, err error) {
	a.log(AuditEvent{
		EventType:     EventLockFailure,
		AccountNumber: accountNumber,
		Status:        "FAILED",
		Details:       map[string]string{"key": key, "error": err.Error()},
	})
}

func (a *AuditLogger) LogAccount(accountNumber, operation string) {
	a.log(AuditEvent{
		EventType:     EventAccount,
		AccountNumber: accountNumber,
		Status:        "SUCCESS",
		Details:       map[string]string{"operation": operation},
	})
}

func (a *AuditLogger) LogError(transactionID, accountNumber string, err error) {
	a.log(AuditEvent{
		EventType:     EventError,
		TransactionID: transactionID,
		AccountNumber: accountNumber,
		Status:        "FAILED",
		Details:       map[string]string{"error": err.Error()},
	})
}

// log omits empty identifiers, matching the omitempty tags on AuditEvent.
func (a *AuditLogger) log(event AuditEvent) {
	event.Timestamp = a.now()
	fields := []zap.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.String("event_type", event.EventType),
	}
	if event.TransactionID != "" {
		fields = append(fields, zap.String("transaction_id", event.TransactionID))
	}
	if event.AccountNumber != "" {
		fields = append(fields, zap.String("account_number", event.AccountNumber))
	}
	fields = append(fields,
		zap.Int64("amount", event.Amount),
		zap.String("status", event.Status),
		zap.Any("details", event.Details),
	)
	a.logger.Info("audit event", fields...)
}
