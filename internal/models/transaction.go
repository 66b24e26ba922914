package models

import (
	"time"
)

type TransactionType string

const (
	TransactionTypeUse    TransactionType = "USE"
	TransactionTypeCancel TransactionType = "CANCEL"
)

type TransactionResult string

const (
	TransactionResultSuccess TransactionResult = "SUCCESS"
	TransactionResultFail    TransactionResult = "FAIL"
)

// Transaction is an append-only record of one balance-affecting attempt.
type Transaction struct {
	ID                    int64             `json:"id" db:"id"`
	TransactionID         string            `json:"transactionId" db:"transaction_id"`
	Type                  TransactionType   `json:"transactionType" db:"transaction_type"`
	Result                TransactionResult `json:"transactionResultType" db:"transaction_result_type"`
	AccountID             int64             `json:"accountId" db:"account_id"`
	AccountNumber         string            `json:"accountNumber" db:"account_number"`
	Amount                int64             `json:"amount" db:"amount"`
	BalanceSnapshot       int64             `json:"balanceSnapShot" db:"balance_snapshot"`
	OriginalTransactionID string            `json:"originalTransactionId,omitempty" db:"original_transaction_id"`
	TransactedAt          time.Time         `json:"transactedAt" db:"transacted_at"`
	CreatedAt             time.Time         `json:"createdAt" db:"created_at"`
}

func (t *Transaction) Succeeded() bool {
	return t.Result == TransactionResultSuccess
}

// TransactionView is what callers of the balance operations get back.
type TransactionView struct {
	AccountNumber         string            `json:"accountNumber"`
	TransactionType       TransactionType   `json:"transactionType"`
	TransactionResultType TransactionResult `json:"transactionResultType"`
	TransactionID         string            `json:"transactionId"`
	Amount                int64             `json:"amount"`
	BalanceSnapshot       int64             `json:"balanceSnapShot"`
	OriginalTransactionID string            `json:"originalTransactionId,omitempty"`
	TransactedAt          time.Time         `json:"transactedAt"`
}

func (t *Transaction) View() *TransactionView {
	return &TransactionView{
		AccountNumber:         t.AccountNumber,
		TransactionType:       t.Type,
		TransactionResultType: t.Result,
		TransactionID:         t.TransactionID,
		Amount:                t.Amount,
		BalanceSnapshot:       t.BalanceSnapshot,
		OriginalTransactionID: t.OriginalTransactionID,
		TransactedAt:          t.TransactedAt,
	}
}
