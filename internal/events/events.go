// Package events publishes ledger events to redis streams.
package events

import "time"

const (
	TransactionRecorded = "transaction.recorded"
	AccountOpened       = "account.opened"
	AccountClosed       = "account.closed"
)

const (
	TransactionEventsStream = "transaction.events"
	AccountEventsStream     = "account.events"
)

type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type TransactionRecordedEvent struct {
	TransactionID         string    `json:"transactionId"`
	AccountNumber         string    `json:"accountNumber"`
	TransactionType       string    `json:"transactionType"`
	TransactionResultType string    `json:"transactionResultType"`
	Amount                int64     `json:"amount"`
	BalanceSnapshot       int64     `json:"balanceSnapShot"`
	OriginalTransactionID string    `json:"originalTransactionId,omitempty"`
	TransactedAt          time.Time `json:"transactedAt"`
}

type AccountEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        int64  `json:"userId"`
	Balance       int64  `json:"balance"`
}
