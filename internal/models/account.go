package models

import "time"

type AccountStatus string

const (
	AccountStatusInUse        AccountStatus = "IN_USE"
	AccountStatusUnregistered AccountStatus = "UNREGISTERED"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusInUse, AccountStatusUnregistered:
		return true
	}
	return false
}

// AccountNumberWidth is the fixed number of digits in an account number.
const AccountNumberWidth = 10

// ValidAccountNumber reports whether s is exactly AccountNumberWidth ASCII digits.
func ValidAccountNumber(s string) bool {
	if len(s) != AccountNumberWidth {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Account is a balance-holding account. Balance is kept in the smallest currency unit.
type Account struct {
	ID             int64         `json:"id" db:"id"`
	UserID         int64         `json:"userId" db:"account_user_id"`
	AccountNumber  string        `json:"accountNumber" db:"account_number"`
	Status         AccountStatus `json:"accountStatus" db:"account_status"`
	Balance        int64         `json:"balance" db:"balance"`
	RegisteredAt   time.Time     `json:"registeredAt" db:"registered_at"`
	UnregisteredAt *time.Time    `json:"unRegisteredAt,omitempty" db:"unregistered_at"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" db:"updated_at"`
}

// Use debits amount. The caller has already checked amount <= Balance.
func (a *Account) Use(amount int64) {
	a.Balance -= amount
}

// Refund credits amount back to the account.
func (a *Account) Refund(amount int64) {
	a.Balance += amount
}

// Unregister moves the account to its terminal state.
func (a *Account) Unregister(at time.Time) {
	a.Status = AccountStatusUnregistered
	a.UnregisteredAt = &at
}

// AccountInfo is the list view of an account.
type AccountInfo struct {
	AccountNumber string `json:"accountNumber"`
	Balance       int64  `json:"balance"`
}
