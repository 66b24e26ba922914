package services

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable, caller-visible identifier of a domain error.
type ErrorCode string

const (
	ErrCodeUserNotFound                ErrorCode = "USER_NOT_FOUND"
	ErrCodeMaxAccountPerUser           ErrorCode = "MAX_ACCOUNT_PER_USER"
	ErrCodeAccountNumberExhausted      ErrorCode = "ACCOUNT_NUMBER_EXHAUSTED"
	ErrCodeAccountNotFound             ErrorCode = "ACCOUNT_NOT_FOUND"
	ErrCodeUserAccountUnMatch          ErrorCode = "USER_ACCOUNT_UN_MATCH"
	ErrCodeAccountAlreadyUnregistered  ErrorCode = "ACCOUNT_ALREADY_UNREGISTERED"
	ErrCodeBalanceNotEmpty             ErrorCode = "BALANCE_NOT_EMPTY"
	ErrCodeAmountExceedBalance         ErrorCode = "AMOUNT_EXCEED_BALANCE"
	ErrCodeTransactionNotFound         ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrCodeTransactionAccountUnMatch   ErrorCode = "TRANSACTION_ACCOUNT_UN_MATCH"
	ErrCodeCancelMustFully             ErrorCode = "CANCEL_MUST_FULLY"
	ErrCodeTooOldOrderToCancel         ErrorCode = "TOO_OLD_ORDER_TO_CANCEL"
	ErrCodeTransactionAlreadyCancelled ErrorCode = "TRANSACTION_ALREADY_CANCELLED"
	ErrCodeTransactionNotCancellable   ErrorCode = "TRANSACTION_NOT_CANCELLABLE"
	ErrCodeAccountTransactionLock      ErrorCode = "ACCOUNT_TRANSACTION_LOCK"
	ErrCodeInvalidRequest              ErrorCode = "INVALID_REQUEST"
	ErrCodeUnauthorized                ErrorCode = "UNAUTHORIZED"
	ErrCodeInternalServerError         ErrorCode = "INTERNAL_SERVER_ERROR"
)

var errorDescriptions = map[ErrorCode]string{
	ErrCodeUserNotFound:                "User does not exist",
	ErrCodeMaxAccountPerUser:           "User already holds the maximum number of accounts",
	ErrCodeAccountNumberExhausted:      "No account numbers are left to allocate",
	ErrCodeAccountNotFound:             "Account does not exist",
	ErrCodeUserAccountUnMatch:          "Account does not belong to the user",
	ErrCodeAccountAlreadyUnregistered:  "Account is already unregistered",
	ErrCodeBalanceNotEmpty:             "Account still has a balance",
	ErrCodeAmountExceedBalance:         "Amount exceeds the account balance",
	ErrCodeTransactionNotFound:         "Transaction does not exist",
	ErrCodeTransactionAccountUnMatch:   "Transaction does not belong to the account",
	ErrCodeCancelMustFully:             "Only the full transaction amount can be cancelled",
	ErrCodeTooOldOrderToCancel:         "Transaction is too old to cancel",
	ErrCodeTransactionAlreadyCancelled: "Transaction has already been cancelled",
	ErrCodeTransactionNotCancellable:   "Only successful use transactions can be cancelled",
	ErrCodeAccountTransactionLock:      "Account is in use by another transaction, retry later",
	ErrCodeInvalidRequest:              "Invalid request",
	ErrCodeUnauthorized:                "Missing or invalid credentials",
	ErrCodeInternalServerError:         "An internal server error occurred",
}

func (c ErrorCode) Description() string {
	if d, ok := errorDescriptions[c]; ok {
		return d
	}
	return errorDescriptions[ErrCodeInternalServerError]
}

// AccountError is a domain error carrying a stable code.
type AccountError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func NewAccountError(code ErrorCode) *AccountError {
	return &AccountError{Code: code, Message: code.Description()}
}

func wrapAccountError(code ErrorCode, err error) *AccountError {
	return &AccountError{Code: code, Message: code.Description(), Err: err}
}

func (e *AccountError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AccountError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first AccountError in err's chain, or
// INTERNAL_SERVER_ERROR when there is none.
func CodeOf(err error) ErrorCode {
	var accountErr *AccountError
	if errors.As(err, &accountErr) {
		return accountErr.Code
	}
	return ErrCodeInternalServerError
}

// IsValidation reports whether err is a deterministic business-rule
// violation. Only these produce FAIL transaction records.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case ErrCodeAccountTransactionLock, ErrCodeInvalidRequest, ErrCodeUnauthorized, ErrCodeInternalServerError:
		return false
	}
	return true
}
