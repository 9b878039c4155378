package errors

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound = &DomainError{
		Kind:    KindAccountNotFound,
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "account not found",
	}
	ErrSelfTransfer = &DomainError{
		Kind:    KindSelfTransferRejected,
		Code:    "SELF_TRANSFER_REJECTED",
		Message: "cannot transfer funds to the same account",
	}
	ErrInvalidAmount = &DomainError{
		Kind:    KindInvalidAmount,
		Code:    "INVALID_AMOUNT",
		Message: "amount must be greater than zero",
	}
	ErrAmountOutOfRange = &DomainError{
		Kind:    KindInvalidAmount,
		Code:    "INVALID_AMOUNT",
		Message: "amount must have at most 2 decimal places and at most 15 integer digits",
	}
	ErrInsufficientBalance = &DomainError{
		Kind:    KindInsufficientBalance,
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient balance",
	}
	ErrDailyLimitExceeded = &DomainError{
		Kind:    KindDailyLimitExceeded,
		Code:    "DAILY_LIMIT_EXCEEDED",
		Message: "daily limit exceeded",
	}
	ErrSerialization = &DomainError{
		Kind:    KindSerialization,
		Code:    "SERIALIZATION_ERROR",
		Message: "failed to serialize notification",
	}
)

// AccountNotFound reports a missing account for the given role ("sender" or
// "recipient").
func AccountNotFound(role, customerID string) *DomainError {
	return New(KindAccountNotFound,
		fmt.Sprintf("%s account not found for user ID: %s", role, customerID))
}

// LimitExceededError is the DailyLimitExceeded error. It carries the headroom
// left at the time of the rejection.
type LimitExceededError struct {
	*DomainError
	Remaining decimal.Decimal
}

// DailyLimitExceeded builds a LimitExceededError reporting limit - consumed.
func DailyLimitExceeded(limit, consumed decimal.Decimal) *LimitExceededError {
	remaining := limit.Sub(consumed)
	return &LimitExceededError{
		DomainError: New(KindDailyLimitExceeded,
			fmt.Sprintf("daily limit exceeded. remaining limit: %s", remaining.StringFixed(2))),
		Remaining: remaining,
	}
}

// Unwrap exposes the embedded DomainError so errors.As and KindOf see it.
func (e *LimitExceededError) Unwrap() error { return e.DomainError }

// StoreFailure wraps an infrastructure error raised by the ledger store.
func StoreFailure(op string, cause error) *DomainError {
	return Wrap(KindStoreFailure, fmt.Sprintf("ledger store %s failed", op), cause)
}

// SerializationError wraps a payload encoding failure for transactionID.
func SerializationError(transactionID string, cause error) *DomainError {
	return Wrap(KindSerialization,
		fmt.Sprintf("failed to serialize notification for transaction ID: %s", transactionID), cause)
}
