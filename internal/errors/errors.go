// Package errors defines the domain error taxonomy shared by the transfer
// engine, the notification dispatcher and the HTTP boundary.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind tags a DomainError so callers can switch on it instead of on types.
type Kind int

const (
	KindUnknown Kind = iota
	KindAccountNotFound
	KindSelfTransferRejected
	KindInvalidAmount
	KindInsufficientBalance
	KindDailyLimitExceeded
	KindValidationFailed
	KindStoreFailure
	KindSerialization
)

func (k Kind) String() string {
	switch k {
	case KindAccountNotFound:
		return "ACCOUNT_NOT_FOUND"
	case KindSelfTransferRejected:
		return "SELF_TRANSFER_REJECTED"
	case KindInvalidAmount:
		return "INVALID_AMOUNT"
	case KindInsufficientBalance:
		return "INSUFFICIENT_BALANCE"
	case KindDailyLimitExceeded:
		return "DAILY_LIMIT_EXCEEDED"
	case KindValidationFailed:
		return "VALIDATION_FAILED"
	case KindStoreFailure:
		return "STORE_FAILURE"
	case KindSerialization:
		return "SERIALIZATION_ERROR"
	default:
		return "UNKNOWN"
	}
}

// IsCallerFault reports whether the kind is caused by the request itself.
// Caller faults are never retried and map to 4xx responses.
func (k Kind) IsCallerFault() bool {
	switch k {
	case KindAccountNotFound, KindSelfTransferRejected, KindInvalidAmount,
		KindInsufficientBalance, KindDailyLimitExceeded, KindValidationFailed:
		return true
	default:
		return false
	}
}

// DomainError is the error value returned by services.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches any DomainError of the same kind, so the package sentinels work
// with errors.Is regardless of message or cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a DomainError whose code is derived from the kind.
func New(kind Kind, message string) *DomainError {
	return &DomainError{Kind: kind, Code: kind.String(), Message: message}
}

// Wrap creates a DomainError carrying cause.
func Wrap(kind Kind, message string, cause error) *DomainError {
	return &DomainError{Kind: kind, Code: kind.String(), Message: message, Err: cause}
}

// KindOf returns the kind of the first DomainError in err's chain.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
