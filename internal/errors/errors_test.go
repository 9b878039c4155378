package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"sentinel", ErrInsufficientBalance, KindInsufficientBalance},
		{"wrapped sentinel", fmt.Errorf("transfer: %w", ErrSelfTransfer), KindSelfTransferRejected},
		{"not found", AccountNotFound("sender", "C1"), KindAccountNotFound},
		{"limit", DailyLimitExceeded(decimal.NewFromInt(500), decimal.NewFromInt(450)), KindDailyLimitExceeded},
		{"store", StoreFailure("commit", stderrors.New("conn reset")), KindStoreFailure},
		{"plain", stderrors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestDomainError_IsMatchesByKind(t *testing.T) {
	err := AccountNotFound("recipient", "C2")

	assert.True(t, stderrors.Is(err, ErrAccountNotFound))
	assert.False(t, stderrors.Is(err, ErrInvalidAmount))
	assert.Equal(t, "recipient account not found for user ID: C2", err.Error())
}

func TestDailyLimitExceeded_ReportsRemaining(t *testing.T) {
	err := DailyLimitExceeded(decimal.RequireFromString("500.00"), decimal.RequireFromString("450.00"))

	assert.True(t, err.Remaining.Equal(decimal.RequireFromString("50")))
	assert.Equal(t, "daily limit exceeded. remaining limit: 50.00", err.Error())
	assert.True(t, stderrors.Is(err, ErrDailyLimitExceeded))

	var limitErr *LimitExceededError
	assert.True(t, stderrors.As(fmt.Errorf("wrapped: %w", err), &limitErr))
}

func TestStoreFailure_KeepsCause(t *testing.T) {
	cause := stderrors.New("deadlock detected")
	err := StoreFailure("commit", cause)

	assert.ErrorIs(t, err, cause)
	assert.False(t, err.Kind.IsCallerFault())
	assert.Contains(t, err.Error(), "deadlock detected")
}

func TestKind_IsCallerFault(t *testing.T) {
	for _, k := range []Kind{KindAccountNotFound, KindSelfTransferRejected, KindInvalidAmount,
		KindInsufficientBalance, KindDailyLimitExceeded, KindValidationFailed} {
		assert.True(t, k.IsCallerFault(), k.String())
	}
	for _, k := range []Kind{KindUnknown, KindStoreFailure, KindSerialization} {
		assert.False(t, k.IsCallerFault(), k.String())
	}
}
