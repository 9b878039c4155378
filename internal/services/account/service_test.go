package account

import (
	"context"
	"errors"
	"testing"
	"time"

	ledgererrors "ledgerpay/internal/errors"
	"ledgerpay/internal/models"
	"ledgerpay/internal/repositories"
	"ledgerpay/internal/repositories/options"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByCustomerID(ctx context.Context, customerID string) (*models.Account, error) {
	args := m.Called(ctx, customerID)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) ExecuteInTransaction(ctx context.Context, fn func(repositories.AccountRepository) error) error {
	return fn(m)
}

func (m *MockAccountRepository) ResetDailyUsage(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestService_Open(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryAccountRepository()
	svc := NewService(repo, repo, decimal.NewFromInt(250), nil)

	tests := []struct {
		name      string
		req       OpenRequest
		wantKind  ledgererrors.Kind
		wantLimit string
	}{
		{
			name:      "default limit",
			req:       OpenRequest{CustomerID: "C1", CustomerName: "Ada", Balance: decimal.NewFromInt(100)},
			wantLimit: "250",
		},
		{
			name:      "explicit limit",
			req:       OpenRequest{CustomerID: " C2 ", Balance: decimal.Zero, DailyLimit: decimal.NewFromInt(40)},
			wantLimit: "40",
		},
		{name: "blank customer", req: OpenRequest{CustomerID: "  "}, wantKind: ledgererrors.KindValidationFailed},
		{name: "negative balance", req: OpenRequest{CustomerID: "C3", Balance: decimal.NewFromInt(-1)}, wantKind: ledgererrors.KindValidationFailed},
		{name: "negative limit", req: OpenRequest{CustomerID: "C4", DailyLimit: decimal.NewFromInt(-5)}, wantKind: ledgererrors.KindValidationFailed},
		{name: "duplicate", req: OpenRequest{CustomerID: "C1"}, wantKind: ledgererrors.KindValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := svc.Open(ctx, tt.req)
			if tt.wantKind != ledgererrors.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, ledgererrors.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Regexp(t, `^LP[0-9]{10}$`, snap.AccountNumber)
			assert.Equal(t, tt.wantLimit, snap.DailyLimit.String())
			assert.True(t, snap.RemainingLimit.Equal(snap.DailyLimit))
		})
	}

	got, err := svc.Get(ctx, "C2")
	require.NoError(t, err)
	assert.Equal(t, "C2", got.CustomerID)
}

func TestService_GetAndHistory(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryAccountRepository()
	svc := NewService(repo, repo, decimal.Zero, nil)

	_, err := svc.Open(ctx, OpenRequest{CustomerID: "C1", Balance: decimal.NewFromInt(1000)})
	require.NoError(t, err)

	// record one outbound entry through a unit of work
	err = repo.ExecuteInTransaction(ctx, func(r repositories.AccountRepository) error {
		acc, err := r.FindByCustomerID(ctx, "C1")
		if err != nil {
			return err
		}
		amount := decimal.NewFromInt(120)
		acc.Balance = acc.Balance.Sub(amount)
		acc.DailyTransactionAmount = acc.DailyTransactionAmount.Add(amount)
		acc.AddTransaction(models.Transaction{
			TransactionID: "ABC",
			Type:          models.TransactionTypeTransferOut,
			Amount:        amount.Neg(),
			BalanceAfter:  acc.Balance,
			Timestamp:     time.Now().UTC(),
		})
		return r.Save(ctx, acc)
	})
	require.NoError(t, err)

	snap, err := svc.Get(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "880", snap.Balance.String())
	assert.Equal(t, "120", snap.DailyConsumed.String())
	assert.True(t, snap.RemainingLimit.Equal(models.DefaultDailyTransactionLimit.Sub(decimal.NewFromInt(120))))

	history, err := svc.History(ctx, "C1", options.NewLedgerOptions().SetPage(10, 0))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "ABC", history[0].TransactionID)

	_, err = svc.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ledgererrors.ErrAccountNotFound)
	_, err = svc.History(ctx, "nobody")
	assert.ErrorIs(t, err, ledgererrors.ErrAccountNotFound)

	n, err := svc.ResetDailyUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	snap, err = svc.Get(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, snap.DailyConsumed.IsZero())
}

func TestService_StoreFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	repo := new(MockAccountRepository)
	repo.On("FindByCustomerID", ctx, "C1").Return(nil, boom)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Account")).Return(boom)
	repo.On("ResetDailyUsage", ctx).Return(int64(0), boom)

	svc := NewService(repo, repositories.NewMemoryAccountRepository(), decimal.Zero, nil)

	_, err := svc.Get(ctx, "C1")
	assert.Equal(t, ledgererrors.KindStoreFailure, ledgererrors.KindOf(err))
	assert.ErrorIs(t, err, boom)

	_, err = svc.Open(ctx, OpenRequest{CustomerID: "C1"})
	assert.Equal(t, ledgererrors.KindStoreFailure, ledgererrors.KindOf(err))

	_, err = svc.ResetDailyUsage(ctx)
	assert.Equal(t, ledgererrors.KindStoreFailure, ledgererrors.KindOf(err))

	repo.AssertExpectations(t)
}
