package repositories

import (
	"context"
	"errors"

	"ledgerpay/internal/models"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")
)

// AccountRepository is the ledger store used by the transfer engine.
//
// Accounts returned inside ExecuteInTransaction are locked for the rest of
// the unit of work. Save persists the account row and every entry in
// Transactions that has not been stored yet.
type AccountRepository interface {
	FindByCustomerID(ctx context.Context, customerID string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
	Create(ctx context.Context, account *models.Account) error

	// ExecuteInTransaction runs fn against a repository bound to a single
	// unit of work. A non-nil error from fn discards every change made
	// through that repository.
	ExecuteInTransaction(ctx context.Context, fn func(AccountRepository) error) error

	// ResetDailyUsage zeroes the consumed daily amount on every account and
	// returns how many accounts changed.
	ResetDailyUsage(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}
