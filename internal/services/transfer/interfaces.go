package transfer

import (
	"context"

	"ledgerpay/internal/models"

	"github.com/shopspring/decimal"
)

// Request asks for Amount to move from one customer's account to another's.
type Request struct {
	FromCustomerID string
	ToCustomerID   string
	Amount         decimal.Decimal
	Description    string
}

// Notifier is told about every committed transfer. Implementations must
// return promptly; the engine ignores whatever they do.
type Notifier interface {
	Dispatch(ctx context.Context, txID string, sender, recipient *models.Account, amount decimal.Decimal)
}

// Notifiers fans a committed transfer out to each notifier in order. A
// panicking notifier does not stop the rest; the first panic is re-raised
// once every notifier has run.
type Notifiers []Notifier

func (ns Notifiers) Dispatch(ctx context.Context, txID string, sender, recipient *models.Account, amount decimal.Decimal) {
	var first interface{}
	for _, n := range ns {
		if r := dispatchOne(ctx, n, txID, sender, recipient, amount); r != nil && first == nil {
			first = r
		}
	}
	if first != nil {
		panic(first)
	}
}

func dispatchOne(ctx context.Context, n Notifier, txID string, sender, recipient *models.Account, amount decimal.Decimal) (panicked interface{}) {
	defer func() { panicked = recover() }()
	n.Dispatch(ctx, txID, sender, recipient, amount)
	return nil
}

// Service moves funds between two accounts.
type Service interface {
	// Transfer validates and applies req atomically and returns the shared
	// transaction ID of the two ledger entries.
	Transfer(ctx context.Context, req Request) (string, error)
}
