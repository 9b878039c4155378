package account

import (
	"context"
	"time"

	"ledgerpay/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultInvalidateTimeout = 500 * time.Millisecond

// CacheInvalidator is a transfer notifier that drops the cached snapshots
// of both parties once a transfer has committed.
type CacheInvalidator struct {
	accounts Service
	timeout  time.Duration
	log      *zap.Logger
}

func NewCacheInvalidator(accounts Service, log *zap.Logger) *CacheInvalidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &CacheInvalidator{accounts: accounts, timeout: defaultInvalidateTimeout, log: log}
}

func (c *CacheInvalidator) Dispatch(ctx context.Context, txID string, sender, recipient *models.Account, _ decimal.Decimal) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	if err := c.accounts.Invalidate(ctx, sender.CustomerID, recipient.CustomerID); err != nil {
		c.log.Warn("failed to invalidate cached accounts",
			zap.String("transaction_id", txID),
			zap.Error(err))
	}
}
