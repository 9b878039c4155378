// Package account opens accounts and serves their read side: the balance
// snapshot and the ledger history.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ledgererrors "ledgerpay/internal/errors"
	"ledgerpay/internal/models"
	"ledgerpay/internal/repositories"
	"ledgerpay/internal/repositories/options"
	"ledgerpay/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OpenRequest describes a new account. A zero DailyLimit selects the
// service default.
type OpenRequest struct {
	CustomerID   string
	CustomerName string
	Balance      decimal.Decimal
	DailyLimit   decimal.Decimal
}

// Snapshot is the externally visible state of an account.
type Snapshot struct {
	CustomerID     string          `json:"customerId"`
	CustomerName   string          `json:"customerName"`
	AccountNumber  string          `json:"accountNumber"`
	Balance        decimal.Decimal `json:"balance"`
	DailyLimit     decimal.Decimal `json:"dailyTransactionLimit"`
	DailyConsumed  decimal.Decimal `json:"dailyTransactionAmount"`
	RemainingLimit decimal.Decimal `json:"remainingDailyLimit"`
}

func snapshotOf(a *models.Account) *Snapshot {
	return &Snapshot{
		CustomerID:     a.CustomerID,
		CustomerName:   a.CustomerName,
		AccountNumber:  a.AccountNumber,
		Balance:        a.Balance,
		DailyLimit:     a.DailyTransactionLimit,
		DailyConsumed:  a.DailyTransactionAmount,
		RemainingLimit: a.RemainingDailyLimit(),
	}
}

type Service interface {
	Open(ctx context.Context, req OpenRequest) (*Snapshot, error)
	Get(ctx context.Context, customerID string) (*Snapshot, error)
	History(ctx context.Context, customerID string, opts ...*options.LedgerOptions) ([]models.Transaction, error)
	ResetDailyUsage(ctx context.Context) (int64, error)
	// Invalidate drops cached snapshots of the given customers.
	Invalidate(ctx context.Context, customerIDs ...string) error
}

// Cache stores account snapshots between reads. Counters hold the
// per-customer generation bumped by every invalidation.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Counter(ctx context.Context, key string) (int64, error)
	GenerateKey(entityType, keyType string, value interface{}) string
}

// cachedSnapshot tags a snapshot with the generation that was current
// before the store read. An entry whose generation is behind the counter
// was read before a later invalidation and is ignored.
type cachedSnapshot struct {
	Snapshot
	Generation int64 `json:"generation"`
}

type service struct {
	repo         repositories.AccountRepository
	ledger       repositories.LedgerReader
	cache        Cache
	defaultLimit decimal.Decimal
	log          *zap.Logger
}

type Option func(*service)

// WithCache serves Get from c. Entries must be dropped with Invalidate
// whenever a balance changes.
func WithCache(c Cache) Option {
	return func(s *service) { s.cache = c }
}

// NewService creates an account service. A non-positive defaultLimit falls
// back to models.DefaultDailyTransactionLimit.
func NewService(repo repositories.AccountRepository, ledger repositories.LedgerReader, defaultLimit decimal.Decimal, log *zap.Logger, opts ...Option) Service {
	if !defaultLimit.IsPositive() {
		defaultLimit = models.DefaultDailyTransactionLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &service{repo: repo, ledger: ledger, defaultLimit: defaultLimit, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Open(ctx context.Context, req OpenRequest) (*Snapshot, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		return nil, ledgererrors.New(ledgererrors.KindValidationFailed, "customer ID is required")
	}
	if req.Balance.IsNegative() {
		return nil, ledgererrors.New(ledgererrors.KindValidationFailed, "opening balance cannot be negative")
	}
	limit := req.DailyLimit
	if limit.IsZero() {
		limit = s.defaultLimit
	}
	if !limit.IsPositive() {
		return nil, ledgererrors.New(ledgererrors.KindValidationFailed, "daily limit must be greater than zero")
	}

	acc := &models.Account{
		AccountNumber:          utils.GenerateAccountNumber(),
		CustomerID:             req.CustomerID,
		CustomerName:           req.CustomerName,
		Balance:                req.Balance,
		DailyTransactionLimit:  limit,
		DailyTransactionAmount: decimal.Zero,
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		if errors.Is(err, repositories.ErrDuplicateAccount) {
			return nil, ledgererrors.New(ledgererrors.KindValidationFailed,
				fmt.Sprintf("account already exists for user ID: %s", req.CustomerID))
		}
		return nil, ledgererrors.StoreFailure("create", err)
	}

	s.log.Info("account opened",
		zap.String("customerId", acc.CustomerID),
		zap.String("accountNumber", acc.AccountNumber))
	return snapshotOf(acc), nil
}

func (s *service) Get(ctx context.Context, customerID string) (*Snapshot, error) {
	var (
		gen     int64
		cacheOK = s.cache != nil
	)
	if cacheOK {
		var err error
		if gen, err = s.cache.Counter(ctx, s.generationKey(customerID)); err != nil {
			s.log.Warn("account cache read failed", zap.String("customerId", customerID), zap.Error(err))
			cacheOK = false
		}
	}
	if cacheOK {
		var cached cachedSnapshot
		found, err := s.cache.Get(ctx, s.cacheKey(customerID), &cached)
		switch {
		case err != nil:
			s.log.Warn("account cache read failed", zap.String("customerId", customerID), zap.Error(err))
		case found && cached.Generation == gen:
			return &cached.Snapshot, nil
		}
	}

	acc, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, s.lookupError(customerID, "find", err)
	}
	snap := snapshotOf(acc)

	if cacheOK {
		entry := cachedSnapshot{Snapshot: *snap, Generation: gen}
		if err := s.cache.Set(ctx, s.cacheKey(customerID), entry); err != nil {
			s.log.Warn("account cache write failed", zap.String("customerId", customerID), zap.Error(err))
		}
	}
	return snap, nil
}

// Invalidate bumps each customer's generation before dropping the entry, so
// a read that raced the change cannot reinstate its snapshot.
func (s *service) Invalidate(ctx context.Context, customerIDs ...string) error {
	if s.cache == nil || len(customerIDs) == 0 {
		return nil
	}
	keys := make([]string, len(customerIDs))
	for i, id := range customerIDs {
		if _, err := s.cache.Incr(ctx, s.generationKey(id)); err != nil {
			return err
		}
		keys[i] = s.cacheKey(id)
	}
	return s.cache.Delete(ctx, keys...)
}

func (s *service) cacheKey(customerID string) string {
	return s.cache.GenerateKey("account", "customer", customerID)
}

func (s *service) generationKey(customerID string) string {
	return s.cache.GenerateKey("account", "generation", customerID)
}

// History returns the customer's ledger entries, newest first.
func (s *service) History(ctx context.Context, customerID string, opts ...*options.LedgerOptions) ([]models.Transaction, error) {
	entries, err := s.ledger.ListTransactions(ctx, customerID, opts...)
	if err != nil {
		return nil, s.lookupError(customerID, "list", err)
	}
	return entries, nil
}

func (s *service) ResetDailyUsage(ctx context.Context) (int64, error) {
	n, err := s.repo.ResetDailyUsage(ctx)
	if err != nil {
		return 0, ledgererrors.StoreFailure("reset", err)
	}
	s.log.Info("daily usage reset", zap.Int64("accounts", n))
	return n, nil
}

func (s *service) lookupError(customerID, op string, err error) error {
	if errors.Is(err, repositories.ErrAccountNotFound) {
		return ledgererrors.AccountNotFound("customer", customerID)
	}
	return ledgererrors.StoreFailure(op, err)
}
