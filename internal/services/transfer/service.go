package transfer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ledgererrors "ledgerpay/internal/errors"
	"ledgerpay/internal/models"
	"ledgerpay/internal/repositories"
	"ledgerpay/internal/utils"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// service implements the transfer Service interface.
type service struct {
	repo     repositories.AccountRepository
	notifier Notifier
	newID    func() string
	now      func() time.Time
	log      *zap.Logger
	tracer   trace.Tracer
}

type Option func(*service)

// WithIDGenerator replaces utils.GenerateTransactionID.
func WithIDGenerator(fn func() string) Option {
	return func(s *service) { s.newID = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewService creates a new transfer service instance. notifier may be nil.
func NewService(repo repositories.AccountRepository, notifier Notifier, opts ...Option) Service {
	s := &service{
		repo:     repo,
		notifier: notifier,
		newID:    utils.GenerateTransactionID,
		now:      func() time.Time { return time.Now().UTC() },
		log:      zap.NewNop(),
		tracer:   noop.NewTracerProvider().Tracer("transfer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transfer moves funds between two accounts.
func (s *service) Transfer(ctx context.Context, req Request) (string, error) {
	ctx, span := s.tracer.Start(ctx, "transfer.execute", trace.WithAttributes(
		attribute.String("transfer.from", req.FromCustomerID),
		attribute.String("transfer.to", req.ToCustomerID),
		attribute.String("transfer.amount", req.Amount.String()),
	))
	defer span.End()

	txID, err := s.transfer(ctx, req)
	if err != nil {
		span.SetAttributes(attribute.String("transfer.rejection", ledgererrors.KindOf(err).String()))
		span.SetStatus(codes.Error, "transfer failed")
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("transaction.id", txID))
	return txID, nil
}

func (s *service) transfer(ctx context.Context, req Request) (string, error) {
	var (
		txID              string
		senderSnapshot    *models.Account
		recipientSnapshot *models.Account
	)

	err := s.repo.ExecuteInTransaction(ctx, func(repo repositories.AccountRepository) error {
		sender, recipient, err := s.loadAccounts(ctx, repo, req)
		if err != nil {
			return err
		}
		if err := validate(sender, recipient, req); err != nil {
			return err
		}

		txID = s.newID()
		s.apply(txID, sender, recipient, req)

		if err := repo.Save(ctx, sender); err != nil {
			return ledgererrors.StoreFailure("save sender", err)
		}
		if err := repo.Save(ctx, recipient); err != nil {
			return ledgererrors.StoreFailure("save recipient", err)
		}

		senderSnapshot = sender.Clone()
		recipientSnapshot = recipient.Clone()
		return nil
	})
	if err != nil {
		var de *ledgererrors.DomainError
		if !errors.As(err, &de) {
			err = ledgererrors.StoreFailure("commit", err)
		}
		s.log.Warn("transfer rejected",
			zap.String("from", req.FromCustomerID),
			zap.String("to", req.ToCustomerID),
			zap.String("amount", req.Amount.String()),
			zap.String("reason", ledgererrors.KindOf(err).String()),
			zap.Error(err),
		)
		return "", err
	}

	s.log.Info("transfer completed",
		zap.String("transaction_id", txID),
		zap.String("from", req.FromCustomerID),
		zap.String("to", req.ToCustomerID),
		zap.String("amount", req.Amount.String()),
	)
	s.notify(ctx, txID, senderSnapshot, recipientSnapshot, req.Amount)
	return txID, nil
}

// loadAccounts reads both accounts in ascending customer-ID order so that
// concurrent transfers over the same pair take row locks in the same order.
// A missing sender is always reported before a missing recipient.
func (s *service) loadAccounts(ctx context.Context, repo repositories.AccountRepository, req Request) (*models.Account, *models.Account, error) {
	ids := []string{req.FromCustomerID, req.ToCustomerID}
	sort.Strings(ids)

	loaded := make(map[string]*models.Account, 2)
	missing := make(map[string]bool, 2)
	for _, id := range ids {
		if _, seen := loaded[id]; seen || missing[id] {
			continue
		}
		a, err := repo.FindByCustomerID(ctx, id)
		switch {
		case errors.Is(err, repositories.ErrAccountNotFound):
			missing[id] = true
		case err != nil:
			return nil, nil, ledgererrors.StoreFailure("load account", err)
		default:
			loaded[id] = a
		}
	}

	if missing[req.FromCustomerID] {
		return nil, nil, ledgererrors.AccountNotFound("sender", req.FromCustomerID)
	}
	if missing[req.ToCustomerID] {
		return nil, nil, ledgererrors.AccountNotFound("recipient", req.ToCustomerID)
	}
	return loaded[req.FromCustomerID], loaded[req.ToCustomerID], nil
}

func validate(sender, recipient *models.Account, req Request) error {
	if sender.CustomerID == recipient.CustomerID {
		return ledgererrors.ErrSelfTransfer
	}
	if !req.Amount.IsPositive() {
		return ledgererrors.ErrInvalidAmount
	}
	if !models.ValidAmount(req.Amount) {
		return ledgererrors.ErrAmountOutOfRange
	}
	if sender.Balance.LessThan(req.Amount) {
		return ledgererrors.New(ledgererrors.KindInsufficientBalance,
			fmt.Sprintf("insufficient balance: available %s, requested %s",
				sender.Balance.StringFixed(2), req.Amount.StringFixed(2)))
	}
	if sender.DailyTransactionAmount.Add(req.Amount).GreaterThan(sender.DailyTransactionLimit) {
		return ledgererrors.DailyLimitExceeded(sender.DailyTransactionLimit, sender.DailyTransactionAmount)
	}
	return nil
}

func (s *service) apply(txID string, sender, recipient *models.Account, req Request) {
	now := s.now()

	sender.Balance = sender.Balance.Sub(req.Amount)
	sender.DailyTransactionAmount = sender.DailyTransactionAmount.Add(req.Amount)
	sender.AddTransaction(models.Transaction{
		TransactionID: txID,
		Type:          models.TransactionTypeTransferOut,
		Amount:        req.Amount.Neg(),
		Description:   describe(fmt.Sprintf("Transfer to %s (%s)", recipient.CustomerName, recipient.CustomerID), req.Description),
		Timestamp:     now,
		BalanceAfter:  sender.Balance,
	})

	recipient.Balance = recipient.Balance.Add(req.Amount)
	recipient.AddTransaction(models.Transaction{
		TransactionID: txID,
		Type:          models.TransactionTypeTransferIn,
		Amount:        req.Amount,
		Description:   describe(fmt.Sprintf("Transfer from %s (%s)", sender.CustomerName, sender.CustomerID), req.Description),
		Timestamp:     now,
		BalanceAfter:  recipient.Balance,
	})
}

func describe(base, note string) string {
	if note == "" {
		return base
	}
	return base + ": " + note
}

func (s *service) notify(ctx context.Context, txID string, sender, recipient *models.Account, amount decimal.Decimal) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("notification dispatch panicked",
				zap.String("transaction_id", txID),
				zap.Any("panic", r),
			)
		}
	}()
	s.notifier.Dispatch(ctx, txID, sender, recipient, amount)
}
