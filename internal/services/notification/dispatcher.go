// Package notification turns committed transfers into queued notifications
// and consumes them on the other side.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	ledgererrors "ledgerpay/internal/errors"
	"ledgerpay/internal/models"
	"ledgerpay/internal/queue"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// HeaderFailureReason is set on messages moved to the fallback queue.
const HeaderFailureReason = "failureReason"

// State is the lifecycle position of a single notification.
type State string

const (
	StateBuilt              State = "BUILT"
	StateSubmittingPrimary  State = "SUBMITTING_PRIMARY"
	StateSubmittingFallback State = "SUBMITTING_FALLBACK"
	StateDelivered          State = "DELIVERED"
	StateLost               State = "LOST"
)

// Outcome is the terminal result of Send. Channel names the queue that
// accepted the message, if any. Err holds the last failure observed.
type Outcome struct {
	State   State
	Channel string
	Err     error
}

// Dispatcher publishes notifications to the primary queue and, when that
// fails, to the fallback queue. It never returns errors to the transfer path.
type Dispatcher struct {
	primary   queue.Publisher
	fallback  queue.Publisher
	formatter *Formatter
	marshal   func(v interface{}) ([]byte, error)
	now       func() time.Time
	log       *zap.Logger
	tracer    trace.Tracer
	wg        sync.WaitGroup
}

type Option func(*Dispatcher)

// WithMarshal replaces the JSON encoder.
func WithMarshal(fn func(v interface{}) ([]byte, error)) Option {
	return func(d *Dispatcher) { d.marshal = fn }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

func NewDispatcher(primary, fallback queue.Publisher, formatter *Formatter, opts ...Option) *Dispatcher {
	if formatter == nil {
		formatter = NewFormatter(nil)
	}
	d := &Dispatcher{
		primary:   primary,
		fallback:  fallback,
		formatter: formatter,
		marshal:   json.Marshal,
		now:       time.Now,
		log:       zap.NewNop(),
		tracer:    noop.NewTracerProvider().Tracer("notification"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch builds the sender and recipient notifications for a committed
// transfer and sends each on its own goroutine. It returns immediately.
// sender and recipient are post-transfer snapshots.
func (d *Dispatcher) Dispatch(ctx context.Context, txID string, sender, recipient *models.Account, amount decimal.Decimal) {
	ctx = context.WithoutCancel(ctx)
	out, in := d.Build(txID, sender, recipient, amount)

	d.log.Info("dispatching transfer notifications", zap.String("transaction_id", txID))
	for _, n := range []models.TransactionNotification{out, in} {
		d.wg.Add(1)
		go func(n models.TransactionNotification) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("notification send panicked",
						zap.String("transaction_id", n.TransactionID),
						zap.String("user_id", n.UserID),
						zap.Any("panic", r),
					)
				}
			}()
			d.Send(ctx, n)
		}(n)
	}
}

// Wait blocks until every notification started by Dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Build returns the TRANSFER_OUT notification for the sender and the
// TRANSFER_IN notification for the recipient.
func (d *Dispatcher) Build(txID string, sender, recipient *models.Account, amount decimal.Decimal) (models.TransactionNotification, models.TransactionNotification) {
	now := d.now()

	out := models.TransactionNotification{
		TransactionID:   txID,
		UserID:          sender.CustomerID,
		Message:         d.formatter.FormatSenderMessage(txID, amount, recipient.CustomerName, sender.Balance, sender.RemainingDailyLimit(), now),
		Timestamp:       now,
		TransactionType: models.TransactionTypeTransferOut,
		Amount:          amount,
		RecipientName:   recipient.CustomerName,
		SenderName:      sender.CustomerName,
	}
	in := models.TransactionNotification{
		TransactionID:   txID,
		UserID:          recipient.CustomerID,
		Message:         d.formatter.FormatRecipientMessage(txID, amount, sender.CustomerName, recipient.Balance, now),
		Timestamp:       now,
		TransactionType: models.TransactionTypeTransferIn,
		Amount:          amount,
		RecipientName:   recipient.CustomerName,
		SenderName:      sender.CustomerName,
	}
	return out, in
}

// Send delivers one notification, falling back once when the primary queue
// fails. It always returns; loss is reported through the log.
func (d *Dispatcher) Send(ctx context.Context, n models.TransactionNotification) Outcome {
	ctx, span := d.tracer.Start(ctx, "notification.send",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("transaction.id", n.TransactionID),
			attribute.String("notification.user_id", n.UserID),
			attribute.String("notification.type", string(n.TransactionType)),
		))
	defer span.End()

	out := d.send(ctx, n)
	span.SetAttributes(
		attribute.String("notification.state", string(out.State)),
		attribute.String("notification.channel", out.Channel),
	)
	switch {
	case out.State != StateDelivered:
		span.SetStatus(codes.Error, "notification not delivered")
		span.RecordError(out.Err)
	case out.Err != nil:
		span.AddEvent("primary queue failed", trace.WithAttributes(attribute.String("failure_reason", out.Err.Error())))
	}
	return out
}

func (d *Dispatcher) send(ctx context.Context, n models.TransactionNotification) Outcome {
	fields := []zap.Field{
		zap.String("transaction_id", n.TransactionID),
		zap.String("user_id", n.UserID),
		zap.String("transaction_type", string(n.TransactionType)),
	}

	body, err := d.marshal(n)
	if err != nil {
		serr := ledgererrors.SerializationError(n.TransactionID, err)
		d.log.Error("failed to serialize notification", append(fields, zap.Any("notification", n), zap.Error(serr))...)
		return Outcome{State: StateBuilt, Err: serr}
	}

	msg := queue.Message{
		ID:            uuid.NewString(),
		CorrelationID: n.TransactionID,
		Body:          body,
	}

	primaryErr := d.primary.Publish(ctx, msg)
	if primaryErr == nil {
		d.log.Info("sent notification",
			append(fields, zap.String("queue", d.primary.Name()), zap.String("message_id", msg.ID))...)
		return Outcome{State: StateDelivered, Channel: d.primary.Name()}
	}

	d.log.Error("failed to send notification to primary queue",
		append(fields, zap.String("queue", d.primary.Name()), zap.Any("notification", n), zap.Error(primaryErr))...)

	n.FailureReason = primaryErr.Error()
	fallbackErr := d.sendFallback(ctx, msg, n)
	if fallbackErr == nil {
		d.log.Info("moved failed notification to fallback queue",
			append(fields, zap.String("queue", d.fallback.Name()))...)
		return Outcome{State: StateDelivered, Channel: d.fallback.Name(), Err: primaryErr}
	}

	d.log.Error("notification lost",
		append(fields,
			zap.String("severity", "CRITICAL"),
			zap.Any("notification", n),
			zap.NamedError("primary_error", primaryErr),
			zap.Error(fallbackErr),
		)...)
	return Outcome{State: StateLost, Err: fallbackErr}
}

func (d *Dispatcher) sendFallback(ctx context.Context, msg queue.Message, n models.TransactionNotification) error {
	if d.fallback == nil {
		return errors.New("no fallback queue configured")
	}
	body, err := d.marshal(n)
	if err != nil {
		return ledgererrors.SerializationError(n.TransactionID, err)
	}
	msg.Body = body
	msg.Headers = map[string]string{HeaderFailureReason: n.FailureReason}
	return d.fallback.Publish(ctx, msg)
}
