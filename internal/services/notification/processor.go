package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"ledgerpay/internal/models"
	"ledgerpay/internal/queue"

	"go.uber.org/zap"
)

var ErrProcessorRunning = errors.New("notification processor already running")

// Sink is the final delivery step for a consumed notification, e.g. an SMS
// gateway.
type Sink interface {
	Deliver(ctx context.Context, n models.TransactionNotification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n models.TransactionNotification) error

func (f SinkFunc) Deliver(ctx context.Context, n models.TransactionNotification) error {
	return f(ctx, n)
}

// LogSink writes each notification to the log.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Deliver(_ context.Context, n models.TransactionNotification) error {
	s.Log.Info("new notification",
		zap.String("transaction_id", n.TransactionID),
		zap.String("user_id", n.UserID),
		zap.String("transaction_type", string(n.TransactionType)),
		zap.String("message", n.Message),
	)
	return nil
}

// Processor consumes the primary notification queue and hands each payload
// to a Sink. Undecodable messages are dead-lettered; sink failures are
// redelivered by the transport.
type Processor struct {
	consumer queue.Consumer
	sink     Sink
	log      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewProcessor(consumer queue.Consumer, sink Sink, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	if sink == nil {
		sink = LogSink{Log: log}
	}
	return &Processor{consumer: consumer, sink: sink, log: log}
}

// Start begins consuming in the background.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrProcessorRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go func() {
		defer close(done)
		p.log.Info("notification processor started")
		if err := p.consumer.Consume(ctx, p.Handle); err != nil {
			p.log.Error("notification processor stopped with error", zap.Error(err))
			return
		}
		p.log.Info("notification processor stopped")
	}()
	return nil
}

// Stop cancels consumption and waits for the in-flight message to settle.
// It is safe to call on a stopped processor.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Handle decodes and delivers a single message.
func (p *Processor) Handle(ctx context.Context, msg queue.Message) error {
	var n models.TransactionNotification
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		p.log.Error("failed to decode notification",
			zap.String("message_id", msg.ID),
			zap.String("correlation_id", msg.CorrelationID),
			zap.Error(err),
		)
		return queue.DeadLetter(fmt.Errorf("undecodable notification: %w", err))
	}

	if err := p.sink.Deliver(ctx, n); err != nil {
		p.log.Warn("failed to deliver notification, will retry",
			zap.String("transaction_id", n.TransactionID),
			zap.String("user_id", n.UserID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
