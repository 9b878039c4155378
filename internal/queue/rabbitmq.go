package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	DefaultConfirmTimeout = 5 * time.Second
	defaultPrefetch       = 10
)

// confirmChannel is the subset of *amqp.Channel used for confirmed publishes.
type confirmChannel interface {
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// topologyChannel is the subset of *amqp.Channel used to declare queues.
type topologyChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// DeadLetterExchange is the exchange rejected messages of primary are
// routed through.
func DeadLetterExchange(primary string) string {
	return primary + ".dlx"
}

// DeclareTopology declares primary so that messages a consumer rejects are
// dead-lettered into deadLetter, which is also used directly as the
// fallback queue by publishers.
func DeclareTopology(ch topologyChannel, primary, deadLetter string) error {
	dlx := DeadLetterExchange(primary)

	if err := ch.ExchangeDeclare(dlx, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(deadLetter, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue: %w", err)
	}
	if err := ch.QueueBind(deadLetter, primary, dlx, false, nil); err != nil {
		return fmt.Errorf("bind dead-letter queue: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    dlx,
		"x-dead-letter-routing-key": primary,
	}
	if _, err := ch.QueueDeclare(primary, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	return nil
}

// RabbitMQ owns one AMQP connection and a confirm-mode channel shared by
// every publisher it hands out. Publishes are serialized so each confirm
// can be matched to its message.
type RabbitMQ struct {
	conn           *amqp.Connection
	ch             confirmChannel
	confirms       chan amqp.Confirmation
	confirmTimeout time.Duration
	log            *zap.Logger

	mu     sync.Mutex
	closed bool
}

// DialRabbitMQ connects to url, enables publisher confirms and declares the
// primary/dead-letter topology.
func DialRabbitMQ(url, primary, deadLetter string, log *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := DeclareTopology(ch, primary, deadLetter); err != nil {
		conn.Close()
		return nil, err
	}

	r, err := newRabbitMQ(ch, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	r.conn = conn
	return r, nil
}

func newRabbitMQ(ch confirmChannel, log *zap.Logger) (*RabbitMQ, error) {
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enabling publisher confirms: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RabbitMQ{
		ch:             ch,
		confirms:       ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		confirmTimeout: DefaultConfirmTimeout,
		log:            log,
	}, nil
}

// Publisher returns a Publisher for queue, routed through the default
// exchange.
func (r *RabbitMQ) Publisher(queue string) Publisher {
	return &rabbitPublisher{mq: r, queue: queue}
}

// Consumer returns a Consumer reading queue on a dedicated channel.
func (r *RabbitMQ) Consumer(queue string) Consumer {
	return &rabbitConsumer{mq: r, queue: queue, prefetch: defaultPrefetch}
}

func (r *RabbitMQ) Ping(context.Context) error {
	if r.conn == nil || r.conn.IsClosed() {
		return ErrUnavailable
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.ch.Close()
	if r.conn != nil {
		if cerr := r.conn.Close(); cerr != nil && !errors.Is(cerr, amqp.ErrClosed) {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

func (r *RabbitMQ) publish(ctx context.Context, queue string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("%w: rabbitmq connection closed", ErrUnavailable)
	}

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	pub := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     msg.ID,
		CorrelationId: msg.CorrelationID,
		Timestamp:     time.Now().UTC(),
		Headers:       headers,
		Body:          msg.Body,
	}
	if err := r.ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("publishing to %s: %w", queue, err)
	}

	timer := time.NewTimer(r.confirmTimeout)
	defer timer.Stop()

	select {
	case c, ok := <-r.confirms:
		if !ok {
			return fmt.Errorf("%w: confirm channel closed", ErrUnavailable)
		}
		if !c.Ack {
			return fmt.Errorf("%w: delivery tag %d", ErrNotConfirmed, c.DeliveryTag)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("confirmation from %s timed out", queue)
	case <-ctx.Done():
		return fmt.Errorf("waiting for confirmation: %w", ctx.Err())
	}
}

type rabbitPublisher struct {
	mq    *RabbitMQ
	queue string
}

func (p *rabbitPublisher) Name() string { return p.queue }

func (p *rabbitPublisher) Publish(ctx context.Context, msg Message) error {
	return p.mq.publish(ctx, p.queue, msg)
}

type rabbitConsumer struct {
	mq       *RabbitMQ
	queue    string
	prefetch int
}

func (c *rabbitConsumer) Consume(ctx context.Context, h Handler) error {
	if c.mq.conn == nil {
		return ErrUnavailable
	}
	ch, err := c.mq.conn.Channel()
	if err != nil {
		return fmt.Errorf("opening consumer channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("setting prefetch: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consuming %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: delivery channel for %s closed", ErrUnavailable, c.queue)
			}
			settle(ctx, d, h, c.mq.log)
		}
	}
}

// acknowledger is the settlement half of amqp.Delivery.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, d amqp.Delivery, h Handler, log *zap.Logger) {
	settleWith(ctx, d, d, h, log)
}

func settleWith(ctx context.Context, ack acknowledger, d amqp.Delivery, h Handler, log *zap.Logger) {
	msg := Message{
		ID:            d.MessageId,
		CorrelationID: d.CorrelationId,
		Headers:       map[string]string{},
		Body:          d.Body,
	}
	for k, v := range d.Headers {
		if s, ok := v.(string); ok {
			msg.Headers[k] = s
		}
	}

	var err error
	switch herr := h(ctx, msg); {
	case herr == nil:
		err = ack.Ack(false)
	case errors.Is(herr, ErrDeadLetter):
		err = ack.Nack(false, false)
	default:
		err = ack.Nack(false, true)
	}
	if err != nil {
		log.Error("failed to settle delivery", zap.String("message_id", d.MessageId), zap.Error(err))
	}
}
