package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ledgerpay/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// HeaderFailureReason carries why a message was dead-lettered.
	HeaderFailureReason = "x-failure-reason"
	headerDeliveries    = "x-deliveries"

	defaultPollTimeout   = time.Second
	defaultMaxDeliveries = 5
)

// NewRedisClient builds the go-redis client used by RedisQueue. Transient
// command failures are retried by the client up to cfg.RedisRetries times.
func NewRedisClient(cfg config.QueueConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:                  cfg.RedisAddr,
		Password:              cfg.RedisPassword,
		DB:                    cfg.RedisDB,
		MaxRetries:            cfg.RedisRetries,
		ContextTimeoutEnabled: true,
	})
}

// RedisQueue is a list-backed queue. Producers LPUSH, consumers BRPOP, so
// delivery order is FIFO.
type RedisQueue struct {
	client        redis.UniversalClient
	name          string
	deadLetter    string
	pollTimeout   time.Duration
	maxDeliveries int
	log           *zap.Logger
}

var (
	_ Publisher = (*RedisQueue)(nil)
	_ Consumer  = (*RedisQueue)(nil)
)

type RedisOption func(*RedisQueue)

// WithDeadLetter names the list that receives messages a consumer rejects.
func WithDeadLetter(name string) RedisOption {
	return func(q *RedisQueue) { q.deadLetter = name }
}

func WithPollTimeout(d time.Duration) RedisOption {
	return func(q *RedisQueue) {
		if d > 0 {
			q.pollTimeout = d
		}
	}
}

// WithMaxDeliveries bounds redeliveries before a message is dead-lettered.
func WithMaxDeliveries(n int) RedisOption {
	return func(q *RedisQueue) {
		if n > 0 {
			q.maxDeliveries = n
		}
	}
}

func WithRedisLogger(l *zap.Logger) RedisOption {
	return func(q *RedisQueue) {
		if l != nil {
			q.log = l
		}
	}
}

func NewRedisQueue(client redis.UniversalClient, name string, opts ...RedisOption) *RedisQueue {
	q := &RedisQueue{
		client:        client,
		name:          name,
		pollTimeout:   defaultPollTimeout,
		maxDeliveries: defaultMaxDeliveries,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *RedisQueue) Name() string { return q.name }

func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	return q.push(ctx, q.name, msg)
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Consume blocks until ctx is done, delivering messages to h one at a time.
func (q *RedisQueue) Consume(ctx context.Context, h Handler) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		res, err := q.client.BRPop(ctx, q.pollTimeout, q.name).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			q.log.Error("failed to pop message", zap.String("queue", q.name), zap.Error(err))
			if sleepWithContext(ctx, q.pollTimeout) != nil {
				return nil
			}
			continue
		}

		// res is [key, value]
		q.deliver(ctx, []byte(res[1]), h)
	}
}

func (q *RedisQueue) deliver(ctx context.Context, raw []byte, h Handler) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		q.deadLetterRaw(ctx, raw, err)
		return
	}

	err := h(ctx, msg)
	if err == nil {
		return
	}

	if msg.Headers == nil {
		msg.Headers = map[string]string{}
	}
	deliveries, _ := strconv.Atoi(msg.Headers[headerDeliveries])
	deliveries++

	if errors.Is(err, ErrDeadLetter) || deliveries >= q.maxDeliveries {
		msg.Headers[HeaderFailureReason] = err.Error()
		q.sendToDeadLetter(ctx, msg)
		return
	}

	msg.Headers[headerDeliveries] = strconv.Itoa(deliveries)
	if perr := q.push(ctx, q.name, msg); perr != nil {
		q.log.Error("failed to requeue message",
			zap.String("queue", q.name),
			zap.String("message_id", msg.ID),
			zap.Error(perr),
		)
	}
}

func (q *RedisQueue) deadLetterRaw(ctx context.Context, raw []byte, cause error) {
	q.sendToDeadLetter(ctx, Message{
		Headers: map[string]string{HeaderFailureReason: "undecodable envelope: " + cause.Error()},
		Body:    raw,
	})
}

func (q *RedisQueue) sendToDeadLetter(ctx context.Context, msg Message) {
	if q.deadLetter == "" {
		q.log.Error("dropping rejected message, no dead-letter queue configured",
			zap.String("queue", q.name),
			zap.String("message_id", msg.ID),
			zap.String("reason", msg.Headers[HeaderFailureReason]),
		)
		return
	}
	if err := q.push(ctx, q.deadLetter, msg); err != nil {
		q.log.Error("failed to dead-letter message",
			zap.String("queue", q.deadLetter),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
}

func (q *RedisQueue) push(ctx context.Context, list string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if err := q.client.LPush(ctx, list, data).Err(); err != nil {
		return fmt.Errorf("failed to push to %s: %w", list, err)
	}
	return nil
}
