package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Breaker stops publishing to a channel after repeated failures so callers
// fall back immediately instead of waiting on a dead transport.
type Breaker struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker
}

var _ Publisher = (*Breaker)(nil)

// NewBreaker opens after maxFailures consecutive failures and probes again
// after openTimeout.
func NewBreaker(next Publisher, maxFailures uint32, openTimeout time.Duration, log *zap.Logger) *Breaker {
	if maxFailures == 0 {
		maxFailures = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	settings := gobreaker.Settings{
		Name:        "queue-" + next.Name(),
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("queue channel state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Name() string { return b.next.Name() }

// State reports the breaker state ("closed", "open" or "half-open").
func (b *Breaker) State() string { return b.cb.State().String() }

func (b *Breaker) Publish(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Publish(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, b.Name(), err)
	}
	return err
}
