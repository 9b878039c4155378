package queue

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Retrying retries transient publish failures with exponential backoff and
// full jitter. Each attempt gets its own timeout. ErrUnavailable is never
// retried.
type Retrying struct {
	next     Publisher
	attempts int
	base     time.Duration
	timeout  time.Duration
}

var _ Publisher = (*Retrying)(nil)

// NewRetrying wraps next. attempts < 1 is treated as a single attempt and a
// zero timeout disables the per-attempt deadline.
func NewRetrying(next Publisher, attempts int, base, timeout time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{next: next, attempts: attempts, base: base, timeout: timeout}
}

func (r *Retrying) Name() string { return r.next.Name() }

func (r *Retrying) Publish(ctx context.Context, msg Message) error {
	var err error
	for attempt := 0; attempt < r.attempts; attempt++ {
		err = r.publishOnce(ctx, msg)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrUnavailable) || ctx.Err() != nil {
			break
		}
		if attempt < r.attempts-1 {
			if serr := sleepWithContext(ctx, fullJitter(exponential(r.base, attempt))); serr != nil {
				break
			}
		}
	}
	return fmt.Errorf("publish to %s failed after retries: %w", r.Name(), err)
}

func (r *Retrying) publishOnce(ctx context.Context, msg Message) error {
	if r.timeout <= 0 {
		return r.next.Publish(ctx, msg)
	}
	actx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.Publish(actx, msg)
}
