// Package queue carries notification payloads between the dispatcher and
// the processor. Redis lists are the default transport; RabbitMQ with
// publisher confirms is the alternative.
package queue

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when a channel rejects work without
	// attempting delivery (open breaker, closed connection).
	ErrUnavailable = errors.New("queue unavailable")

	// ErrDeadLetter marks a handler error that must not be redelivered.
	ErrDeadLetter = errors.New("dead letter")

	// ErrNotConfirmed is returned when the broker nacks a publish.
	ErrNotConfirmed = errors.New("publish not confirmed by broker")
)

// Message is a transport-neutral queue message.
type Message struct {
	ID            string            `json:"id"`
	CorrelationID string            `json:"correlationId"`
	Headers       map[string]string `json:"headers,omitempty"`
	Body          []byte            `json:"body"`
}

// Publisher enqueues messages on a single named queue.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Name() string
}

// Handler processes one delivered message. Returning nil acknowledges it;
// an error wrapping ErrDeadLetter routes it to the dead-letter queue; any
// other error requeues it.
type Handler func(ctx context.Context, msg Message) error

// Consumer delivers messages from a queue to a Handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, h Handler) error
}

// DeadLetter wraps err so consumers route the message to the dead-letter
// queue instead of redelivering it.
func DeadLetter(err error) error {
	return &deadLetterError{err: err}
}

type deadLetterError struct{ err error }

func (e *deadLetterError) Error() string { return "dead letter: " + e.err.Error() }

func (e *deadLetterError) Unwrap() []error { return []error{ErrDeadLetter, e.err} }
