package queue

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// stubPublisher fails the first failures publishes and records the rest.
type stubPublisher struct {
	mu       sync.Mutex
	name     string
	failures int
	err      error
	calls    int
	sent     []Message
}

func (p *stubPublisher) Name() string { return p.name }

func (p *stubPublisher) Publish(_ context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		if p.err != nil {
			return p.err
		}
		return errors.New("transient failure")
	}
	p.sent = append(p.sent, msg)
	return nil
}

func (p *stubPublisher) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func nopLogger() *zap.Logger { return zap.NewNop() }
