package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubPublisher{name: "primary", failures: 100}
	b := NewBreaker(stub, 2, time.Hour, nil)
	ctx := context.Background()

	require.Error(t, b.Publish(ctx, Message{}))
	require.Error(t, b.Publish(ctx, Message{}))
	assert.Equal(t, "open", b.State())

	err := b.Publish(ctx, Message{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, stub.Calls(), "open breaker must not reach the transport")
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	stub := &stubPublisher{name: "primary", failures: 1}
	b := NewBreaker(stub, 1, 20*time.Millisecond, nil)
	ctx := context.Background()

	require.Error(t, b.Publish(ctx, Message{}))
	assert.Equal(t, "open", b.State())

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, b.Publish(ctx, Message{ID: "after"}))
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, "primary", b.Name())
}
