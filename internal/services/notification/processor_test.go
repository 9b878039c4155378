package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ledgerpay/internal/config"
	"ledgerpay/internal/models"
	"ledgerpay/internal/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []models.TransactionNotification
	fail error
}

func (s *recordingSink) Deliver(_ context.Context, n models.TransactionNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.got = append(s.got, n)
	return nil
}

func (s *recordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestProcessor_Handle(t *testing.T) {
	valid, err := json.Marshal(models.TransactionNotification{TransactionID: "TX1", UserID: "C1"})
	require.NoError(t, err)

	tests := []struct {
		name         string
		body         []byte
		sinkErr      error
		wantErr      bool
		wantDeadLtr  bool
		wantDelivers int
	}{
		{name: "delivers valid payload", body: valid, wantDelivers: 1},
		{name: "dead-letters undecodable payload", body: []byte("{not json"), wantErr: true, wantDeadLtr: true},
		{name: "sink failure is retried", body: valid, sinkErr: errors.New("gateway down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{fail: tt.sinkErr}
			p := NewProcessor(nil, sink, nil)

			err := p.Handle(context.Background(), queue.Message{ID: "m1", Body: tt.body})

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantDeadLtr, errors.Is(err, queue.ErrDeadLetter))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantDelivers, sink.Len())
		})
	}
}

func TestProcessor_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := queue.NewRedisClient(config.QueueConfig{RedisAddr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	primary := queue.NewRedisQueue(client, "transaction-notifications", queue.WithDeadLetter("failed-notifications"))
	fallback := queue.NewRedisQueue(client, "failed-notifications")

	sink := &recordingSink{}
	p := NewProcessor(primary, sink, nil)

	require.NoError(t, p.Start(context.Background()))
	assert.ErrorIs(t, p.Start(context.Background()), ErrProcessorRunning)

	d := NewDispatcher(primary, fallback, nil)
	sender, recipient := testAccounts()
	d.Dispatch(context.Background(), "TX1", sender, recipient, decimalOf(t, "100"))
	d.Wait()

	require.NoError(t, primary.Publish(context.Background(), queue.Message{ID: "bad", Body: []byte("garbage")}))

	require.Eventually(t, func() bool {
		return sink.Len() == 2 && mr.Exists("failed-notifications")
	}, 5*time.Second, 10*time.Millisecond)

	p.Stop()
	p.Stop()

	items, err := mr.List("failed-notifications")
	require.NoError(t, err)
	require.Len(t, items, 1)
	var dead queue.Message
	require.NoError(t, json.Unmarshal([]byte(items[0]), &dead))
	assert.Equal(t, "bad", dead.ID)
	assert.Contains(t, dead.Headers[queue.HeaderFailureReason], "undecodable notification")
}
