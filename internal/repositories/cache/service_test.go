package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheService(client, time.Minute), mr
}

func TestCacheService_RoundTripAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := c.GenerateKey("account", "customer", "C1")
	assert.Equal(t, "account:customer:C1", key)

	var got entry
	found, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, key, entry{Name: "Ada", Balance: "10.00"}))
	found, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry{Name: "Ada", Balance: "10.00"}, got)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheService_DeleteAndCorruptValues(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", entry{Name: "A"}))
	require.NoError(t, c.Set(ctx, "b", entry{Name: "B"}))
	require.NoError(t, c.Delete(ctx, "a", "b"))
	require.NoError(t, c.Delete(ctx))
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))

	require.NoError(t, mr.Set("bad", "{not json"))
	var got entry
	_, err := c.Get(ctx, "bad", &got)
	assert.Error(t, err)

	require.NoError(t, c.Ping(ctx))

	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer down.Close()
	_, err = NewCacheService(down, time.Minute).Get(ctx, "a", &got)
	assert.Error(t, err)
}

func TestCacheService_Counters(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := c.GenerateKey("account", "generation", "C1")

	n, err := c.Counter(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := int64(1); want <= 2; want++ {
		n, err = c.Incr(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err = c.Counter(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
