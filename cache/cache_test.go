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

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, OrderCountKey(4), int64(12), time.Hour))

	var got int64
	found, err := c.Get(ctx, OrderCountKey(4), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(12), got)
	assert.Equal(t, time.Hour, mr.TTL("orders:total:4"))
}

func TestRedisCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	var got string
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheDelete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Delete(ctx, "a", "missing"))
	require.NoError(t, c.Delete(ctx))

	assert.False(t, mr.Exists("a"))
}

func TestRedisCacheDecodeError(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("bad", "not-json"))

	var got map[string]int
	_, err := c.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	day := time.Date(2024, time.March, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "menu:3:2024-03-09", MenuKey(3, day))
	assert.Equal(t, "orders:total:3", OrderCountKey(3))
}
