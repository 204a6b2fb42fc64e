package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"chain-analytics-proxy/internal/infrastructure/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheWithClient(client, "test:"), mr
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, ok, err := c.Get(ctx, "tokens")
	require.NoError(t, err)
	assert.False(t, ok)

	payload := []byte(`[{"ranking":1,"token_symbol":"USDC"}]`)
	require.NoError(t, c.Set(ctx, "tokens", payload, 5*time.Minute))

	assert.True(t, mr.Exists("test:tokens"))

	got, ok, err := c.Get(ctx, "tokens")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload, got)

	assert.Equal(t, 5*time.Minute, mr.TTL("test:tokens"))
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "pools", []byte("[]"), time.Minute))
	mr.FastForward(61 * time.Second)

	_, ok, err := c.Get(ctx, "pools")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheDeleteMulti(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, c.DeleteMulti(ctx, "a", "b"))
	require.NoError(t, c.DeleteMulti(ctx))

	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:b"))
}

func TestCacheGetErrorWhenServerDown(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.Close()

	_, ok, err := c.Get(ctx, "tokens")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisServiceLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.RedisConfig{
		Host:        mr.Host(),
		Port:        mustPort(t, mr),
		Prefix:      "svc:",
		PoolSize:    2,
		DialTimeout: time.Second,
	}

	rs := NewRedisService(cfg)
	assert.Equal(t, StateStopped, rs.State())
	assert.Nil(t, rs.GetCache())

	require.NoError(t, rs.Start(context.Background()))
	assert.True(t, rs.IsRunning())
	assert.True(t, rs.HealthCheck(context.Background()))
	assert.Error(t, rs.Start(context.Background()))

	cache := rs.GetCache()
	require.NotNil(t, cache)
	require.NoError(t, cache.Set(context.Background(), "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("svc:k"))

	stats := rs.GetStats()
	assert.Equal(t, true, stats["connected"])

	require.NoError(t, rs.Stop())
	assert.False(t, rs.HealthCheck(context.Background()))
	assert.Error(t, rs.Stop())
}

func TestRedisServiceStartFails(t *testing.T) {
	mr := miniredis.RunT(t)
	port := mustPort(t, mr)
	mr.Close()

	rs := NewRedisService(config.RedisConfig{Host: "127.0.0.1", Port: port, DialTimeout: 200 * time.Millisecond})
	err := rs.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, rs.State())
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
