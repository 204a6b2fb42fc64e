package bootstrap

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"chain-analytics-proxy/internal/infrastructure/cache"
	"chain-analytics-proxy/internal/infrastructure/config"
	"chain-analytics-proxy/internal/stats"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeUpstream(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token/metrics":
			w.Write([]byte(`{"data":[{"token_symbol":"USDC","blockchain":"ethereum"}]}`))
		case "/defi/pool/metadata":
			w.Write([]byte(`{"data":[{"token0_symbol":"WETH"}]}`))
		default:
			w.Write([]byte(`{"data":[]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(upstreamURL string) *config.Config {
	return &config.Config{
		Version: "test",
		Port:    0,
		Upstream: config.UpstreamConfig{
			BaseURL: upstreamURL,
			ApiKey:  "key",
			Timeout: 5 * time.Second,
		},
		Cache:        config.CacheConfig{Backend: config.CacheBackendMemory, TTL: time.Minute},
		TokenTargets: "ethereum:0x1,polygon:0x2",
		PoolTargets:  "ethereum:0xpair",
		WalletChains: []string{"ethereum"},
		LogLevel:     "error",
	}
}

func startApp(t *testing.T, app *Application) (string, context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, app.IsRunning, 2*time.Second, 10*time.Millisecond)

	_, port, err := net.SplitHostPort(app.Addr())
	require.NoError(t, err)
	return "http://127.0.0.1:" + port, cancel, done
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestBuildRequiresConfig(t *testing.T) {
	_, err := NewAppBuilder().Build()
	assert.Error(t, err)
}

func TestRunServesAndShutsDown(t *testing.T) {
	var calls atomic.Int32
	upstream := fakeUpstream(t, &calls)

	collector := stats.NewCollector()
	app, err := NewAppBuilder().
		WithConfig(testConfig(upstream.URL)).
		WithStats(collector).
		WithShutdownTimeout(time.Second).
		Build()
	require.NoError(t, err)

	base, cancel, done := startApp(t, app)

	resp, body := get(t, base+"/Token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Contains(t, body, `"blockchain":"Ethereum"`)
	assert.EqualValues(t, 2, calls.Load())

	resp, _ = get(t, base+"/Token")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.EqualValues(t, 2, calls.Load())

	resp, body = get(t, base+"/api/wallet-balance/0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"ETH"`)

	resp, body = get(t, base+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"cache":"memory"`)

	status := app.Status()
	assert.Equal(t, true, status["running"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("application did not stop")
	}
	assert.False(t, app.IsRunning())

	snap := collector.Snapshot()
	assert.EqualValues(t, 1, snap.CacheHits)
	assert.EqualValues(t, 1, snap.WalletMocks)
}

func TestRunWithRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	var calls atomic.Int32
	cfg := testConfig(fakeUpstream(t, &calls).URL)
	cfg.Cache.Backend = config.CacheBackendRedis
	cfg.Redis = config.RedisConfig{Host: host, Prefix: "test:", DialTimeout: time.Second}
	cfg.Redis.Port = mustAtoi(t, port)

	app, err := NewAppBuilder().WithConfig(cfg).Build()
	require.NoError(t, err)

	base, cancel, done := startApp(t, app)

	resp, _ := get(t, base+"/pool")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, mr.Exists("test:pools"))

	resp, body := get(t, base+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"redis":true`)
	assert.Contains(t, app.Status(), "redis")

	cancel()
	require.NoError(t, <-done)
}

func TestRunFailsWhenRedisIsDown(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Cache.Backend = config.CacheBackendRedis
	cfg.Redis = config.RedisConfig{Host: "127.0.0.1", Port: 1, DialTimeout: 100 * time.Millisecond}

	app, err := NewAppBuilder().WithConfig(cfg).Build()
	require.NoError(t, err)

	err = app.Run(context.Background())
	assert.Error(t, err)
	assert.False(t, app.IsRunning())
}

func TestRunRetriesAfterPortInUse(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(busy.Addr().String())
	require.NoError(t, err)

	var calls atomic.Int32
	cfg := testConfig(fakeUpstream(t, &calls).URL)
	cfg.Port = mustAtoi(t, port)

	app, err := NewAppBuilder().WithConfig(cfg).WithShutdownTimeout(time.Second).Build()
	require.NoError(t, err)

	err = app.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, syscall.EADDRINUSE), err.Error())
	assert.False(t, app.IsRunning())
	assert.False(t, app.initialized)
	assert.Nil(t, app.store)
	assert.False(t, app.cleanupOn)

	require.NoError(t, busy.Close())

	base, cancel, done := startApp(t, app)
	assert.True(t, app.cleanupOn)

	resp, body := get(t, base+"/Token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"token_symbol":"USDC"`)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, app.cleanupOn)
}

func TestFailedRunKeepsInjectedStore(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer busy.Close()
	_, port, err := net.SplitHostPort(busy.Addr().String())
	require.NoError(t, err)

	cfg := testConfig("http://127.0.0.1:1")
	cfg.Port = mustAtoi(t, port)

	store := cache.NewMemoryStore()
	app, err := NewAppBuilder().WithConfig(cfg).WithStore(store).Build()
	require.NoError(t, err)

	require.Error(t, app.Run(context.Background()))
	assert.Same(t, store, app.store)
	assert.False(t, app.initialized)
}

func TestInitializeDoesNotStartCleanup(t *testing.T) {
	app, err := NewAppBuilder().WithConfig(testConfig("http://127.0.0.1:1")).Build()
	require.NoError(t, err)

	require.NoError(t, app.Initialize(context.Background()))
	require.NotNil(t, app.memoryStore)
	assert.False(t, app.cleanupOn)
	assert.NoError(t, app.shutdown())
}

func TestInvalidTargetsFailInitialize(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.TokenTargets = "ethereum"

	app, err := NewAppBuilder().WithConfig(cfg).WithStore(cache.NewMemoryStore()).Build()
	require.NoError(t, err)
	assert.Error(t, app.Initialize(context.Background()))
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
