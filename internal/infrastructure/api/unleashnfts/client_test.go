package unleashnfts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"chain-analytics-proxy/internal/infrastructure/api"
	"chain-analytics-proxy/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, interval time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.UpstreamConfig{
		BaseURL:     srv.URL + "/",
		ApiKey:      "test-key",
		Timeout:     5 * time.Second,
		MinInterval: interval,
	})
}

func TestGetTokenMetricsSendsParamsAndKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token/metrics", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "ethereum", q.Get("blockchain"))
		assert.Equal(t, "0xabc", q.Get("token_address"))
		assert.Equal(t, "0", q.Get("offset"))
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"token_symbol":"USDC"}],"pagination":{"has_next":false}}`))
	}, 0)

	envelope, err := client.GetTokenMetrics(context.Background(), "ethereum", "0xabc", 1)
	require.NoError(t, err)
	require.True(t, envelope.HasData())

	first, ok := envelope.First()
	require.True(t, ok)
	assert.JSONEq(t, `{"token_symbol":"USDC"}`, string(first))
	assert.Contains(t, string(envelope.Raw), `"has_next":false`)
}

func TestWalletBalanceParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/balance/token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "0xwallet", q.Get("address"))
		assert.Equal(t, "polygon", q.Get("blockchain"))
		assert.Equal(t, "all", q.Get("time_range"))
		assert.Equal(t, "30", q.Get("limit"))
		w.Write([]byte(`{"data":[],"pagination":{}}`))
	}, 0)

	envelope, err := client.GetWalletTokenBalance(context.Background(), "0xwallet", "polygon")
	require.NoError(t, err)
	assert.False(t, envelope.HasData())
}

func TestPoolEndpoints(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?limit="+r.URL.Query().Get("limit"))
		assert.Equal(t, "0xpair", r.URL.Query().Get("pair_address"))
		w.Write([]byte(`{"data":[{"pair_address":"0xpair"}]}`))
	}, 0)

	_, err := client.GetPoolMetadata(context.Background(), "avalanche", "0xpair", 30)
	require.NoError(t, err)
	_, err = client.GetPoolMetrics(context.Background(), "avalanche", "0xpair", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"/defi/pool/metadata?limit=30", "/defi/pool/metrics?limit=1"}, paths)
}

func TestNon2xxReturnsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down"}`))
	}, 0)

	_, err := client.GetTokenMetrics(context.Background(), "ethereum", "0xabc", 1)
	require.Error(t, err)

	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "slow down")
}

func TestMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}, 0)

	_, err := client.GetPoolMetrics(context.Background(), "ethereum", "0xpair", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestLimiterSpacesRequests(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data":[]}`))
	}, 40*time.Millisecond)

	started := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.GetTokenMetrics(context.Background(), "ethereum", "0xabc", 1)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), calls.Load())
	assert.GreaterOrEqual(t, time.Since(started), 75*time.Millisecond)
}

func TestLimiterHonorsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}, time.Hour)

	_, err := client.GetTokenMetrics(context.Background(), "ethereum", "0xabc", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.GetTokenMetrics(ctx, "ethereum", "0xabc", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestEnvelopeFirstSkipsNull(t *testing.T) {
	env := &api.Envelope{Data: []byte(`[null]`)}
	_, ok := env.First()
	assert.False(t, ok)

	env = &api.Envelope{Data: []byte(`"no_data_found"`)}
	assert.False(t, env.HasData())
	assert.Nil(t, env.Items())
}
