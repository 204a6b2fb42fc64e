// internal/infrastructure/api/unleashnfts/client.go
package unleashnfts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chain-analytics-proxy/internal/infrastructure/api"
	"chain-analytics-proxy/internal/infrastructure/config"
	"chain-analytics-proxy/pkg/logger"

	"golang.org/x/time/rate"
)

const (
	userAgent = "ChainAnalyticsProxy/1.0"

	pathTokenMetrics  = "/token/metrics"
	pathPoolMetadata  = "/defi/pool/metadata"
	pathPoolMetrics   = "/defi/pool/metrics"
	pathWalletBalance = "/wallet/balance/token"

	maxBodySize = 8 << 20
)

// ============================================
// UNLEASHNFTS CLIENT
// ============================================

// Client - клиент аналитического API UnleashNFTs (bitsCrunch)
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient создает клиента по конфигурации upstream
func NewClient(cfg config.UpstreamConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.ApiKey,
		limiter: newLimiter(cfg.MinInterval),
	}
}

// newLimiter - не чаще одного запроса за interval; interval <= 0 снимает ограничение
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

// get выполняет GET запрос с учетом лимита и декодирует конверт ответа
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*api.Envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := c.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug("🌐 GET %s -> %d (%v)", endpoint, resp.StatusCode, time.Since(started).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &api.APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope api.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	envelope.Raw = body

	return &envelope, nil
}

func pageParams(limit int) url.Values {
	if limit <= 0 {
		limit = 1
	}
	params := url.Values{}
	params.Set("offset", "0")
	params.Set("limit", strconv.Itoa(limit))
	return params
}

// ============================================
// ОСНОВНЫЕ API МЕТОДЫ
// ============================================

// GetTokenMetrics получает метрики токена
func (c *Client) GetTokenMetrics(ctx context.Context, blockchain, tokenAddress string, limit int) (*api.Envelope, error) {
	params := pageParams(limit)
	params.Set("blockchain", blockchain)
	params.Set("token_address", tokenAddress)

	envelope, err := c.get(ctx, pathTokenMetrics, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get token metrics: %w", err)
	}
	return envelope, nil
}

// GetPoolMetadata получает метаданные DeFi пула
func (c *Client) GetPoolMetadata(ctx context.Context, blockchain, pairAddress string, limit int) (*api.Envelope, error) {
	params := pageParams(limit)
	params.Set("blockchain", blockchain)
	params.Set("pair_address", pairAddress)

	envelope, err := c.get(ctx, pathPoolMetadata, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool metadata: %w", err)
	}
	return envelope, nil
}

// GetPoolMetrics получает метрики DeFi пула
func (c *Client) GetPoolMetrics(ctx context.Context, blockchain, pairAddress string, limit int) (*api.Envelope, error) {
	params := pageParams(limit)
	params.Set("blockchain", blockchain)
	params.Set("pair_address", pairAddress)

	envelope, err := c.get(ctx, pathPoolMetrics, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool metrics: %w", err)
	}
	return envelope, nil
}

// GetWalletTokenBalance получает балансы токенов кошелька в указанной сети
func (c *Client) GetWalletTokenBalance(ctx context.Context, address, blockchain string) (*api.Envelope, error) {
	params := pageParams(30)
	params.Set("address", address)
	params.Set("blockchain", blockchain)
	params.Set("time_range", "all")

	envelope, err := c.get(ctx, pathWalletBalance, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet balance: %w", err)
	}
	return envelope, nil
}
