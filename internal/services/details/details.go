// internal/services/details/details.go
package details

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"chain-analytics-proxy/internal/core/domain/analytics"
	"chain-analytics-proxy/internal/infrastructure/api"
	"chain-analytics-proxy/pkg/logger"
)

// ErrNotFound - upstream ответил, но data пуст
var ErrNotFound = errors.New("no data found")

const (
	tokenLimit        = 1
	poolMetricsLimit  = 1
	poolMetadataLimit = 30
)

// Upstream - методы аналитического API для детальных запросов
type Upstream interface {
	GetTokenMetrics(ctx context.Context, blockchain, tokenAddress string, limit int) (*api.Envelope, error)
	GetPoolMetrics(ctx context.Context, blockchain, pairAddress string, limit int) (*api.Envelope, error)
	GetPoolMetadata(ctx context.Context, blockchain, pairAddress string, limit int) (*api.Envelope, error)
}

// Service проксирует детальные запросы без кэширования
type Service struct {
	upstream Upstream
	delay    time.Duration
}

// NewService создает сервис. delay - пауза перед каждым запросом к upstream.
func NewService(upstream Upstream, delay time.Duration) *Service {
	return &Service{upstream: upstream, delay: delay}
}

// Token возвращает метрики одного токена
func (s *Service) Token(ctx context.Context, blockchain, tokenID string) (json.RawMessage, error) {
	chain := analytics.NormalizeChain(blockchain)
	return s.fetch(ctx, "token", chain, tokenID, func(ctx context.Context) (*api.Envelope, error) {
		return s.upstream.GetTokenMetrics(ctx, chain, tokenID, tokenLimit)
	})
}

// PoolMetrics возвращает метрики пула
func (s *Service) PoolMetrics(ctx context.Context, blockchain, pairAddress string) (json.RawMessage, error) {
	chain := analytics.NormalizeChain(blockchain)
	pair := strings.ToLower(pairAddress)
	return s.fetch(ctx, "pool metrics", chain, pair, func(ctx context.Context) (*api.Envelope, error) {
		return s.upstream.GetPoolMetrics(ctx, chain, pair, poolMetricsLimit)
	})
}

// PoolMetadata возвращает метаданные пула
func (s *Service) PoolMetadata(ctx context.Context, blockchain, pairAddress string) (json.RawMessage, error) {
	chain := analytics.NormalizeChain(blockchain)
	pair := strings.ToLower(pairAddress)
	return s.fetch(ctx, "pool metadata", chain, pair, func(ctx context.Context) (*api.Envelope, error) {
		return s.upstream.GetPoolMetadata(ctx, chain, pair, poolMetadataLimit)
	})
}

func (s *Service) fetch(ctx context.Context, what, chain, address string, call func(context.Context) (*api.Envelope, error)) (json.RawMessage, error) {
	if err := s.pause(ctx); err != nil {
		return nil, err
	}

	logger.Debug("🔍 Fetching %s for %s:%s", what, chain, address)

	envelope, err := call(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s:%s: %w", what, chain, address, err)
	}

	first, ok := envelope.First()
	if !ok {
		return nil, fmt.Errorf("%s %s:%s: %w", what, chain, address, ErrNotFound)
	}
	return first, nil
}

func (s *Service) pause(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
