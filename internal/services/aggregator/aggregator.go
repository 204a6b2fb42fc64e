// internal/services/aggregator/aggregator.go
package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chain-analytics-proxy/internal/core/domain/analytics"
	"chain-analytics-proxy/internal/infrastructure/api"
	"chain-analytics-proxy/internal/infrastructure/cache"
	"chain-analytics-proxy/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Ключи кэша агрегированных списков
const (
	KeyTokens = "tokens"
	KeyPools  = "pools"
)

// ErrUpstreamUnavailable - ни один запрос к upstream не завершился успешно
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Source - откуда пришел ответ
type Source string

const (
	SourceCache    Source = "cache"
	SourceUpstream Source = "upstream"
)

// Upstream - методы аналитического API, нужные агрегатору
type Upstream interface {
	GetTokenMetrics(ctx context.Context, blockchain, tokenAddress string, limit int) (*api.Envelope, error)
	GetPoolMetadata(ctx context.Context, blockchain, pairAddress string, limit int) (*api.Envelope, error)
}

// Recorder получает события кэша и ошибок upstream
type Recorder interface {
	CacheHit()
	CacheMiss()
	UpstreamError()
}

type nopRecorder struct{}

func (nopRecorder) CacheHit()      {}
func (nopRecorder) CacheMiss()     {}
func (nopRecorder) UpstreamError() {}

// Options - параметры агрегатора
type Options struct {
	TTL            time.Duration
	RefreshTimeout time.Duration // ограничение на один полный проход по целям
	TokenTargets   []analytics.Target
	PoolTargets    []analytics.Target
	Recorder       Recorder
}

// Aggregator собирает списки токенов и пулов, опрашивая upstream по одному
// адресу за раз, и держит результат в кэше TTL.
type Aggregator struct {
	store    cache.Store
	upstream Upstream
	recorder Recorder

	ttl            time.Duration
	refreshTimeout time.Duration
	tokenTargets   []analytics.Target
	poolTargets    []analytics.Target

	group singleflight.Group
}

type result struct {
	payload []byte
	source  Source
}

// New создает агрегатор. Пустые списки целей заменяются списками по умолчанию.
func New(store cache.Store, upstream Upstream, opts Options) *Aggregator {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 2 * time.Minute
	}
	if len(opts.TokenTargets) == 0 {
		opts.TokenTargets = analytics.DefaultTokenTargets()
	}
	if len(opts.PoolTargets) == 0 {
		opts.PoolTargets = analytics.DefaultPoolTargets()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	return &Aggregator{
		store:          store,
		upstream:       upstream,
		recorder:       opts.Recorder,
		ttl:            opts.TTL,
		refreshTimeout: opts.RefreshTimeout,
		tokenTargets:   opts.TokenTargets,
		poolTargets:    opts.PoolTargets,
	}
}

// Tokens возвращает закодированный список токенов
func (a *Aggregator) Tokens(ctx context.Context) ([]byte, Source, error) {
	return a.serve(ctx, KeyTokens, a.collectTokens)
}

// Pools возвращает закодированный список пулов
func (a *Aggregator) Pools(ctx context.Context) ([]byte, Source, error) {
	return a.serve(ctx, KeyPools, a.collectPools)
}

// Invalidate сбрасывает оба списка.
// Если хранилище умеет удалять пачкой, ключи уходят одной командой.
func (a *Aggregator) Invalidate(ctx context.Context) error {
	keys := []string{KeyTokens, KeyPools}
	if multi, ok := a.store.(cache.MultiDeleter); ok {
		if err := multi.DeleteMulti(ctx, keys...); err != nil {
			return fmt.Errorf("delete %v: %w", keys, err)
		}
		return nil
	}

	var errs []error
	for _, key := range keys {
		if err := a.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (a *Aggregator) serve(ctx context.Context, key string, collect func(context.Context) ([]byte, error)) ([]byte, Source, error) {
	if payload, ok := a.cached(ctx, key); ok {
		a.recorder.CacheHit()
		logger.Info("📦 Serving %s from cache", key)
		return payload, SourceCache, nil
	}
	a.recorder.CacheMiss()

	// Одновременные промахи по одному ключу ждут одного обновления.
	// Обновление не отменяется вместе с запросом, который его начал.
	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		if payload, ok := a.cached(ctx, key); ok {
			return result{payload: payload, source: SourceCache}, nil
		}

		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.refreshTimeout)
		defer cancel()

		payload, err := collect(refreshCtx)
		if err != nil {
			return nil, err
		}

		if err := a.store.Set(refreshCtx, key, payload, a.ttl); err != nil {
			logger.Warn("⚠️ Failed to cache %s in %s store: %v", key, a.store.Name(), err)
		}
		return result{payload: payload, source: SourceUpstream}, nil
	})
	if err != nil {
		return nil, "", err
	}

	res := v.(result)
	return res.payload, res.source, nil
}

func (a *Aggregator) cached(ctx context.Context, key string) ([]byte, bool) {
	payload, ok, err := a.store.Get(ctx, key)
	if err != nil {
		logger.Warn("⚠️ Cache read for %s failed, treating as miss: %v", key, err)
		return nil, false
	}
	return payload, ok
}

// ============================================
// СБОР ДАННЫХ
// ============================================

func (a *Aggregator) collectTokens(ctx context.Context) ([]byte, error) {
	logger.Info("🔄 Fetching fresh TOKEN data (%d targets)...", len(a.tokenTargets))

	tokens := make([]analytics.TokenSummary, 0, len(a.tokenTargets))
	failed := 0

	for _, target := range a.tokenTargets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}

		envelope, err := a.upstream.GetTokenMetrics(ctx, target.Blockchain, target.Address, 1)
		if err != nil {
			failed++
			a.recorder.UpstreamError()
			logger.Error("❌ Error fetching %s token %s: %v", target.Blockchain, target.Address, err)
			continue
		}

		first, ok := envelope.First()
		if !ok {
			logger.Debug("No token metrics for %s", target)
			continue
		}

		metrics, err := analytics.ParseTokenMetrics(first)
		if err != nil {
			failed++
			a.recorder.UpstreamError()
			logger.Error("❌ Malformed token metrics for %s: %v", target, err)
			continue
		}

		tokens = append(tokens, metrics.Summarize(len(tokens)+1))
	}

	if len(tokens) == 0 && failed > 0 {
		return nil, fmt.Errorf("%w: all %d token lookups failed", ErrUpstreamUnavailable, failed)
	}

	logger.Info("✅ Collected %d/%d tokens (%d failed)", len(tokens), len(a.tokenTargets), failed)
	return json.Marshal(tokens)
}

func (a *Aggregator) collectPools(ctx context.Context) ([]byte, error) {
	logger.Info("🔄 Fetching fresh POOL data (%d targets)...", len(a.poolTargets))

	pools := make([]analytics.Pool, 0, len(a.poolTargets))
	failed := 0

	for _, target := range a.poolTargets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}

		envelope, err := a.upstream.GetPoolMetadata(ctx, target.Blockchain, target.Address, 1)
		if err != nil {
			failed++
			a.recorder.UpstreamError()
			logger.Error("❌ Error fetching %s pool %s: %v", target.Blockchain, target.Address, err)
			continue
		}

		first, ok := envelope.First()
		if !ok {
			logger.Debug("No pool metadata for %s", target)
			continue
		}

		pool, err := analytics.NewPool(first, len(pools)+1, target)
		if err != nil {
			failed++
			a.recorder.UpstreamError()
			logger.Error("❌ Malformed pool metadata for %s: %v", target, err)
			continue
		}

		pools = append(pools, pool)
	}

	if len(pools) == 0 && failed > 0 {
		return nil, fmt.Errorf("%w: all %d pool lookups failed", ErrUpstreamUnavailable, failed)
	}

	logger.Info("✅ Collected %d/%d pools (%d failed)", len(pools), len(a.poolTargets), failed)
	return json.Marshal(pools)
}
