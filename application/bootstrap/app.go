// application/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chain-analytics-proxy/internal/core/domain/analytics"
	"chain-analytics-proxy/internal/delivery/rest"
	"chain-analytics-proxy/internal/infrastructure/api/unleashnfts"
	"chain-analytics-proxy/internal/infrastructure/cache"
	"chain-analytics-proxy/internal/infrastructure/cache/redis"
	"chain-analytics-proxy/internal/infrastructure/config"
	"chain-analytics-proxy/internal/services/aggregator"
	"chain-analytics-proxy/internal/services/details"
	"chain-analytics-proxy/internal/services/wallet"
	"chain-analytics-proxy/internal/stats"
	"chain-analytics-proxy/pkg/logger"
)

// Application - основное приложение
type Application struct {
	mu sync.RWMutex

	config          *config.Config
	shutdownTimeout time.Duration

	store        cache.Store
	ownsStore    bool // store создан в Initialize, а не передан через WithStore
	memoryStore  *cache.MemoryStore
	redisService *redis.RedisService
	cleanupOn    bool // фоновая очистка memoryStore запущена

	stats      *stats.Collector
	client     *unleashnfts.Client
	aggregator *aggregator.Aggregator
	server     *rest.Server

	initialized bool
	running     bool
	startTime   time.Time
}

// Initialize подключает кэш и собирает сервисы
func (app *Application) Initialize(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.initialized {
		return nil
	}

	tokenTargets, err := analytics.ParseTargets(app.config.TokenTargets)
	if err != nil {
		return fmt.Errorf("TOKEN_TARGETS: %w", err)
	}
	poolTargets, err := analytics.ParseTargets(app.config.PoolTargets)
	if err != nil {
		return fmt.Errorf("POOL_TARGETS: %w", err)
	}

	if err := app.initStore(ctx); err != nil {
		return err
	}

	if app.config.Upstream.ApiKey == "" {
		logger.Warn("⚠️ UNLEASHNFTS API key is not set, upstream will reject requests")
	}

	app.client = unleashnfts.NewClient(app.config.Upstream)

	app.aggregator = aggregator.New(app.store, app.client, aggregator.Options{
		TTL:          app.config.Cache.TTL,
		TokenTargets: tokenTargets,
		PoolTargets:  poolTargets,
		Recorder:     app.stats,
	})

	deps := rest.Dependencies{
		Lists:        app.aggregator,
		Details:      details.NewService(app.client, app.config.Upstream.DetailDelay),
		Wallets:      wallet.NewService(app.client, app.config.WalletChains, app.stats),
		Stats:        app.stats,
		CacheBackend: app.store.Name(),
	}
	if app.redisService != nil {
		deps.Redis = app.redisService
	}
	app.server = rest.NewServer(app.config, deps)

	app.initialized = true
	logger.Info("🔧 Application initialized (cache: %s, TTL: %v)", app.store.Name(), app.config.Cache.TTL)
	return nil
}

func (app *Application) initStore(ctx context.Context) error {
	if app.store != nil {
		return nil
	}

	switch app.config.Cache.Backend {
	case config.CacheBackendRedis:
		service := redis.NewRedisService(app.config.Redis)
		if err := service.Start(ctx); err != nil {
			return fmt.Errorf("start redis cache: %w", err)
		}
		app.redisService = service
		app.store = service.GetCache()
	default:
		// очистка просроченных записей стартует в Run
		app.memoryStore = cache.NewMemoryStore()
		app.store = app.memoryStore
	}
	app.ownsStore = true
	return nil
}

// Run запускает HTTP сервер и блокируется до отмены ctx
func (app *Application) Run(ctx context.Context) error {
	if err := app.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	app.mu.Lock()
	if app.running {
		app.mu.Unlock()
		return errors.New("application already running")
	}

	if err := app.server.Start(); err != nil {
		if releaseErr := app.releaseStore(); releaseErr != nil {
			logger.Warn("⚠️ Release cache after failed start: %v", releaseErr)
		}
		app.reset()
		app.mu.Unlock()
		return err
	}

	if app.memoryStore != nil {
		go app.memoryStore.Start()
		app.cleanupOn = true
	}

	app.running = true
	app.startTime = time.Now()
	app.mu.Unlock()

	logger.Info("✅ Application is running")

	<-ctx.Done()
	logger.Info("🛑 Shutdown requested: %v", context.Cause(ctx))

	return app.shutdown()
}

// shutdown выполняет graceful shutdown с таймаутом
func (app *Application) shutdown() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if !app.running {
		return nil
	}

	logger.Info("⏳ Graceful shutdown (timeout: %v)...", app.shutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := app.server.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := app.releaseStore(); err != nil {
		errs = append(errs, err)
	}
	app.reset()

	app.running = false
	logger.Info("✅ Application stopped. Uptime: %v", time.Since(app.startTime).Round(time.Second))

	snap := app.stats.Snapshot()
	for _, route := range snap.Routes() {
		logger.Info("   • %s: %d requests", route, snap.Requests[route])
	}

	return errors.Join(errs...)
}

func (app *Application) releaseStore() error {
	if app.memoryStore != nil && app.cleanupOn {
		app.memoryStore.Stop()
		app.cleanupOn = false
	}
	if app.redisService != nil && app.redisService.IsRunning() {
		return app.redisService.Stop()
	}
	return nil
}

// reset возвращает приложение в состояние до Initialize, чтобы Run можно было повторить
func (app *Application) reset() {
	if app.ownsStore {
		app.store = nil
		app.ownsStore = false
	}
	app.memoryStore = nil
	app.redisService = nil
	app.client = nil
	app.aggregator = nil
	app.server = nil
	app.initialized = false
}

// Addr возвращает адрес HTTP сервера
func (app *Application) Addr() string {
	app.mu.RLock()
	defer app.mu.RUnlock()
	if app.server == nil {
		return ""
	}
	return app.server.Addr()
}

func (app *Application) IsRunning() bool {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.running
}

// Status возвращает состояние приложения
func (app *Application) Status() map[string]interface{} {
	app.mu.RLock()
	defer app.mu.RUnlock()

	status := map[string]interface{}{
		"running":   app.running,
		"uptime":    time.Since(app.startTime).String(),
		"startTime": app.startTime.Format(time.RFC3339),
		"config": map[string]interface{}{
			"cache_backend": app.config.Cache.Backend,
			"cache_ttl":     app.config.Cache.TTL.String(),
			"log_level":     app.config.LogLevel,
		},
	}

	status["stats"] = app.stats.Snapshot()
	if app.redisService != nil {
		status["redis"] = app.redisService.GetStats()
	}
	return status
}
