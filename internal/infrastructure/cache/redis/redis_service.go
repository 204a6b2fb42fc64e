// internal/infrastructure/cache/redis/redis_service.go
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chain-analytics-proxy/internal/infrastructure/config"
	"chain-analytics-proxy/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// RedisService сервис для работы с Redis
type RedisService struct {
	mu     sync.RWMutex
	config config.RedisConfig
	client *redis.Client
	state  ServiceState
}

// ServiceState состояние сервиса
type ServiceState string

const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateStopping ServiceState = "stopping"
	StateError    ServiceState = "error"
)

// NewRedisService создает новый Redis сервис
func NewRedisService(cfg config.RedisConfig) *RedisService {
	return &RedisService{
		config: cfg,
		state:  StateStopped,
	}
}

func (rs *RedisService) address() string {
	return fmt.Sprintf("%s:%d", rs.config.Host, rs.config.Port)
}

// Start подключается к Redis и проверяет соединение
func (rs *RedisService) Start(ctx context.Context) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.state == StateRunning {
		return fmt.Errorf("redis service already running")
	}

	logger.Info("🔄 Starting Redis service...")
	rs.state = StateStarting

	options := &redis.Options{
		Addr:     rs.address(),
		Password: rs.config.Password,
		DB:       rs.config.DB,

		PoolSize:     rs.config.PoolSize,
		MinIdleConns: rs.config.MinIdleConns,

		DialTimeout:  rs.config.DialTimeout,
		ReadTimeout:  rs.config.ReadTimeout,
		WriteTimeout: rs.config.WriteTimeout,

		MaxRetries: rs.config.MaxRetries,
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	logger.Info("📡 Connecting to Redis: %s (DB: %d)", options.Addr, rs.config.DB)

	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		rs.state = StateError
		logger.Error("❌ Failed to connect to Redis: %v (address: %s)", err, options.Addr)
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	rs.client = client
	rs.state = StateRunning

	logger.Info("✅ Successfully connected to Redis")
	logger.Info("   • Host: %s", options.Addr)
	logger.Info("   • Database: %d", rs.config.DB)
	logger.Info("   • Pool size: %d", rs.config.PoolSize)

	return nil
}

// Stop закрывает клиент
func (rs *RedisService) Stop() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.state != StateRunning {
		return fmt.Errorf("redis service is not running")
	}

	logger.Info("🛑 Stopping Redis service...")
	rs.state = StateStopping

	if rs.client != nil {
		if err := rs.client.Close(); err != nil {
			rs.state = StateError
			logger.Error("❌ Failed to close Redis client: %v", err)
			return fmt.Errorf("failed to close Redis client: %w", err)
		}
	}

	rs.client = nil
	rs.state = StateStopped
	logger.Info("✅ Redis service stopped")

	return nil
}

// GetClient возвращает клиент Redis
func (rs *RedisService) GetClient() *redis.Client {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.client
}

// State возвращает состояние сервиса
func (rs *RedisService) State() ServiceState {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.state
}

// HealthCheck проверяет здоровье Redis
func (rs *RedisService) HealthCheck(ctx context.Context) bool {
	client := rs.GetClient()
	if rs.State() != StateRunning || client == nil {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := client.Ping(pingCtx).Result(); err != nil {
		logger.Warn("⚠️ Redis health check failed: %v", err)
		return false
	}

	return true
}

// GetStats возвращает статистику Redis
func (rs *RedisService) GetStats() map[string]interface{} {
	client := rs.GetClient()
	stats := map[string]interface{}{
		"state":     rs.State(),
		"connected": client != nil,
	}

	if client != nil {
		poolStats := client.PoolStats()

		stats["pool_hits"] = poolStats.Hits
		stats["pool_misses"] = poolStats.Misses
		stats["pool_timeouts"] = poolStats.Timeouts
		stats["pool_total_conns"] = poolStats.TotalConns
		stats["pool_idle_conns"] = poolStats.IdleConns
		stats["pool_stale_conns"] = poolStats.StaleConns

		stats["address"] = rs.address()
		stats["db"] = rs.config.DB
		stats["pool_size"] = rs.config.PoolSize
	}

	return stats
}

// GetCache возвращает кэш поверх подключенного клиента
func (rs *RedisService) GetCache() *Cache {
	client := rs.GetClient()
	if client == nil {
		return nil
	}
	return NewCacheWithClient(client, rs.config.Prefix)
}

// Name возвращает имя сервиса
func (rs *RedisService) Name() string {
	return "RedisService"
}

// IsRunning возвращает true если сервис запущен
func (rs *RedisService) IsRunning() bool {
	return rs.State() == StateRunning
}
