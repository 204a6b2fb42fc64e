// /internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Поддерживаемые бэкенды кэша
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// ============================================
// КОНФИГУРАЦИЯ UPSTREAM API
// ============================================

// UpstreamConfig - параметры аналитического API (UnleashNFTs)
type UpstreamConfig struct {
	BaseURL     string        // UPSTREAM_BASE_URL
	ApiKey      string        // UNLEASHNFTS
	Timeout     time.Duration // UPSTREAM_TIMEOUT
	MinInterval time.Duration // UPSTREAM_MIN_INTERVAL, минимальный интервал между запросами
	DetailDelay time.Duration // DETAIL_DELAY, пауза перед детальным запросом
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	Host     string // REDIS_HOST, localhost
	Port     int    // REDIS_PORT, 6379
	Password string // REDIS_PASSWORD, пустой или пароль
	DB       int    // REDIS_DB, 0
	Prefix   string // REDIS_PREFIX, chainproxy:

	// Настройки пула соединений
	PoolSize     int           // REDIS_POOL_SIZE, 10
	MinIdleConns int           // REDIS_MIN_IDLE_CONNS, 2
	MaxRetries   int           // REDIS_MAX_RETRIES, 3
	DialTimeout  time.Duration // REDIS_DIAL_TIMEOUT, 5s
	ReadTimeout  time.Duration // REDIS_READ_TIMEOUT, 3s
	WriteTimeout time.Duration // REDIS_WRITE_TIMEOUT, 3s
}

// CacheConfig - настройки кэша агрегированных данных
type CacheConfig struct {
	Backend string        // CACHE_BACKEND
	TTL     time.Duration // CACHE_TTL
}

// ============================================
// ОСНОВНАЯ КОНФИГУРАЦИЯ ПРИЛОЖЕНИЯ
// ============================================

// Config - основная структура конфигурации.
// Заполняется из переменных окружения в FromEnv.
type Config struct {
	Environment string
	Version     string

	// HTTP сервер
	Port               int
	CorsAllowedOrigins []string

	Upstream UpstreamConfig
	Cache    CacheConfig
	Redis    RedisConfig

	// Списки адресов в формате chain:address
	TokenTargets string
	PoolTargets  string
	WalletChains []string

	// Логирование
	LogLevel  string
	LogFile   string
	DebugMode bool
}

// DefaultWalletChains - порядок перебора сетей для баланса кошелька
var DefaultWalletChains = []string{"full", "ethereum", "polygon", "avalanche", "solana"}

// ============================================
// ЗАГРУЗКА КОНФИГУРАЦИИ
// ============================================

// LoadConfig загружает конфигурацию из .env файла и переменных окружения
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Printf("⚠️  Config file %s not found, using environment variables\n", path)
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv собирает конфигурацию только из окружения, без валидации
func FromEnv() *Config {
	cfg := &Config{}

	cfg.Environment = getEnv("ENVIRONMENT", "production")
	cfg.Version = getEnv("VERSION", "1.0.0")

	// ======================
	// HTTP
	// ======================
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.CorsAllowedOrigins = parseList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	// ======================
	// UPSTREAM
	// ======================
	cfg.Upstream.BaseURL = strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "https://api.unleashnfts.com/api/v2"), "/")
	cfg.Upstream.ApiKey = getEnv("UNLEASHNFTS", getEnv("UNLEASHNFTS_API_KEY", ""))
	cfg.Upstream.Timeout = getEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second)
	cfg.Upstream.MinInterval = getEnvDuration("UPSTREAM_MIN_INTERVAL", 200*time.Millisecond)
	cfg.Upstream.DetailDelay = getEnvDuration("DETAIL_DELAY", 250*time.Millisecond)

	// ======================
	// КЭШ
	// ======================
	cfg.Cache.Backend = strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory))
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)

	// ======================
	// REDIS
	// ======================
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnvInt("REDIS_PORT", 6379)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.Prefix = getEnv("REDIS_PREFIX", "chainproxy:")
	cfg.Redis.PoolSize = getEnvInt("REDIS_POOL_SIZE", 10)
	cfg.Redis.MinIdleConns = getEnvInt("REDIS_MIN_IDLE_CONNS", 2)
	cfg.Redis.MaxRetries = getEnvInt("REDIS_MAX_RETRIES", 3)
	cfg.Redis.DialTimeout = getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.Redis.ReadTimeout = getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.Redis.WriteTimeout = getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)

	// ======================
	// ЦЕЛИ АГРЕГАЦИИ
	// ======================
	cfg.TokenTargets = getEnv("TOKEN_TARGETS", "")
	cfg.PoolTargets = getEnv("POOL_TARGETS", "")
	cfg.WalletChains = parseList(getEnv("WALLET_CHAINS", strings.Join(DefaultWalletChains, ",")))

	// ======================
	// ЛОГИРОВАНИЕ
	// ======================
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.LogFile = getEnv("LOG_FILE", "")
	cfg.DebugMode = getEnvBool("DEBUG_MODE", false)

	return cfg
}

// ============================================
// ВАЛИДАЦИЯ
// ============================================

// Validate проверяет обязательные параметры конфигурации
func (c *Config) Validate() error {
	var validationErrors []string

	if c.Port <= 0 || c.Port > 65535 {
		validationErrors = append(validationErrors, "PORT must be in range 1-65535")
	}
	if c.Upstream.BaseURL == "" {
		validationErrors = append(validationErrors, "UPSTREAM_BASE_URL is required")
	}
	if c.Upstream.Timeout <= 0 {
		validationErrors = append(validationErrors, "UPSTREAM_TIMEOUT must be positive")
	}
	if c.Upstream.MinInterval < 0 {
		validationErrors = append(validationErrors, "UPSTREAM_MIN_INTERVAL must not be negative")
	}
	if c.Upstream.DetailDelay < 0 {
		validationErrors = append(validationErrors, "DETAIL_DELAY must not be negative")
	}
	if c.Cache.TTL <= 0 {
		validationErrors = append(validationErrors, "CACHE_TTL must be positive")
	}

	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.Redis.Host == "" {
			validationErrors = append(validationErrors, "REDIS_HOST is required for redis cache backend")
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			validationErrors = append(validationErrors, "REDIS_PORT must be in range 1-65535")
		}
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("CACHE_BACKEND must be %q or %q", CacheBackendMemory, CacheBackendRedis))
	}

	if len(c.WalletChains) == 0 {
		validationErrors = append(validationErrors, "WALLET_CHAINS must not be empty")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		validationErrors = append(validationErrors, fmt.Sprintf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel))
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("%s", strings.Join(validationErrors, "; "))
	}

	return nil
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

// ListenAddr возвращает адрес HTTP сервера
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GetRedisAddress возвращает адрес Redis
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// IsDev возвращает true для окружения разработки
func (c *Config) IsDev() bool {
	return c.Environment == "dev" || c.Environment == "development"
}

// MaskedApiKey возвращает ключ API, пригодный для логов
func (c *Config) MaskedApiKey() string {
	key := c.Upstream.ApiKey
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// PrintSummary выводит основные параметры конфигурации
func (c *Config) PrintSummary() {
	log.Printf("📋 Конфигурация приложения:")
	log.Printf("   • Окружение: %s", c.Environment)
	log.Printf("   • HTTP порт: %d", c.Port)
	log.Printf("   • Upstream: %s (ключ: %s)", c.Upstream.BaseURL, c.MaskedApiKey())
	log.Printf("   • Интервал запросов: %v, задержка деталей: %v", c.Upstream.MinInterval, c.Upstream.DetailDelay)
	log.Printf("   • Кэш: %s (TTL %v)", c.Cache.Backend, c.Cache.TTL)
	if c.Cache.Backend == CacheBackendRedis {
		log.Printf("   • Redis: %s (DB: %d, Pool: %d)", c.GetRedisAddress(), c.Redis.DB, c.Redis.PoolSize)
	}
	log.Printf("   • Сети кошелька: %s", strings.Join(c.WalletChains, ", "))
	log.Printf("   • Уровень логирования: %s", c.LogLevel)
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ ФУНКЦИИ
// ============================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func parseList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
