// cmd/proxy/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"chain-analytics-proxy/application/bootstrap"
	"chain-analytics-proxy/internal/infrastructure/config"
	"chain-analytics-proxy/pkg/logger"
)

var (
	version   = "1.0.0"
	buildTime = "неизвестно"
)

func main() {
	var (
		cfgPath     string
		logLevel    string
		port        int
		showHelp    bool
		showVersion bool
	)

	flag.StringVar(&cfgPath, "config", ".env", "Путь к .env файлу")
	flag.StringVar(&logLevel, "log-level", "", "Уровень логирования: debug, info, warn, error (переопределяет .env)")
	flag.IntVar(&port, "port", 0, "HTTP порт (переопределяет PORT)")
	flag.BoolVar(&showHelp, "help", false, "Показать справку")
	flag.BoolVar(&showVersion, "version", false, "Показать версию")
	flag.Parse()

	if showVersion {
		printVersion()
		return
	}

	if showHelp {
		printHelp()
		return
	}

	os.Exit(run(cfgPath, logLevel, port))
}

func run(cfgPath, logLevel string, port int) int {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Printf("❌ Не удалось загрузить конфигурацию: %v\n", err)
		return 1
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if port != 0 {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ Валидация конфигурации не пройдена: %v\n", err)
		return 1
	}

	if err := logger.InitGlobal(cfg.LogFile, cfg.LogLevel, cfg.DebugMode); err != nil {
		fmt.Printf("❌ Не удалось инициализировать файловый логгер: %v. Переход на консольный...\n", err)
		if err := logger.InitGlobal("", cfg.LogLevel, cfg.DebugMode); err != nil {
			fmt.Printf("❌ Не удалось инициализировать консольный логгер: %v\n", err)
			return 1
		}
	}
	defer logger.Close()

	cfg.PrintSummary()
	logger.Info("🚀 Chain Analytics Proxy v%s (build: %s)", version, buildTime)

	app, err := bootstrap.NewAppBuilder().
		WithConfig(cfg).
		Build()
	if err != nil {
		logger.Error("❌ Не удалось собрать приложение: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			logger.Error("❌ Port %s is already in use", strconv.Itoa(cfg.Port))
		} else {
			logger.Error("❌ Ошибка приложения: %v", err)
		}
		return 1
	}

	logger.Info("✅ Приложение успешно остановлено")
	return 0
}

func printVersion() {
	fmt.Printf("📈 Chain Analytics Proxy v%s\n", version)
	fmt.Printf("📅 Сборка: %s\n", buildTime)
	fmt.Println()
	fmt.Println("📊 Функции:")
	fmt.Println("  • Кэшированные рейтинги токенов и пулов")
	fmt.Println("  • Детали токенов и пулов")
	fmt.Println("  • Балансы кошельков с перебором сетей")
}

func printHelp() {
	fmt.Println("📈 Chain Analytics Proxy")
	fmt.Println("HTTP прокси к аналитическому API UnleashNFTs для фронтенда")
	fmt.Println()
	fmt.Println("Использование: proxy [опции]")
	fmt.Println()
	fmt.Println("Опции:")
	fmt.Println("  --config string    Путь к .env файлу (по умолчанию: .env)")
	fmt.Println("  --log-level string Уровень логирования: debug, info, warn, error (переопределяет .env)")
	fmt.Println("  --port int         HTTP порт (переопределяет PORT)")
	fmt.Println("  --version          Показать информацию о версии")
	fmt.Println("  --help             Показать это справочное сообщение")
	fmt.Println()
	fmt.Println("Переменные окружения (через .env файл):")
	fmt.Println("  PORT                   HTTP порт (8080)")
	fmt.Println("  UNLEASHNFTS            API ключ UnleashNFTs")
	fmt.Println("  UPSTREAM_MIN_INTERVAL  Интервал между запросами к API (200ms)")
	fmt.Println("  DETAIL_DELAY           Пауза перед детальным запросом (250ms)")
	fmt.Println("  CACHE_BACKEND          memory или redis")
	fmt.Println("  CACHE_TTL              Время жизни кэша (5m)")
	fmt.Println("  REDIS_HOST, REDIS_PORT Адрес Redis")
	fmt.Println("  TOKEN_TARGETS          Список токенов chain:address,...")
	fmt.Println("  POOL_TARGETS           Список пулов chain:address,...")
	fmt.Println("  WALLET_CHAINS          Порядок сетей для баланса кошелька")
	fmt.Println("  LOG_LEVEL, LOG_FILE    Логирование")
	fmt.Println()
	fmt.Println("Примеры:")
	fmt.Println("  go run ./cmd/proxy --log-level=debug")
	fmt.Println("  go run ./cmd/proxy --config=configs/dev/.env --port=5000")
}
