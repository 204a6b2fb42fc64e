// application/bootstrap/builder.go
package bootstrap

import (
	"errors"
	"time"

	"chain-analytics-proxy/internal/infrastructure/cache"
	"chain-analytics-proxy/internal/infrastructure/config"
	"chain-analytics-proxy/internal/stats"
)

// AppBuilder строит приложение
type AppBuilder struct {
	config          *config.Config
	store           cache.Store
	stats           *stats.Collector
	shutdownTimeout time.Duration
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{shutdownTimeout: 10 * time.Second}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	b.config = cfg
	return b
}

// WithStore подменяет хранилище кэша, CACHE_BACKEND при этом не используется
func (b *AppBuilder) WithStore(store cache.Store) *AppBuilder {
	b.store = store
	return b
}

func (b *AppBuilder) WithStats(collector *stats.Collector) *AppBuilder {
	b.stats = collector
	return b
}

func (b *AppBuilder) WithShutdownTimeout(timeout time.Duration) *AppBuilder {
	if timeout > 0 {
		b.shutdownTimeout = timeout
	}
	return b
}

// Build создает приложение. Подключения открываются в Initialize.
func (b *AppBuilder) Build() (*Application, error) {
	if b.config == nil {
		return nil, errors.New("config is required")
	}

	collector := b.stats
	if collector == nil {
		collector = stats.NewCollector()
	}

	return &Application{
		config:          b.config,
		store:           b.store,
		stats:           collector,
		shutdownTimeout: b.shutdownTimeout,
	}, nil
}
