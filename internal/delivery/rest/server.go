// internal/delivery/rest/server.go
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"chain-analytics-proxy/internal/infrastructure/config"
	"chain-analytics-proxy/internal/services/aggregator"
	"chain-analytics-proxy/internal/services/wallet"
	"chain-analytics-proxy/internal/stats"
	"chain-analytics-proxy/pkg/logger"
)

// TokenLists - агрегированные списки с кэшем
type TokenLists interface {
	Tokens(ctx context.Context) ([]byte, aggregator.Source, error)
	Pools(ctx context.Context) ([]byte, aggregator.Source, error)
	Invalidate(ctx context.Context) error
}

// DetailLookup - детальные запросы без кэша
type DetailLookup interface {
	Token(ctx context.Context, blockchain, tokenID string) (json.RawMessage, error)
	PoolMetrics(ctx context.Context, blockchain, pairAddress string) (json.RawMessage, error)
	PoolMetadata(ctx context.Context, blockchain, pairAddress string) (json.RawMessage, error)
}

// WalletLookup - баланс кошелька
type WalletLookup interface {
	Balance(ctx context.Context, address string) ([]byte, wallet.Outcome, error)
}

// HealthChecker - внешняя зависимость, которую видно в /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// Dependencies - сервисы, которые обслуживает сервер
type Dependencies struct {
	Lists        TokenLists
	Details      DetailLookup
	Wallets      WalletLookup
	Stats        *stats.Collector
	CacheBackend string
	Redis        HealthChecker // nil, если кэш в памяти
}

// Server - HTTP сервер прокси
type Server struct {
	config *config.Config
	deps   Dependencies

	handler http.Handler
	server  *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer создает сервер и регистрирует маршруты
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	if deps.Stats == nil {
		deps.Stats = stats.NewCollector()
	}

	s := &Server{config: cfg, deps: deps}

	mux := http.NewServeMux()
	s.route(mux, "GET /Token", "tokens", s.handleTokens)
	s.route(mux, "GET /pool", "pools", s.handlePools)
	s.route(mux, "GET /Token/{blockchain}/{tokenId}", "token_details", s.handleTokenDetails)
	s.route(mux, "GET /pooldetails/{blockchain}/{pairAddress}", "pool_details", s.handlePoolDetails)
	s.route(mux, "GET /poolmetadata/{blockchain}/{pairAddress}", "pool_metadata", s.handlePoolMetadata)
	s.route(mux, "GET /api/wallet-balance/{address}", "wallet_balance", s.handleWalletBalance)
	s.route(mux, "GET /health", "health", s.handleHealthCheck)
	s.route(mux, "GET /stats", "stats", s.handleStats)
	s.route(mux, "DELETE /cache", "cache_invalidate", s.handleInvalidate)

	s.handler = withCORS(cfg.CorsAllowedOrigins,
		withRequestID(
			withAccessLog(
				withRecovery(mux))))

	return s
}

func (s *Server) route(mux *http.ServeMux, pattern, name string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		s.deps.Stats.Request(name)
		h(w, r)
	})
}

// Handler возвращает корневой обработчик со всеми middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start занимает порт и начинает обслуживать запросы в фоне.
// Ошибка занятого порта возвращается сразу.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("server already started")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.ListenAddr(), err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// агрегирующие маршруты на промахе кэша опрашивают upstream последовательно
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("🚀 Server listening on %s", ln.Addr())

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("❌ HTTP server error: %v", err)
		}
	}(s.server)

	return nil
}

// Addr возвращает адрес, на котором слушает сервер
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop дожидается завершения активных запросов или истечения ctx
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	logger.Info("🛑 Stopping HTTP server...")
	if err := srv.Shutdown(ctx); err != nil {
		srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
