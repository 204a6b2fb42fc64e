// internal/delivery/rest/handlers.go
package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chain-analytics-proxy/internal/services/aggregator"
	"chain-analytics-proxy/internal/services/details"
	"chain-analytics-proxy/pkg/logger"
)

const headerCache = "X-Cache"

// Сообщения об ошибках для клиента
const (
	msgTokenData     = "Failed to fetch token data"
	msgPoolData      = "Failed to fetch pool data"
	msgTokenDetails  = "Failed to fetch token details"
	msgPoolMetadata  = "Failed to fetch pool metadata"
	msgWalletBalance = "Failed to fetch wallet balance"
	msgNotFound      = "No data found"
)

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	payload, source, err := s.deps.Lists.Tokens(r.Context())
	if err != nil {
		logger.Error("❌ Error fetching token data [%s]: %v", RequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, msgTokenData)
		return
	}
	writeCached(w, payload, source)
}

func (s *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	payload, source, err := s.deps.Lists.Pools(r.Context())
	if err != nil {
		logger.Error("❌ Error fetching pool data [%s]: %v", RequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, msgPoolData)
		return
	}
	writeCached(w, payload, source)
}

func (s *Server) handleTokenDetails(w http.ResponseWriter, r *http.Request) {
	item, err := s.deps.Details.Token(r.Context(), r.PathValue("blockchain"), r.PathValue("tokenId"))
	s.writeDetail(w, r, item, err, msgTokenDetails)
}

func (s *Server) handlePoolDetails(w http.ResponseWriter, r *http.Request) {
	item, err := s.deps.Details.PoolMetrics(r.Context(), r.PathValue("blockchain"), r.PathValue("pairAddress"))
	s.writeDetail(w, r, item, err, msgPoolData)
}

func (s *Server) handlePoolMetadata(w http.ResponseWriter, r *http.Request) {
	item, err := s.deps.Details.PoolMetadata(r.Context(), r.PathValue("blockchain"), r.PathValue("pairAddress"))
	s.writeDetail(w, r, item, err, msgPoolMetadata)
}

func (s *Server) writeDetail(w http.ResponseWriter, r *http.Request, item json.RawMessage, err error, failure string) {
	switch {
	case errors.Is(err, details.ErrNotFound):
		logger.Warn("⚠️ %s [%s]: %v", r.URL.Path, RequestID(r.Context()), err)
		writeError(w, http.StatusNotFound, msgNotFound)
	case err != nil:
		s.deps.Stats.UpstreamError()
		logger.Error("❌ %s [%s]: %v", r.URL.Path, RequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, failure)
	default:
		writeRaw(w, http.StatusOK, item)
	}
}

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	payload, outcome, err := s.deps.Wallets.Balance(r.Context(), r.PathValue("address"))
	if err != nil {
		logger.Error("❌ Wallet balance error [%s]: %v", RequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, msgWalletBalance)
		return
	}
	logger.Debug("Wallet balance outcome: %s", outcome)
	writeRaw(w, http.StatusOK, payload)
}

// handleHealthCheck обрабатывает запросы проверки здоровья
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	response := map[string]interface{}{
		"status":  "ok",
		"cache":   s.deps.CacheBackend,
		"time":    time.Now().Format(time.RFC3339),
		"version": s.config.Version,
	}

	if s.deps.Redis != nil {
		healthy := s.deps.Redis.HealthCheck(r.Context())
		response["redis"] = healthy
		if !healthy {
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, response)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Stats.Snapshot())
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Lists.Invalidate(r.Context()); err != nil {
		logger.Error("❌ Cache invalidation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to invalidate cache")
		return
	}
	logger.Info("🧹 Aggregate cache invalidated")
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// ============================================
// ОТВЕТЫ
// ============================================

func writeCached(w http.ResponseWriter, payload []byte, source aggregator.Source) {
	if source == aggregator.SourceCache {
		w.Header().Set(headerCache, "HIT")
	} else {
		w.Header().Set(headerCache, "MISS")
	}
	writeRaw(w, http.StatusOK, payload)
}

func writeRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		logger.Debug("write response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Error("❌ Failed to encode response: %v", err)
		status = http.StatusInternalServerError
		payload = []byte(`{"error":"Internal server error"}`)
	}
	writeRaw(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
