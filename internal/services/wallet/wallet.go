// internal/services/wallet/wallet.go
package wallet

import (
	"context"
	"fmt"

	"chain-analytics-proxy/internal/core/domain/analytics"
	"chain-analytics-proxy/internal/infrastructure/api"
	"chain-analytics-proxy/internal/infrastructure/config"
	"chain-analytics-proxy/pkg/logger"
)

// Outcome - чем закончился поиск баланса
type Outcome string

const (
	OutcomeUpstream     Outcome = "upstream"
	OutcomeMockSolana   Outcome = "mock_solana"
	OutcomeMockEthereum Outcome = "mock_ethereum"
	OutcomeNoData       Outcome = "no_data"
)

// Upstream - запрос баланса кошелька в одной сети
type Upstream interface {
	GetWalletTokenBalance(ctx context.Context, address, blockchain string) (*api.Envelope, error)
}

// Recorder получает события по кошелькам
type Recorder interface {
	Wallet(address string)
	WalletMock()
	UpstreamError()
}

type nopRecorder struct{}

func (nopRecorder) Wallet(string)  {}
func (nopRecorder) WalletMock()    {}
func (nopRecorder) UpstreamError() {}

// Service ищет баланс кошелька, перебирая сети по порядку
type Service struct {
	upstream Upstream
	chains   []string
	recorder Recorder
}

// NewService создает сервис. Пустой список сетей заменяется списком по умолчанию.
func NewService(upstream Upstream, chains []string, recorder Recorder) *Service {
	if len(chains) == 0 {
		chains = config.DefaultWalletChains
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{upstream: upstream, chains: chains, recorder: recorder}
}

// Balance возвращает первый непустой ответ upstream как есть.
// Если ни одна сеть не дала данных, возвращается заглушка по формату адреса.
func (s *Service) Balance(ctx context.Context, address string) ([]byte, Outcome, error) {
	logger.Info("👛 Wallet balance request for %s", address)
	s.recorder.Wallet(address)

	for _, chain := range s.chains {
		if err := ctx.Err(); err != nil {
			return nil, "", fmt.Errorf("wallet balance %s: %w", address, err)
		}

		envelope, err := s.upstream.GetWalletTokenBalance(ctx, address, chain)
		if err != nil {
			s.recorder.UpstreamError()
			logger.Debug("No data for blockchain %s: %v", chain, err)
			continue
		}
		if !envelope.HasData() {
			logger.Debug("Empty balance for %s on %s", address, chain)
			continue
		}

		logger.Info("✅ Found wallet data for %s on %s", address, chain)
		return envelope.Raw, OutcomeUpstream, nil
	}

	kind := analytics.ClassifyAddress(address)
	outcome := OutcomeNoData
	switch kind {
	case analytics.WalletSolana:
		outcome = OutcomeMockSolana
	case analytics.WalletEthereum:
		outcome = OutcomeMockEthereum
	}
	if outcome != OutcomeNoData {
		s.recorder.WalletMock()
		logger.Info("🧪 Providing mock data for %s wallet %s", kind, address)
	}

	payload, err := analytics.MockBalance(kind).Encode()
	if err != nil {
		return nil, "", fmt.Errorf("encode wallet balance: %w", err)
	}
	return payload, outcome, nil
}
