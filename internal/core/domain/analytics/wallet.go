// internal/core/domain/analytics/wallet.go
package analytics

import (
	"encoding/json"
	"strings"
)

// WalletKind - формат адреса кошелька
type WalletKind string

const (
	WalletSolana   WalletKind = "solana"
	WalletEthereum WalletKind = "ethereum"
	WalletUnknown  WalletKind = "unknown"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ClassifyAddress определяет формат адреса по длине и алфавиту:
// 44 символа base58 - Solana, 0x + 42 символа - Ethereum.
func ClassifyAddress(address string) WalletKind {
	switch {
	case len(address) == 44 && isBase58(address):
		return WalletSolana
	case strings.HasPrefix(address, "0x") && len(address) == 42:
		return WalletEthereum
	default:
		return WalletUnknown
	}
}

func isBase58(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(base58Alphabet, r) {
			return false
		}
	}
	return true
}

// WalletToken - строка заглушки баланса
type WalletToken struct {
	TokenName    string `json:"token_name"`
	TokenSymbol  string `json:"token_symbol"`
	TokenAddress string `json:"token_address"`
	Quantity     string `json:"quantity"`
	Blockchain   string `json:"blockchain"`
}

// WalletBalance - ответ /api/wallet-balance, когда upstream ничего не вернул
type WalletBalance struct {
	Data       any            `json:"data"`
	Pagination map[string]any `json:"pagination"`
}

// NoDataFound - маркер отсутствия данных в поле data
const NoDataFound = "no_data_found"

// MockBalance возвращает заглушку для формата адреса
func MockBalance(kind WalletKind) WalletBalance {
	switch kind {
	case WalletSolana:
		return WalletBalance{
			Data: []WalletToken{
				{TokenName: "Solana", TokenSymbol: "SOL", TokenAddress: "So11111111111111111111111111111111111111112", Quantity: "1.5", Blockchain: "solana"},
				{TokenName: "SAP Token", TokenSymbol: "SAP", TokenAddress: "SAP1234567890123456789012345678901234567890", Quantity: "1000", Blockchain: "solana"},
			},
			Pagination: map[string]any{},
		}
	case WalletEthereum:
		return WalletBalance{
			Data: []WalletToken{
				{TokenName: "Ethereum", TokenSymbol: "ETH", TokenAddress: "0x0000000000000000000000000000000000000000", Quantity: "2.5", Blockchain: "ethereum"},
				{TokenName: "USD Coin", TokenSymbol: "USDC", TokenAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Quantity: "500", Blockchain: "ethereum"},
				{TokenName: "Tether USD", TokenSymbol: "USDT", TokenAddress: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Quantity: "1000", Blockchain: "ethereum"},
			},
			Pagination: map[string]any{},
		}
	default:
		return WalletBalance{Data: NoDataFound, Pagination: map[string]any{}}
	}
}

// Encode сериализует ответ
func (b WalletBalance) Encode() ([]byte, error) {
	return json.Marshal(b)
}
