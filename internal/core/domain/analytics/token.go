// internal/core/domain/analytics/token.go
package analytics

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenMetrics - элемент ответа /token/metrics (нужные поля)
type TokenMetrics struct {
	TokenSymbol      string `json:"token_symbol"`
	TokenName        string `json:"token_name"`
	Blockchain       string `json:"blockchain"`
	CurrentPrice     Number `json:"current_price"`
	TokenScore       Number `json:"token_score"`
	TradingVolume24h Number `json:"24hr_trading_volume"`
	TokenAddress     string `json:"token_address"`
}

// Number - числовое поле upstream. Приходит и числом, и строкой.
// null, пустая строка и нечисловые значения дают 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		data = []byte(strings.TrimSpace(s))
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = Number(v)
	return nil
}

// TokenSummary - строка агрегированного списка токенов
type TokenSummary struct {
	Ranking       int     `json:"ranking"`
	TokenSymbol   string  `json:"token_symbol"`
	TokenName     string  `json:"token_name"`
	Blockchain    string  `json:"blockchain"`
	CurrentPrice  float64 `json:"current_price"`
	TokenScore    float64 `json:"token_score"`
	TradingVolume float64 `json:"trading_volume"`
	TokenAddress  string  `json:"token_address"`
}

// ParseTokenMetrics декодирует сырой элемент ответа
func ParseTokenMetrics(raw json.RawMessage) (TokenMetrics, error) {
	var m TokenMetrics
	err := json.Unmarshal(raw, &m)
	return m, err
}

// Summarize приводит метрики к строке списка, подставляя значения по умолчанию
func (m TokenMetrics) Summarize(ranking int) TokenSummary {
	return TokenSummary{
		Ranking:       ranking,
		TokenSymbol:   orDefault(m.TokenSymbol, "N/A"),
		TokenName:     orDefault(m.TokenName, "Unknown"),
		Blockchain:    orDefault(capitalize(m.Blockchain), "Unknown"),
		CurrentPrice:  float64(m.CurrentPrice),
		TokenScore:    float64(m.TokenScore),
		TradingVolume: float64(m.TradingVolume24h),
		TokenAddress:  orDefault(m.TokenAddress, "N/A"),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// capitalize переводит в верхний регистр только первую букву
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// NormalizeChain - имя сети в виде, который принимает upstream
func NormalizeChain(chain string) string {
	return strings.ToLower(strings.TrimSpace(chain))
}
