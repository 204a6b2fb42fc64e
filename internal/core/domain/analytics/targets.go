// internal/core/domain/analytics/targets.go
package analytics

import (
	"fmt"
	"strings"
)

// Target - пара (сеть, адрес), опрашиваемая при агрегации
type Target struct {
	Blockchain string
	Address    string
}

func (t Target) String() string {
	return t.Blockchain + ":" + t.Address
}

// DefaultTokenTargets - токены для списка /Token, в порядке ранжирования
func DefaultTokenTargets() []Target {
	return expand([]chainAddresses{
		{"ethereum", []string{
			"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"0xdAC17F958D2ee523a2206206994597C13D831ec7",
			"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599",
			"0x6982508145454ce325ddbe47a25d4ec3d2311933",
			"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		}},
		{"polygon", []string{
			"0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
			"0xc2132D05D31c914a87C6611C10748AEb04B58e8F",
			"0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619",
			"0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270",
			"0x53E0bca35eC356BD5ddDFebbD1Fc0fD03FaBad39",
		}},
		{"avalanche", []string{
			"0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
			"0x9702230A8Ea53601f5cD2dc00fDBc13d4dF4A8c7",
			"0x49D5c2BdFfac6CE2BFdB6640F4F80f226bc10bAB",
			"0x152b9d0FdC40C096757F570A51E494bd4b943E50",
			"0x5947BB275c521040051D82396192181b413227A3",
		}},
	})
}

// DefaultPoolTargets - пулы для списка /pool
func DefaultPoolTargets() []Target {
	return expand([]chainAddresses{
		{"ethereum", []string{
			"0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc",
			"0xa478c2975ab1ea89e8196811f51a7b7ade33eb11",
			"0x0d4a11d5eeaac28ec3f61d100daf4d40471f1852",
			"0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640",
		}},
		{"polygon", []string{
			"0x853ee4b2a13f8a742d64c8f088be7ba2131f670d",
			"0xadbf1854e5883eb8aa7baf50705338739e558e5b",
			"0x0c132d363996511c385b5b9491d20502a9ce2bbf",
		}},
		{"avalanche", []string{
			"0x9ee0a4e21bd333a6bb2ab298194320b8daa26516",
			"0xa389f9430876455c36478deea9769b7ca4e3ddb1",
		}},
	})
}

type chainAddresses struct {
	chain     string
	addresses []string
}

func expand(groups []chainAddresses) []Target {
	var targets []Target
	for _, g := range groups {
		for _, addr := range g.addresses {
			targets = append(targets, Target{Blockchain: g.chain, Address: addr})
		}
	}
	return targets
}

// ParseTargets разбирает список вида "ethereum:0xabc,polygon:0xdef".
// Пустая строка - пустой список без ошибки.
func ParseTargets(value string) ([]Target, error) {
	var targets []Target
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		chain, addr, ok := strings.Cut(part, ":")
		chain = strings.ToLower(strings.TrimSpace(chain))
		addr = strings.TrimSpace(addr)
		if !ok || chain == "" || addr == "" {
			return nil, fmt.Errorf("invalid target %q: expected chain:address", part)
		}

		targets = append(targets, Target{Blockchain: chain, Address: addr})
	}
	return targets, nil
}
