// internal/core/domain/analytics/pool.go
package analytics

import (
	"encoding/json"
	"fmt"
)

// Pool - метаданные пула из upstream с добавленными rank, blockchain и pair_address.
// Остальные поля передаются как есть.
type Pool map[string]json.RawMessage

// NewPool дополняет сырой объект метаданных полями ранжирования.
// Поля rank, blockchain и pair_address перезаписываются значениями цели.
func NewPool(raw json.RawMessage, rank int, target Target) (Pool, error) {
	pool := Pool{}
	if err := json.Unmarshal(raw, &pool); err != nil {
		return nil, fmt.Errorf("pool metadata is not an object: %w", err)
	}
	if pool == nil {
		return nil, fmt.Errorf("pool metadata is null")
	}

	pool["rank"] = mustMarshal(rank)
	pool["blockchain"] = mustMarshal(target.Blockchain)
	pool["pair_address"] = mustMarshal(target.Address)
	return pool, nil
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
