// internal/infrastructure/api/types.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope - стандартный ответ аналитического API: {"data": [...], "pagination": {...}}
type Envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination,omitempty"`

	// Raw - тело ответа целиком, как его вернул upstream
	Raw json.RawMessage `json:"-"`
}

// Items возвращает элементы data, если это массив
func (e *Envelope) Items() []json.RawMessage {
	if e == nil || len(e.Data) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(e.Data, &items); err != nil {
		return nil
	}
	return items
}

// First возвращает первый элемент data
func (e *Envelope) First() (json.RawMessage, bool) {
	items := e.Items()
	if len(items) == 0 {
		return nil, false
	}
	first := bytes.TrimSpace(items[0])
	if len(first) == 0 || bytes.Equal(first, []byte("null")) {
		return nil, false
	}
	return items[0], true
}

// HasData - data является непустым массивом
func (e *Envelope) HasData() bool {
	return len(e.Items()) > 0
}

// APIError - ответ upstream с кодом, отличным от 2xx
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, body)
}
