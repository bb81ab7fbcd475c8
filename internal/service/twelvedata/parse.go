package twelvedata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var errNoPrice = errors.New("response has no numeric price")

// APIError is the vendor's in-band failure payload: {"status":"error","code":..,"message":..}.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twelvedata error %d: %s", e.Code, e.Message)
}

type quotePayload struct {
	Price   json.RawMessage `json:"price"`
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
}

func (p quotePayload) err() error {
	if strings.EqualFold(p.Status, "error") {
		return &APIError{Code: p.Code, Message: p.Message}
	}
	return nil
}

// parsePrice accepts "1.0850" as well as 1.085 and rejects null or non-numeric values.
func parsePrice(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// decodeSingle reads the price for vendorSymbol from either the flat
// {"price":"…"} shape or the keyed {"EUR/USD":{"price":"…"}} shape.
func decodeSingle(body []byte, vendorSymbol string) (float64, error) {
	prices, err := decodeBatch(body, []string{vendorSymbol})
	if err != nil {
		return 0, err
	}
	price, ok := prices[vendorSymbol]
	if !ok {
		return 0, errNoPrice
	}
	return price, nil
}

// decodeBatch returns the numeric prices found for vendorSymbols. Symbols the
// vendor did not price are absent from the result. A top-level error payload
// fails the whole group.
func decodeBatch(body []byte, vendorSymbols []string) (map[string]float64, error) {
	var top quotePayload
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if err := top.err(); err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(vendorSymbols))

	// one-symbol requests come back flat
	if len(vendorSymbols) == 1 && len(top.Price) > 0 {
		if p, ok := parsePrice(top.Price); ok {
			prices[vendorSymbols[0]] = p
		}
		return prices, nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(body, &keyed); err != nil {
		return nil, fmt.Errorf("decode keyed response: %w", err)
	}
	for _, sym := range vendorSymbols {
		raw, ok := keyed[sym]
		if !ok {
			continue
		}
		var entry quotePayload
		if err := json.Unmarshal(raw, &entry); err != nil || entry.err() != nil {
			continue
		}
		if p, ok := parsePrice(entry.Price); ok {
			prices[sym] = p
		}
	}
	return prices, nil
}
