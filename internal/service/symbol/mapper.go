// Package symbol converts UI tickers into the price vendor's symbol syntax.
package symbol

import (
	"strings"

	"PriceGate/internal/domain/models"
)

const cryptoQuote = "USD"

// Map returns the vendor symbol for a UI symbol of the given class.
// Forex input is split as 3+3 without validation; a malformed ticker yields a
// malformed vendor symbol that the vendor later rejects.
func Map(symbol string, class models.AssetClass) string {
	switch class {
	case models.ClassForex:
		if len(symbol) < 3 {
			return symbol
		}
		return symbol[:3] + "/" + symbol[3:]
	case models.ClassCrypto:
		return strings.TrimSuffix(symbol, cryptoQuote) + "/" + cryptoQuote
	default:
		return symbol
	}
}

// MapAll maps refs in order. Callers re-key vendor results by position, since
// distinct UI symbols can share a vendor symbol ("BTC" and "BTCUSD").
func MapAll(refs []models.SymbolRef) []string {
	vendor := make([]string, 0, len(refs))
	for _, r := range refs {
		vendor = append(vendor, Map(r.Symbol, r.Class))
	}
	return vendor
}
