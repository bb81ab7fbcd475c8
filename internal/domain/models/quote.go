package models

import "time"

// PriceQuote is a point-in-time price snapshot for a UI symbol.
// An error quote (Price 0, Error true) means "temporarily unavailable".
type PriceQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Bid           float64   `json:"bid"`
	Ask           float64   `json:"ask"`
	Spread        float64   `json:"spread"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Timestamp     time.Time `json:"timestamp"`
	Error         bool      `json:"error"`
}

// ErrorQuote builds the error-flagged quote for symbol.
func ErrorQuote(symbol string, at time.Time) PriceQuote {
	return PriceQuote{Symbol: symbol, Timestamp: at, Error: true}
}

// PriceUpdate is one row produced by a batch refresh.
type PriceUpdate struct {
	Symbol       string    `json:"symbol"`
	VendorSymbol string    `json:"vendorSymbol"`
	Price        float64   `json:"price"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
