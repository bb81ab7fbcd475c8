package usecase

import "errors"

var (
	ErrVendorNotConfigured = errors.New("TWELVE_DATA_API_KEY is not configured")
	ErrMissingSymbol       = errors.New("symbol or class missing")
	ErrUnknownAssetClass   = errors.New("unknown asset class")
	ErrPriceUnavailable    = errors.New("price unavailable")
)
