package models

// Requests for the price HTTP endpoints.

type PriceRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Class  string `query:"class" json:"class" validate:"required"`
}

type StreamRequest struct {
	Symbols string `query:"symbols" json:"symbols" validate:"required"`
}
