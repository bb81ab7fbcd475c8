package models

import (
	"slices"
	"strings"
)

// AssetClass drives symbol-mapping rules and spread defaults.
type AssetClass string

const (
	ClassStock     AssetClass = "stock"
	ClassCrypto    AssetClass = "crypto"
	ClassForex     AssetClass = "forex"
	ClassCommodity AssetClass = "commodity"
)

// AssetClasses lists every supported class.
var AssetClasses = []AssetClass{ClassStock, ClassCrypto, ClassForex, ClassCommodity}

// IsValid reports whether c is a supported asset class.
func (c AssetClass) IsValid() bool {
	return slices.Contains(AssetClasses, c)
}

// ParseAssetClass normalizes raw input (case and surrounding space) into a class.
func ParseAssetClass(s string) (AssetClass, bool) {
	c := AssetClass(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", false
	}
	return c, true
}

// Asset is immutable reference data for a tradable instrument.
type Asset struct {
	Symbol        string     `json:"symbol"`
	Name          string     `json:"name"`
	Class         AssetClass `json:"assetClass"`
	BaseCurrency  string     `json:"baseCurrency"`
	QuoteCurrency string     `json:"quoteCurrency"`
	Precision     int        `json:"precision"`
	LotSize       float64    `json:"lotSize"`
	IsActive      bool       `json:"isActive"`
}

// SymbolRef identifies a UI symbol together with its asset class.
type SymbolRef struct {
	Symbol string
	Class  AssetClass
}

// Ref returns the asset's symbol reference.
func (a Asset) Ref() SymbolRef {
	return SymbolRef{Symbol: a.Symbol, Class: a.Class}
}

// NormalizeSymbol upper-cases and trims a UI ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
