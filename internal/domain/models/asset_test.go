package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAssetClass(t *testing.T) {
	cases := map[string]struct {
		in   string
		want AssetClass
		ok   bool
	}{
		"forex":        {in: "forex", want: ClassForex, ok: true},
		"mixed case":   {in: " Crypto ", want: ClassCrypto, ok: true},
		"commodity":    {in: "COMMODITY", want: ClassCommodity, ok: true},
		"unknown":      {in: "bond", ok: false},
		"empty string": {in: "", ok: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseAssetClass(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAssetClassesAreValid(t *testing.T) {
	assert.Len(t, AssetClasses, 4)
	for _, c := range AssetClasses {
		got, ok := ParseAssetClass(" " + string(c) + " ")
		assert.True(t, ok, c)
		assert.Equal(t, c, got)
	}
	assert.False(t, AssetClass("bond").IsValid())
}

func TestErrorQuote(t *testing.T) {
	q := ErrorQuote("EURUSD", testTime)
	assert.True(t, q.Error)
	assert.Zero(t, q.Price)
	assert.Equal(t, "EURUSD", q.Symbol)
	assert.Equal(t, testTime, q.Timestamp)
}
