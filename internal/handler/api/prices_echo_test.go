package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	xhttp "PriceGate/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceEndpoint(t *testing.T) {
	f := newFixture()
	e := newEcho(NewPricesEchoHandler(nopLogger, f.prices, f.assets))

	cases := []struct {
		name   string
		query  string
		status int
		body   string
	}{
		{"ok", "?symbol=EURUSD&class=forex", http.StatusOK, `{"price":1.085}`},
		{"lower case input", "?symbol=btcusd&class=Crypto", http.StatusOK, `{"price":64000}`},
		{"missing class", "?symbol=EURUSD", http.StatusBadRequest, `{"error":"symbol or class missing"}`},
		{"missing symbol", "?class=forex", http.StatusBadRequest, `{"error":"symbol or class missing"}`},
		{"unknown class", "?symbol=EURUSD&class=bonds", http.StatusBadRequest, `{"error":"symbol or class missing"}`},
		{"vendor failure", "?symbol=XAUUSD&class=commodity", http.StatusBadGateway, `{"error":"price unavailable"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/price"+tc.query, nil))
			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

func TestPriceEndpointNotConfigured(t *testing.T) {
	f := newFixture()
	f.vendor.configured = false
	e := newEcho(NewPricesEchoHandler(nopLogger, f.prices, f.assets))

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/price?symbol=EURUSD&class=forex", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"TWELVE_DATA_API_KEY is not configured"}`, w.Body.String())
}

func TestAssetsEndpoint(t *testing.T) {
	f := newFixture()
	e := newEcho(NewPricesEchoHandler(nopLogger, f.prices, f.assets))

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assets", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		xhttp.APIResponse
		Data struct {
			Rows  []map[string]any `json:"rows"`
			Total int64            `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.EqualValues(t, 2, resp.Data.Total)
	assert.Equal(t, "EURUSD", resp.Data.Rows[0]["symbol"])
}
