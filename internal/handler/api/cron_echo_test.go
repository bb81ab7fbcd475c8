package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domrepo "PriceGate/internal/domain/repository"

	"github.com/stretchr/testify/assert"
)

type refresherFunc func(ctx context.Context) (int, error)

func (f refresherFunc) Run(ctx context.Context) (int, error) { return f(ctx) }

func TestCronUpdatePrices(t *testing.T) {
	cases := []struct {
		name   string
		run    refresherFunc
		status int
		body   string
	}{
		{"ok", func(context.Context) (int, error) { return 3, nil }, http.StatusOK, "Updated 3 prices"},
		{"no assets", func(context.Context) (int, error) { return 0, domrepo.ErrNoActiveAssets }, http.StatusNotFound, `{"error":"no active assets"}`},
		{"store down", func(context.Context) (int, error) { return 0, errors.New("list active assets: db closed") }, http.StatusInternalServerError, `{"error":"list active assets: db closed"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho(NewCronEchoHandler(nopLogger, tc.run, ""))
			w := httptest.NewRecorder()
			e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cron/update-prices", nil))
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.body, w.Body.String())
			} else {
				assert.JSONEq(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestCronSecret(t *testing.T) {
	calls := 0
	run := refresherFunc(func(context.Context) (int, error) { calls++; return 1, nil })
	e := newEcho(NewCronEchoHandler(nopLogger, run, "s3cret"))

	for _, auth := range []string{"", "Bearer wrong", "s3cret"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/cron/update-prices", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		e.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, auth)
		assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String(), auth)
	}
	assert.Zero(t, calls)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cron/update-prices", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	e.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

func TestHealthz(t *testing.T) {
	f := newFixture()
	e := newEcho(NewHealthHandler(nopLogger, f.store))

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	f.store.healthErr = errors.New("db closed")
	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
