package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	domrepo "PriceGate/internal/domain/repository"
	xhttp "PriceGate/pkg/http"
	xlogger "PriceGate/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Refresher runs one batch price refresh.
type Refresher interface {
	Run(ctx context.Context) (int, error)
}

// CronEchoHandler exposes the batch refresh to an external scheduler.
type CronEchoHandler struct {
	logger  *xlogger.Logger
	updater Refresher
	secret  string
}

// NewCronEchoHandler requires "Authorization: Bearer <secret>" when secret is set.
func NewCronEchoHandler(logger *xlogger.Logger, updater Refresher, secret string) *CronEchoHandler {
	return &CronEchoHandler{logger: logger, updater: updater, secret: secret}
}

func (h *CronEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/cron/update-prices", h.UpdatePrices, h.authorize)
}

func (h *CronEchoHandler) authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.secret == "" {
			return next(c)
		}
		token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
			h.logger.Warn("cron trigger unauthorized", xlogger.String("remote", c.RealIP()))
			return xhttp.AppErrorJSON(c, xhttp.UnauthorizedError("unauthorized"))
		}
		return next(c)
	}
}

// UpdatePrices handles GET /api/cron/update-prices.
func (h *CronEchoHandler) UpdatePrices(c echo.Context) error {
	n, err := h.updater.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, domrepo.ErrNoActiveAssets) {
			return xhttp.ErrorJSON(c, http.StatusNotFound, domrepo.ErrNoActiveAssets.Error())
		}
		h.logger.Error("cron update prices failed", xlogger.Error(err))
		return xhttp.ErrorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.String(http.StatusOK, fmt.Sprintf("Updated %d prices", n))
}
