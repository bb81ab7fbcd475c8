package api

import (
	"context"
	"net/http"
	"time"

	xlogger "PriceGate/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Pinger reports backend health.
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthHandler serves /healthz from a store ping.
type HealthHandler struct {
	logger *xlogger.Logger
	store  Pinger
}

func NewHealthHandler(logger *xlogger.Logger, store Pinger) *HealthHandler {
	return &HealthHandler{logger: logger, store: store}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
}

func (h *HealthHandler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Health(ctx); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "store": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
