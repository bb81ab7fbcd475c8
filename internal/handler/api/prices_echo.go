package api

import (
	"net/http"

	models "PriceGate/internal/domain/models"
	"PriceGate/internal/usecase"
	xhttp "PriceGate/pkg/http"
	xlogger "PriceGate/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PriceResponse is the body of a successful GET /api/price.
type PriceResponse struct {
	Price float64 `json:"price"`
}

// PricesEchoHandler serves single quotes and the asset list.
type PricesEchoHandler struct {
	logger *xlogger.Logger
	prices *usecase.PriceService
	assets *usecase.AssetService
}

func NewPricesEchoHandler(logger *xlogger.Logger, prices *usecase.PriceService, assets *usecase.AssetService) *PricesEchoHandler {
	return &PricesEchoHandler{logger: logger, prices: prices, assets: assets}
}

func (h *PricesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/price", h.Price)
	g.GET("/assets", h.Assets)
}

// Price handles GET /api/price?symbol=&class=.
func (h *PricesEchoHandler) Price(c echo.Context) error {
	req := &models.PriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ErrorJSON(c, http.StatusBadRequest, usecase.ErrMissingSymbol.Error())
	}

	q, err := h.prices.Quote(c.Request().Context(), req.Symbol, req.Class)
	if err != nil {
		appErr := toAppError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("price usecase error",
				xlogger.String("symbol", req.Symbol),
				xlogger.String("class", req.Class),
				xlogger.Error(err),
			)
		}
		return xhttp.AppErrorJSON(c, appErr)
	}
	return c.JSON(http.StatusOK, PriceResponse{Price: q.Price})
}

// Assets handles GET /api/assets.
func (h *PricesEchoHandler) Assets(c echo.Context) error {
	assets, err := h.assets.ActiveAssets(c.Request().Context())
	if err != nil {
		h.logger.Error("assets usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.ListResponse(c, assets, int64(len(assets)))
}
