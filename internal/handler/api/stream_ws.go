package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	models "PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	"PriceGate/internal/usecase"
	xhttp "PriceGate/pkg/http"
	xlogger "PriceGate/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamFrame is one push on the quote stream.
type StreamFrame struct {
	Type      string              `json:"type"`
	Quotes    []models.PriceQuote `json:"quotes,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// StreamHandler pushes quotes for a fixed symbol set over a websocket.
type StreamHandler struct {
	logger     *xlogger.Logger
	prices     *usecase.PriceService
	assets     *usecase.AssetService
	interval   time.Duration
	maxSymbols int
	upgrader   websocket.Upgrader
}

func NewStreamHandler(logger *xlogger.Logger, prices *usecase.PriceService, assets *usecase.AssetService, interval time.Duration, maxSymbols int) *StreamHandler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &StreamHandler{
		logger:     logger,
		prices:     prices,
		assets:     assets,
		interval:   interval,
		maxSymbols: maxSymbols,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/prices/ws", h.Stream)
}

// Stream handles GET /api/prices/ws?symbols=EURUSD:forex,BTCUSD.
func (h *StreamHandler) Stream(c echo.Context) error {
	req := &models.StreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	refs, err := h.resolve(c.Request().Context(), req.Symbols)
	if err != nil {
		return xhttp.ErrorJSON(c, http.StatusBadRequest, err.Error())
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	h.logger.Info("stream opened",
		xlogger.String("remote", c.RealIP()),
		xlogger.Int("symbols", len(refs)),
	)
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go h.readLoop(conn, cancel)

	err = h.pushLoop(ctx, conn, refs)
	h.logger.Info("stream closed", xlogger.String("remote", c.RealIP()), xlogger.Error(err))
	return nil
}

// resolve parses "SYM[:class],..." and looks up the class of bare symbols.
func (h *StreamHandler) resolve(ctx context.Context, raw string) ([]models.SymbolRef, error) {
	seen := make(map[string]struct{})
	var refs []models.SymbolRef
	for _, part := range strings.Split(raw, ",") {
		sym, class, hasClass := strings.Cut(strings.TrimSpace(part), ":")
		sym = models.NormalizeSymbol(sym)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}

		var ref models.SymbolRef
		if hasClass {
			c, ok := models.ParseAssetClass(class)
			if !ok {
				return nil, fmt.Errorf("unknown asset class %q for %s", class, sym)
			}
			ref = models.SymbolRef{Symbol: sym, Class: c}
		} else {
			a, err := h.assets.Lookup(ctx, sym)
			if err != nil {
				if errors.Is(err, domrepo.ErrAssetNotFound) {
					return nil, fmt.Errorf("unknown symbol %s", sym)
				}
				return nil, fmt.Errorf("lookup %s: %w", sym, err)
			}
			ref = a.Ref()
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return nil, usecase.ErrMissingSymbol
	}
	if h.maxSymbols > 0 && len(refs) > h.maxSymbols {
		return nil, fmt.Errorf("too many symbols: %d > %d", len(refs), h.maxSymbols)
	}
	return refs, nil
}

// readLoop drains client frames so pongs and close frames are processed.
func (h *StreamHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) pushLoop(ctx context.Context, conn *websocket.Conn, refs []models.SymbolRef) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := h.push(ctx, conn, refs); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return ctx.Err()
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		case <-ticker.C:
			if err := h.push(ctx, conn, refs); err != nil {
				return err
			}
		}
	}
}

func (h *StreamHandler) push(ctx context.Context, conn *websocket.Conn, refs []models.SymbolRef) error {
	frame := StreamFrame{Type: "quotes", Timestamp: time.Now().UTC()}
	quotes, err := h.prices.Quotes(ctx, refs)
	if err != nil {
		frame.Type = "error"
		frame.Error = err.Error()
	} else {
		frame.Quotes = quotes
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
