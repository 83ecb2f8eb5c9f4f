package api

import (
	"net/http"
	"time"

	"KryptoMarket/internal/domain/models"
	"KryptoMarket/internal/usecase"
	xhttp "KryptoMarket/pkg/http"
	xlogger "KryptoMarket/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// AnalysisHandler serves the indicator views and their live stream.
type AnalysisHandler struct {
	logger   *xlogger.Logger
	analysis *usecase.AnalysisUseCase
	market   *usecase.MarketUseCase
	views    *usecase.ViewManager
	upgrader websocket.Upgrader

	pingPeriod time.Duration
}

func NewAnalysisHandler(logger *xlogger.Logger, analysis *usecase.AnalysisUseCase, market *usecase.MarketUseCase, views *usecase.ViewManager) *AnalysisHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalysisHandler{
		logger:   logger,
		analysis: analysis,
		market:   market,
		views:    views,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// the REST API is open to any origin, the stream follows suit
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pingPeriod: pingPeriod,
	}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/analysis")
	g.GET("", h.List)
	g.GET("/:symbol", h.Detail)
	g.GET("/:symbol/stream", h.Stream)
}

func (h *AnalysisHandler) List(c echo.Context) error {
	req := &models.AnalysisListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	items, err := h.analysis.List(c.Request().Context(), req.Interval, req.Query, req.Limit)
	if err != nil {
		return failResponse(c, h.logger, "analysis list", err)
	}
	return xhttp.ListResponse(c, items, int64(len(items)))
}

// Detail answers from a live view when one is watching the same symbol,
// interval and limit, and computes a fresh analysis otherwise.
func (h *AnalysisHandler) Detail(c echo.Context) error {
	req := &models.AnalysisDetailRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key, err := h.views.Key(req.Symbol, req.Interval, req.Limit)
	if err != nil {
		return failResponse(c, h.logger, "analysis detail", err)
	}
	if a, ok := h.views.Snapshot(key); ok {
		return xhttp.SuccessResponse(c, a)
	}

	a, err := h.analysis.Detail(c.Request().Context(), key.Pair, key.Interval, key.Limit)
	if err != nil {
		return failResponse(c, h.logger, "analysis detail", err)
	}
	return xhttp.SuccessResponse(c, a)
}

// Stream upgrades to a websocket and pushes every refresh of the shared view
// until the client leaves.
func (h *AnalysisHandler) Stream(c echo.Context) error {
	req := &models.AnalysisDetailRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key, err := h.views.Key(req.Symbol, req.Interval, req.Limit)
	if err != nil {
		return failResponse(c, h.logger, "analysis stream", err)
	}
	if err := h.market.EnsureSymbol(c.Request().Context(), key.Pair); err != nil {
		return failResponse(c, h.logger, "analysis stream", err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already answered the client
		h.logger.Debug("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	view, err := h.views.Acquire(key)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		return nil
	}
	defer h.views.Release(view)

	updates, unsubscribe := view.Updates()
	defer unsubscribe()

	log := h.logger.With(xlogger.String("view", key.String()))
	log.Debug("stream opened")
	defer log.Debug("stream closed")

	gone := make(chan struct{})
	go readPump(conn, gone)

	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return nil
		case u, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "view closed"),
					time.Now().Add(writeWait))
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(u); err != nil {
				log.Debug("stream write failed", xlogger.Error(err))
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

// readPump discards client messages and keeps the read deadline alive with
// pongs. It closes gone when the connection drops.
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
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
