package api

import (
	"KryptoMarket/internal/domain/models"
	"KryptoMarket/internal/usecase"
	xhttp "KryptoMarket/pkg/http"
	xlogger "KryptoMarket/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketHandler serves klines, the dashboard, movers and the coin list.
type MarketHandler struct {
	logger    *xlogger.Logger
	market    *usecase.MarketUseCase
	dashboard *usecase.DashboardUseCase
}

func NewMarketHandler(logger *xlogger.Logger, market *usecase.MarketUseCase, dashboard *usecase.DashboardUseCase) *MarketHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &MarketHandler{logger: logger, market: market, dashboard: dashboard}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/klines", h.Klines)
	g.GET("/dashboard", h.Dashboard)
	g.GET("/market/movers", h.Movers)
	g.GET("/coins", h.Coins)
}

func (h *MarketHandler) Klines(c echo.Context) error {
	req := &models.KlinesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	candles, err := h.market.Klines(c.Request().Context(), req.Symbol, req.Interval, req.Limit)
	if err != nil {
		return h.fail(c, "klines", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, candles)
}

func (h *MarketHandler) Dashboard(c echo.Context) error {
	cards, err := h.dashboard.Cards(c.Request().Context())
	if err != nil {
		return h.fail(c, "dashboard", err)
	}
	return xhttp.SuccessResponse(c, cards)
}

func (h *MarketHandler) Movers(c echo.Context) error {
	req := &models.MoversRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	movers, err := h.market.Movers(c.Request().Context(), req.Sort, req.Order)
	if err != nil {
		return h.fail(c, "movers", err)
	}
	return xhttp.SuccessResponse(c, movers)
}

func (h *MarketHandler) Coins(c echo.Context) error {
	req := &models.CoinsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	coins, err := h.market.Coins(c.Request().Context(), req.Query, req.Limit)
	if err != nil {
		return h.fail(c, "coins", err)
	}
	return xhttp.ListResponse(c, coins, int64(len(coins)))
}

func (h *MarketHandler) fail(c echo.Context, op string, err error) error {
	return failResponse(c, h.logger, op, err)
}

// failResponse logs server-side failures and renders err in the envelope.
// Client errors are not logged above debug.
func failResponse(c echo.Context, logger *xlogger.Logger, op string, err error) error {
	if status := xhttp.StatusOf(err); status >= 500 {
		logger.Error(op+" usecase error", xlogger.Int("status", status), xlogger.Error(err))
	} else {
		logger.Debug(op+" rejected", xlogger.Int("status", status), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, err)
}
