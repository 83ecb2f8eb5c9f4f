package api

import (
	"KryptoMarket/internal/domain/models"
	"KryptoMarket/internal/usecase"
	xhttp "KryptoMarket/pkg/http"
	xlogger "KryptoMarket/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HeaderClientID names the owner of a favorites list.
const HeaderClientID = "X-Client-ID"

type FavoritesHandler struct {
	logger    *xlogger.Logger
	favorites *usecase.FavoritesUseCase
}

func NewFavoritesHandler(logger *xlogger.Logger, favorites *usecase.FavoritesUseCase) *FavoritesHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &FavoritesHandler{logger: logger, favorites: favorites}
}

func (h *FavoritesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/favorites")
	g.GET("", h.List)
	g.GET("/candidates", h.Candidates)
	g.POST("/:symbol/toggle", h.Toggle)
	g.PUT("/:symbol", h.Add)
	g.DELETE("/:symbol", h.Remove)
}

func owner(c echo.Context) string {
	return xhttp.HeaderDefault(c, HeaderClientID, usecase.DefaultOwner)
}

func (h *FavoritesHandler) List(c echo.Context) error {
	req := &models.FavoritesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	favs, err := h.favorites.List(c.Request().Context(), owner(c), req.Query)
	if err != nil {
		return failResponse(c, h.logger, "favorites list", err)
	}
	return xhttp.ListResponse(c, favs, int64(len(favs)))
}

func (h *FavoritesHandler) Candidates(c echo.Context) error {
	req := &models.FavoritesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	coins, err := h.favorites.Candidates(c.Request().Context(), owner(c), req.Query)
	if err != nil {
		return failResponse(c, h.logger, "favorites candidates", err)
	}
	return xhttp.ListResponse(c, coins, int64(len(coins)))
}

func (h *FavoritesHandler) Toggle(c echo.Context) error {
	req := &models.FavoriteSymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.favorites.Toggle(c.Request().Context(), owner(c), req.Symbol)
	if err != nil {
		return failResponse(c, h.logger, "favorites toggle", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *FavoritesHandler) Add(c echo.Context) error {
	req := &models.FavoriteSymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.favorites.Add(c.Request().Context(), owner(c), req.Symbol)
	if err != nil {
		return failResponse(c, h.logger, "favorites add", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *FavoritesHandler) Remove(c echo.Context) error {
	req := &models.FavoriteSymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.favorites.Remove(c.Request().Context(), owner(c), req.Symbol)
	if err != nil {
		return failResponse(c, h.logger, "favorites remove", err)
	}
	return xhttp.SuccessResponse(c, res)
}
