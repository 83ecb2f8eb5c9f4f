package api

import (
	xhttp "KryptoMarket/pkg/http"

	"github.com/labstack/echo/v4"
)

// Router registers every API handler on the server.
type Router struct {
	handlers []xhttp.Handler
}

var _ xhttp.Handler = (*Router)(nil)

func NewRouter(market *MarketHandler, favorites *FavoritesHandler, analysis *AnalysisHandler, auth *AuthHandler) *Router {
	return &Router{handlers: []xhttp.Handler{market, favorites, analysis, auth}}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}
