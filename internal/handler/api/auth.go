package api

import (
	"KryptoMarket/internal/domain/models"
	"KryptoMarket/internal/usecase"
	xhttp "KryptoMarket/pkg/http"
	xlogger "KryptoMarket/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AuthHandler exposes the nonce handshake used by the portfolio login page.
type AuthHandler struct {
	logger *xlogger.Logger
	auth   *usecase.AuthUseCase
}

func NewAuthHandler(logger *xlogger.Logger, auth *usecase.AuthUseCase) *AuthHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AuthHandler{logger: logger, auth: auth}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/auth/nonce", h.Nonce)
	e.GET("/api/auth/login-status", h.LoginStatus)
	e.GET("/api/portfolio/callback", h.Callback)
}

func (h *AuthHandler) Nonce(c echo.Context) error {
	s, err := h.auth.IssueNonce(c.Request().Context())
	if err != nil {
		return failResponse(c, h.logger, "auth nonce", err)
	}
	return xhttp.CreatedResponse(c, s)
}

func (h *AuthHandler) LoginStatus(c echo.Context) error {
	req := &models.LoginStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.auth.LoginStatus(c.Request().Context(), req.Nonce)
	if err != nil {
		return failResponse(c, h.logger, "auth login status", err)
	}
	return xhttp.SuccessResponse(c, s)
}

func (h *AuthHandler) Callback(c echo.Context) error {
	req := &models.PortfolioCallbackRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.auth.Callback(c.Request().Context(), req.Nonce, req.State, req.Status)
	if err != nil {
		return failResponse(c, h.logger, "portfolio callback", err)
	}
	return xhttp.SuccessResponse(c, s)
}
