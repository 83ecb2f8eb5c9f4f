package http

import (
	"strings"

	xutil "KryptoMarket/pkg/util"

	"github.com/labstack/echo/v4"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// HeaderDefault returns the trimmed header value or def when it is blank.
func HeaderDefault(c echo.Context, name, def string) string {
	if v := strings.TrimSpace(c.Request().Header.Get(name)); v != "" {
		return v
	}
	return def
}
