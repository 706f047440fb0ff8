package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// PermissiveCORS sets Access-Control-Allow-Origin: * on every response,
// including requests that carry no Origin header.
func PermissiveCORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
			return next(c)
		}
	}
}

// PreflightCORS answers CORS preflight requests for paths under prefix
// with echo's CORS middleware. Register it with e.Pre so OPTIONS requests
// are handled before routing.
func PreflightCORS(prefix string) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, prefix)
		},
		AllowOrigins: []string{"*"},
	})
}

// RequestID tags every request and response with a UUID.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	})
}
