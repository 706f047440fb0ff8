package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissiveCORS(t *testing.T) {
	e := echo.New()
	e.Use(PermissiveCORS())
	e.GET("/api/dashboard", func(c echo.Context) error {
		return c.String(http.StatusOK, "{}")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestPreflightCORS(t *testing.T) {
	e := echo.New()
	e.Pre(PreflightCORS("/api/"))
	api := e.Group("/api")
	api.Use(PermissiveCORS())
	api.GET("/dashboard", func(c echo.Context) error {
		return c.String(http.StatusOK, "{}")
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodGet)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	id := rec.Header().Get(echo.HeaderXRequestID)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
}
