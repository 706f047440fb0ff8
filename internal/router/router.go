package router

import (
	"net/http"

	"inbox-dashboard/internal/handler"
	"inbox-dashboard/internal/middleware"

	"github.com/labstack/echo/v4"
)

// SetupRoutes mounts the dashboard API. mcpHandler may be nil. Every other
// path falls through to echo's 404.
func SetupRoutes(e *echo.Echo, dashboardHandler *handler.DashboardHandler, mcpHandler http.Handler) {
	e.Pre(middleware.PreflightCORS("/api/"))
	e.Use(middleware.RequestID())

	e.GET("/health", dashboardHandler.Health)

	api := e.Group("/api")
	api.Use(middleware.PermissiveCORS())

	api.GET("/dashboard", dashboardHandler.GetDashboard)
	api.GET("/briefing", dashboardHandler.GetBriefing)
	api.GET("/summary", dashboardHandler.GetSummary)
	api.GET("/today", dashboardHandler.GetToday)

	// Real-time snapshot updates via Server-Sent Events (SSE)
	api.GET("/events", dashboardHandler.StreamEvents)

	if mcpHandler != nil {
		e.Any("/mcp", echo.WrapHandler(mcpHandler))
	}
}
