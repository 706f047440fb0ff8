package mcptool

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"inbox-dashboard/internal/cache"
	"inbox-dashboard/internal/service"
)

const (
	serverName    = "inbox-dashboard"
	serverVersion = "v1.0.0"
)

func NewServer(snapshots *cache.SnapshotCache, briefings service.BriefingService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	tools := NewDashboardTools(snapshots, briefings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Get the current inbox snapshot: category counts, extracted tasks, detected events and recent emails",
	}, tools.GetDashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_briefing",
		Description: "Get a short executive briefing paragraph about the inbox",
	}, tools.GetBriefing)

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return server }, nil)
}
