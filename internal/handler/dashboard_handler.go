package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"inbox-dashboard/internal/cache"
	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/service"
	"inbox-dashboard/internal/sse"

	"github.com/labstack/echo/v4"
)

type DashboardHandler struct {
	snapshots        *cache.SnapshotCache
	dashboardService service.DashboardService
	briefingService  service.BriefingService
	sseManager       *sse.SSEManager
	logger           echo.Logger
	now              func() time.Time
}

func NewDashboardHandler(
	snapshots *cache.SnapshotCache,
	dashboardService service.DashboardService,
	briefingService service.BriefingService,
	sseManager *sse.SSEManager,
	logger echo.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		snapshots:        snapshots,
		dashboardService: dashboardService,
		briefingService:  briefingService,
		sseManager:       sseManager,
		logger:           logger,
		now:              time.Now,
	}
}

// SummaryResponse carries the TL;DR line and the digests behind it.
type SummaryResponse struct {
	TLDR        string        `json:"tldr"`
	All         *model.Digest `json:"all"`
	LastHour    *model.Digest `json:"last_hour"`
	LastUpdated time.Time     `json:"last_updated"`
}

// GetDashboard returns the current snapshot, refreshing it when stale.
func (h *DashboardHandler) GetDashboard(c echo.Context) error {
	snapshot := h.snapshots.Get(c.Request().Context())
	return c.JSON(http.StatusOK, snapshot)
}

func (h *DashboardHandler) GetBriefing(c echo.Context) error {
	ctx := c.Request().Context()
	snapshot := h.snapshots.Get(ctx)
	briefing := h.briefingService.Briefing(ctx, snapshot)
	return c.JSON(http.StatusOK, briefing)
}

func (h *DashboardHandler) GetSummary(c echo.Context) error {
	snapshot := h.snapshots.Get(c.Request().Context())
	return c.JSON(http.StatusOK, &SummaryResponse{
		TLDR:        service.TLDR(snapshot.Emails),
		All:         service.Digest(service.WindowAll, snapshot.Emails),
		LastHour:    service.Hourly(snapshot.Emails, h.now()),
		LastUpdated: snapshot.LastUpdated,
	})
}

// GetToday fetches today's messages directly; it bypasses the snapshot cache.
func (h *DashboardHandler) GetToday(c echo.Context) error {
	digest := h.dashboardService.TodayDigest(c.Request().Context())
	return c.JSON(http.StatusOK, digest)
}

func (h *DashboardHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// StreamEvents provides Server-Sent Events for snapshot refreshes
func (h *DashboardHandler) StreamEvents(c echo.Context) error {
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")

	clientChannel := h.sseManager.AddClient()
	defer h.sseManager.RemoveClient(clientChannel)

	initEvent := map[string]interface{}{
		"type": "connection",
		"data": map[string]string{
			"message": "Connected to dashboard updates",
		},
		"time": h.now().Unix(),
	}
	initJSON, err := json.Marshal(initEvent)
	if err != nil {
		h.logger.Error("Failed to marshal connection event:", err)
		return err
	}
	fmt.Fprintf(c.Response(), "data: %s\n\n", initJSON)
	c.Response().Flush()

	for {
		select {
		case eventData, ok := <-clientChannel:
			if !ok {
				return nil
			}
			fmt.Fprintf(c.Response(), "data: %s\n\n", eventData)
			c.Response().Flush()
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
