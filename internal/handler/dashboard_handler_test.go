package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-dashboard/internal/ai"
	"inbox-dashboard/internal/cache"
	"inbox-dashboard/internal/gmail"
	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/service"
	"inbox-dashboard/internal/sse"
)

var fixedNow = time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)

func rawMail(from, subject, date, body string) []byte {
	return []byte("From: " + from + "\r\nSubject: " + subject + "\r\nDate: " + date +
		"\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" + body + "\r\n")
}

func seededSession() *gmail.MockMailSession {
	session := gmail.NewMockMailSession()
	session.Add("1", rawMail("Alice <alice@example.com>", "Project deadline moved",
		"Mon, 2 Jun 2025 09:00:00 +0000", "Please review the attached contract by Friday."))
	session.Add("2", rawMail("Shop <orders@shop.example>", "Your Amazon order has shipped",
		"Mon, 2 Jun 2025 13:30:00 +0000", "Tracking number 123"))
	return session
}

func newTestHandler(session *gmail.MockMailSession, aiClient service.AIClient) *DashboardHandler {
	log := logger.NewWithWriter(&bytes.Buffer{})
	opts := service.DefaultDashboardOptions()
	opts.Now = func() time.Time { return fixedNow }

	dashboard := service.NewDashboardService(gmail.NewMockMailTransport(session), nil, aiClient, opts, log)
	snapshots := cache.NewSnapshotCache(func(ctx context.Context) (*model.Snapshot, error) {
		return dashboard.BuildSnapshot(ctx), nil
	}, nil, cache.DefaultTTL, log)

	h := NewDashboardHandler(snapshots, dashboard, service.NewBriefingService(aiClient, time.Second, log), sse.NewSSEManager(log), echo.New().Logger)
	h.now = func() time.Time { return fixedNow }
	return h
}

func serve(t *testing.T, handle echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handle(e.NewContext(req, rec)))
	return rec
}

func TestGetDashboard(t *testing.T) {
	session := seededSession()
	h := newTestHandler(session, nil)

	rec := serve(t, h.GetDashboard, "/api/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)

	var snapshot model.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, 2, snapshot.Summary.TotalEmails)
	assert.Equal(t, []model.Category{model.CategoryShopping, model.CategoryWork}, snapshot.Summary.Categories.Keys())
	assert.Equal(t, "2", snapshot.Emails[0].ID)
	assert.True(t, fixedNow.Equal(snapshot.LastUpdated))
	assert.Contains(t, rec.Body.String(), `"categories":{"shopping":1,"work":1}`)

	serve(t, h.GetDashboard, "/api/dashboard")
	assert.Len(t, session.Queries, 1, "second read is served from cache")
}

func TestGetDashboardTransportDown(t *testing.T) {
	transportDown := gmail.NewMockMailSession()
	transportDown.SearchFunc = func(ctx context.Context, query model.DateQuery) ([]string, error) {
		return nil, assert.AnError
	}
	h := newTestHandler(transportDown, nil)

	rec := serve(t, h.GetDashboard, "/api/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_emails":0`)
	assert.Contains(t, rec.Body.String(), `"categories":{}`)
	assert.Contains(t, rec.Body.String(), `"tasks":[]`)

	rec = serve(t, h.GetBriefing, "/api/briefing")
	var briefing model.Briefing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &briefing))
	assert.Equal(t, service.NoEmailsBriefing, briefing.Text)
}

func TestGetBriefing(t *testing.T) {
	mock := ai.NewMockAIClient()
	mock.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "Two emails: a deadline and a shipment.", nil
	}
	h := newTestHandler(seededSession(), mock)

	rec := serve(t, h.GetBriefing, "/api/briefing")

	var briefing model.Briefing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &briefing))
	assert.Equal(t, "Two emails: a deadline and a shipment.", briefing.Text)
	assert.Equal(t, model.BriefingSourceAI, briefing.Source)
	require.Len(t, mock.Prompts, 1)
	assert.Contains(t, mock.Prompts[0], "1. Shop: Your Amazon order has shipped")
}

func TestGetBriefingTemplate(t *testing.T) {
	h := newTestHandler(seededSession(), nil)

	rec := serve(t, h.GetBriefing, "/api/briefing")

	var briefing model.Briefing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &briefing))
	assert.Equal(t, model.BriefingSourceTemplate, briefing.Source)
	assert.True(t, strings.HasPrefix(briefing.Text, "Good afternoon!"))
}

func TestGetSummary(t *testing.T) {
	h := newTestHandler(seededSession(), nil)

	rec := serve(t, h.GetSummary, "/api/summary")

	var summary SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.True(t, strings.HasPrefix(summary.TLDR, "TL;DR: 2 emails | Top senders: Shop (1), Alice (1)"))
	assert.Equal(t, 2, summary.All.TotalEmails)
	assert.Equal(t, 1, summary.LastHour.TotalEmails)
	assert.Equal(t, service.WindowLastHour, summary.LastHour.Window)
}

func TestGetToday(t *testing.T) {
	mock := ai.NewMockAIClient()
	h := newTestHandler(seededSession(), mock)

	rec := serve(t, h.GetToday, "/api/today")

	var digest model.TodayDigest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &digest))
	assert.Equal(t, "2025-06-02", digest.Date)
	assert.Equal(t, 2, digest.TotalEmails)
	assert.Equal(t, model.BriefingSourceAI, digest.Source)
	assert.NotEmpty(t, digest.Summary)
}

func TestHealth(t *testing.T) {
	h := newTestHandler(seededSession(), nil)

	rec := serve(t, h.Health, "/health")
	assert.Equal(t, "OK", rec.Body.String())
}
