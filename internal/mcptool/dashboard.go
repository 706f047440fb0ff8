package mcptool

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"inbox-dashboard/internal/cache"
	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/service"
)

type GetDashboardRequest struct {
	Refresh   bool `json:"refresh,omitempty" jsonschema:"fetch fresh mail instead of using the cached snapshot"`
	MaxEmails int  `json:"max_emails,omitempty" jsonschema:"max emails to include (default 20)"`
}

type EmailSummary struct {
	ID       string `json:"id" jsonschema:"message ID"`
	From     string `json:"from" jsonschema:"sender display name"`
	Subject  string `json:"subject" jsonschema:"email subject"`
	Date     string `json:"date" jsonschema:"date header as sent"`
	Category string `json:"category" jsonschema:"assigned category"`
	Preview  string `json:"preview" jsonschema:"start of the body"`
}

type GetDashboardResponse struct {
	TotalEmails int            `json:"total_emails" jsonschema:"number of analyzed emails"`
	Categories  map[string]int `json:"categories" jsonschema:"email count per category"`
	TaskCount   int            `json:"task_count" jsonschema:"tasks found before deduplication"`
	EventCount  int            `json:"event_count" jsonschema:"meeting-type mentions found"`
	Tasks       []string       `json:"tasks" jsonschema:"deduplicated action items"`
	Events      []string       `json:"events" jsonschema:"detected event keywords"`
	Emails      []EmailSummary `json:"emails" jsonschema:"most recent emails first"`
	TLDR        string         `json:"tldr" jsonschema:"one-line digest"`
	LastUpdated string         `json:"last_updated" jsonschema:"RFC 3339 time of the snapshot"`
}

type GetBriefingRequest struct{}

type GetBriefingResponse struct {
	Briefing string `json:"briefing" jsonschema:"briefing paragraph"`
	Source   string `json:"source" jsonschema:"ai or template"`
	Overview string `json:"overview" jsonschema:"plain-language inbox overview"`
}

const defaultMaxEmails = 20

type DashboardTools struct {
	snapshots *cache.SnapshotCache
	briefings service.BriefingService
}

func NewDashboardTools(snapshots *cache.SnapshotCache, briefings service.BriefingService) *DashboardTools {
	return &DashboardTools{snapshots: snapshots, briefings: briefings}
}

func (t *DashboardTools) snapshot(ctx context.Context, refresh bool) *model.Snapshot {
	if refresh {
		return t.snapshots.Refresh(ctx)
	}
	return t.snapshots.Get(ctx)
}

func (t *DashboardTools) GetDashboard(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetDashboardRequest,
) (*mcp.CallToolResult, GetDashboardResponse, error) {
	snapshot := t.snapshot(ctx, input.Refresh)

	maxEmails := input.MaxEmails
	if maxEmails <= 0 {
		maxEmails = defaultMaxEmails
	}

	emails := snapshot.Emails
	if len(emails) > maxEmails {
		emails = emails[:maxEmails]
	}
	summaries := make([]EmailSummary, 0, len(emails))
	for _, e := range emails {
		summaries = append(summaries, EmailSummary{
			ID:       e.ID,
			From:     e.From,
			Subject:  e.Subject,
			Date:     e.Date,
			Category: string(e.Category),
			Preview:  e.Preview,
		})
	}

	events := make([]string, 0, len(snapshot.Events))
	for _, e := range snapshot.Events {
		events = append(events, e.Type)
	}

	tasks := make([]string, 0, len(snapshot.Tasks))
	tasks = append(tasks, snapshot.Tasks...)

	return nil, GetDashboardResponse{
		TotalEmails: snapshot.Summary.TotalEmails,
		Categories:  snapshot.Summary.Categories.Map(),
		TaskCount:   snapshot.Summary.TaskCount,
		EventCount:  snapshot.Summary.EventCount,
		Tasks:       tasks,
		Events:      events,
		Emails:      summaries,
		TLDR:        service.TLDR(snapshot.Emails),
		LastUpdated: snapshot.LastUpdated.Format(time.RFC3339),
	}, nil
}

func (t *DashboardTools) GetBriefing(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetBriefingRequest,
) (*mcp.CallToolResult, GetBriefingResponse, error) {
	briefing := t.briefings.Briefing(ctx, t.snapshots.Get(ctx))

	return nil, GetBriefingResponse{
		Briefing: briefing.Text,
		Source:   briefing.Source,
		Overview: briefing.Overview,
	}, nil
}
