package service

import (
	"context"
	"errors"

	"inbox-dashboard/internal/model"
)

// ErrNoSummarizer is returned when a summary is requested but no AI client
// was configured.
var ErrNoSummarizer = errors.New("no summarizer configured")

type DashboardService interface {
	// BuildSnapshot runs fetch, analysis and aggregation once. It never fails:
	// transport trouble yields an empty snapshot.
	BuildSnapshot(ctx context.Context) *model.Snapshot
	TodayDigest(ctx context.Context) *model.TodayDigest
}

type BriefingService interface {
	Briefing(ctx context.Context, snapshot *model.Snapshot) *model.Briefing
}

// MailTransport opens read-only sessions against a mailbox.
type MailTransport interface {
	Connect(ctx context.Context) (MailSession, error)
}

// MailSession is the "search by date, fetch by id" capability. IDs returned
// by Search are only valid within the same session.
type MailSession interface {
	Search(ctx context.Context, query model.DateQuery) ([]string, error)
	Fetch(ctx context.Context, id string) ([]byte, error)
	Close() error
}

// AIClient interface for interacting with AI services
type AIClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
