package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"inbox-dashboard/internal/analyzer"
	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/normalizer"
	"inbox-dashboard/internal/repository"
)

type DashboardOptions struct {
	FetchLimit   int
	LookbackDays int
	BodyLimit    int
	FetchTimeout time.Duration
	AITimeout    time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func DefaultDashboardOptions() DashboardOptions {
	return DashboardOptions{
		FetchLimit:   20,
		LookbackDays: 7,
		BodyLimit:    normalizer.DefaultBodyLimit,
		FetchTimeout: 60 * time.Second,
		AITimeout:    30 * time.Second,
	}
}

type dashboardService struct {
	transport MailTransport
	store     repository.SnapshotStore
	aiClient  AIClient
	opts      DashboardOptions
	snapshots *normalizer.Normalizer
	digests   *normalizer.Normalizer
	logger    *logger.Logger
}

// NewDashboardService wires the pipeline. store and aiClient may be nil.
func NewDashboardService(
	transport MailTransport,
	store repository.SnapshotStore,
	aiClient AIClient,
	opts DashboardOptions,
	logger *logger.Logger,
) DashboardService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &dashboardService{
		transport: transport,
		store:     store,
		aiClient:  aiClient,
		opts:      opts,
		snapshots: normalizer.New(normalizer.Options{BodyLimit: opts.BodyLimit}, logger),
		digests:   normalizer.New(normalizer.Options{BodyLimit: normalizer.DigestBodyLimit, CleanURLs: true}, logger),
		logger:    logger,
	}
}

func (s *dashboardService) BuildSnapshot(ctx context.Context) *model.Snapshot {
	started := s.opts.Now()
	since := started.AddDate(0, 0, -s.opts.LookbackDays)

	raws := s.fetch(ctx, model.Since(since), s.opts.FetchLimit)
	emails := s.analyzeAll(raws)
	snapshot := Aggregate(emails, started)

	s.logger.Infof("Built snapshot: %d emails, %d tasks, %d events",
		snapshot.Summary.TotalEmails, len(snapshot.Tasks), len(snapshot.Events))

	if err := ctx.Err(); err != nil {
		s.logger.Warn("Snapshot not persisted, build was cancelled:", err)
		return snapshot
	}
	if s.store != nil {
		if err := s.store.Save(ctx, snapshot); err != nil {
			s.logger.Error("Failed to persist snapshot:", err)
		}
	}
	return snapshot
}

// fetch pulls raw messages matching query, keeping the last limit ids and
// returning them newest first. Transport failures and an expired deadline
// yield an empty list; a single failed fetch skips that message.
func (s *dashboardService) fetch(ctx context.Context, query model.DateQuery, limit int) []model.RawMessage {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	session, err := s.transport.Connect(ctx)
	if err != nil {
		s.logger.Error("Failed to connect to mail transport:", err)
		return nil
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Warn("Failed to close mail session:", err)
		}
	}()

	ids, err := session.Search(ctx, query)
	if err != nil {
		s.logger.Error("Failed to search mailbox:", err)
		return nil
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}

	raws := make([]model.RawMessage, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			s.logger.Error("Mail fetch deadline exceeded:", err)
			return nil
		}
		data, err := session.Fetch(ctx, ids[i])
		if err != nil {
			s.logger.Warnf("Failed to fetch message %s: %v", ids[i], err)
			continue
		}
		raws = append(raws, model.RawMessage{ID: ids[i], Data: data})
	}

	s.logger.Infof("Fetched %d of %d messages (%s %s)", len(raws), len(ids), query.Mode, query.Date.Format("02-Jan-2006"))
	return raws
}

// analyzeAll normalizes and analyzes messages concurrently, keeping input order.
func (s *dashboardService) analyzeAll(raws []model.RawMessage) []*model.AnalyzedEmail {
	results := make([]*model.AnalyzedEmail, len(raws))

	var wg sync.WaitGroup
	for i, raw := range raws {
		wg.Add(1)
		go func(i int, raw model.RawMessage) {
			defer wg.Done()
			results[i] = analyzer.Analyze(s.snapshots.Normalize(raw))
		}(i, raw)
	}
	wg.Wait()

	return results
}

func (s *dashboardService) TodayDigest(ctx context.Context) *model.TodayDigest {
	now := s.opts.Now()
	raws := s.fetch(ctx, model.On(now), 0)

	digest := &model.TodayDigest{
		Date:   now.Format("2006-01-02"),
		Emails: make([]*model.TodayEmail, 0, len(raws)),
		Source: model.BriefingSourceTemplate,
	}

	senders := make([]string, 0, len(raws))
	subjects := make([]string, 0, len(raws))
	withTasks := 0
	for _, raw := range raws {
		msg := s.digests.Normalize(raw)
		digest.Emails = append(digest.Emails, &model.TodayEmail{
			From:    msg.From,
			Subject: msg.Subject,
			Date:    msg.Date,
			Body:    msg.Body,
			Summary: QuickSummary(msg.Subject, msg.From),
		})
		senders = append(senders, msg.From)
		subjects = append(subjects, msg.Subject)
		if len(analyzer.ExtractTasks(msg.Subject, msg.Body)) > 0 {
			withTasks++
		}
	}
	digest.TotalEmails = len(digest.Emails)
	digest.Summary = Overview(digest.TotalEmails, senders, withTasks, subjects)

	if digest.TotalEmails == 0 {
		return digest
	}

	text, err := s.summarize(ctx, todayPrompt(digest.Emails))
	if err != nil {
		s.logger.Warn("Falling back to rule-based daily summary:", err)
		return digest
	}
	digest.Summary = text
	digest.Source = model.BriefingSourceAI
	return digest
}

// summarize calls the AI client under the configured timeout.
func (s *dashboardService) summarize(ctx context.Context, prompt string) (string, error) {
	return generate(ctx, s.aiClient, s.opts.AITimeout, prompt)
}

func generate(ctx context.Context, client AIClient, timeout time.Duration, prompt string) (string, error) {
	if client == nil {
		return "", ErrNoSummarizer
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	text, err := client.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("failed to generate summary: empty response")
	}
	return text, nil
}

const todayBodyInPrompt = 800

func todayPrompt(emails []*model.TodayEmail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an executive assistant summarizing the user's inbox. "+
		"Write a clear, concise paragraph (4-6 sentences) summarizing these %d emails from today.\n\n", len(emails))
	b.WriteString("Focus on:\n1. What are the main themes/topics?\n2. Are there any urgent items requiring attention?\n" +
		"3. What actions might be needed?\n4. Any patterns or notable senders?\n\nHere are the emails:\n")
	for i, email := range emails {
		fmt.Fprintf(&b, "\nEMAIL %d:\nFrom: %s\nSubject: %s\nBody: %s\n---", i+1, email.From, email.Subject, truncateRunes(email.Body, todayBodyInPrompt))
	}
	b.WriteString("\n\nWrite a natural, flowing summary paragraph:")
	return b.String()
}

// QuickSummary is a one-line, rule-based description of a message.
func QuickSummary(subject, sender string) string {
	subjectLower := strings.ToLower(subject)
	senderLower := strings.ToLower(sender)

	switch {
	case strings.Contains(subjectLower, "failed") || strings.Contains(subjectLower, "error"):
		return "Deployment or process failed. Check details and take corrective action if needed."
	case strings.Contains(subjectLower, "sign in") || strings.Contains(subjectLower, "login"):
		return "New sign-in detected on your account. Review if this was you."
	case strings.Contains(subjectLower, "token") || strings.Contains(subjectLower, "ssh"):
		return "New authentication credentials added to your account. Verify this was intentional."
	case strings.Contains(subjectLower, "added") && strings.Contains(senderLower, "github"):
		return "New item added to your GitHub account. Review the change."
	case strings.Contains(senderLower, "vercel"):
		return "Vercel account activity notification. Review for any issues."
	case strings.Contains(senderLower, "github"):
		return "GitHub account notification. Check for any required actions."
	default:
		return fmt.Sprintf("Notification from %s. Review contents for any important information.", sender)
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
