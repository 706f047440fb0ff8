package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
)

const (
	NoEmailsBriefing   = "No new emails to report."
	maxPromptEmails    = 12
	promptPreviewLimit = 250
	urgentSubjectLimit = 50
	maxNewsletterNames = 3
)

var (
	urgentWords     = []string{"failed", "error", "production", "deploy"}
	securityWords   = []string{"token", "ssh", "sign in", "authentication"}
	newsletterWords = []string{"medium", "neil patel", "finimize", "newsletter", "digest"}
)

type briefingService struct {
	aiClient AIClient
	timeout  time.Duration
	logger   *logger.Logger
}

// NewBriefingService builds the executive briefing generator. aiClient may be
// nil, in which case every briefing comes from the template.
func NewBriefingService(aiClient AIClient, timeout time.Duration, logger *logger.Logger) BriefingService {
	return &briefingService{
		aiClient: aiClient,
		timeout:  timeout,
		logger:   logger,
	}
}

func (s *briefingService) Briefing(ctx context.Context, snapshot *model.Snapshot) *model.Briefing {
	briefing := &model.Briefing{
		Source:      model.BriefingSourceTemplate,
		Overview:    SnapshotOverview(snapshot),
		GeneratedAt: time.Now(),
	}

	if len(snapshot.Emails) == 0 {
		briefing.Text = NoEmailsBriefing
		return briefing
	}

	text, err := generate(ctx, s.aiClient, s.timeout, briefingPrompt(snapshot.Emails))
	if err == nil {
		briefing.Text = text
		briefing.Source = model.BriefingSourceAI
		return briefing
	}
	if !errors.Is(err, ErrNoSummarizer) {
		s.logger.Warn("AI briefing unavailable, using template:", err)
	}

	briefing.Text = TemplateBriefing(snapshot)
	return briefing
}

func briefingPrompt(emails []*model.AnalyzedEmail) string {
	if len(emails) > maxPromptEmails {
		emails = emails[:maxPromptEmails]
	}

	lines := make([]string, len(emails))
	for i, email := range emails {
		lines[i] = fmt.Sprintf("%d. %s: %s - %s", i+1, senderDisplayName(email.From), email.Subject, truncateRunes(email.Preview, promptPreviewLimit))
	}

	return fmt.Sprintf(`You are an executive assistant. Write a short executive briefing (one paragraph, 5-7 sentences) about the user's inbox based on these %d emails.
Call out the most urgent item, any security or sign-in notices, notable senders and newsletters.

%s

Briefing:`, len(emails), strings.Join(lines, "\n"))
}

type flaggedEmail struct {
	sender  string
	subject string
}

// TemplateBriefing renders the deterministic fallback briefing. The same
// snapshot always yields the same text.
func TemplateBriefing(snapshot *model.Snapshot) string {
	emails := snapshot.Emails
	if len(emails) == 0 {
		return NoEmailsBriefing
	}

	var urgent, security []flaggedEmail
	var newsletters []string
	for _, email := range emails {
		sender := senderDisplayName(email.From)
		text := strings.ToLower(email.Subject + " " + email.Preview)
		switch {
		case containsAny(text, urgentWords):
			urgent = append(urgent, flaggedEmail{sender: sender, subject: email.Subject})
		case containsAny(text, securityWords):
			security = append(security, flaggedEmail{sender: sender, subject: email.Subject})
		case containsAny(text, newsletterWords):
			newsletters = append(newsletters, sender)
		}
	}

	sentences := []string{
		fmt.Sprintf("%s! I've reviewed your inbox and you have %d new emails waiting for you.", greeting(snapshot.LastUpdated), len(emails)),
	}

	senders := topSenders(emails, 2)
	switch len(senders) {
	case 0:
	case 1:
		sentences = append(sentences, fmt.Sprintf("%s is your top sender with %s.", senders[0].Name, plural(senders[0].Count, "email")))
	default:
		sentences = append(sentences, fmt.Sprintf("%s and %s are your top senders with %d and %d emails respectively.",
			senders[0].Name, senders[1].Name, senders[0].Count, senders[1].Count))
	}

	if len(urgent) > 0 {
		subject := urgent[0].subject
		if cut := truncateRunes(subject, urgentSubjectLimit); cut != subject {
			subject = cut + "..."
		}
		sentences = append(sentences, fmt.Sprintf("The most urgent item requiring your attention is %q from %s, which you'll want to investigate and resolve promptly.", subject, urgent[0].sender))
	}

	if len(security) > 0 {
		names := make([]string, len(security))
		for i, f := range security {
			names[i] = f.sender
		}
		sentences = append(sentences, fmt.Sprintf("On the security front, there are authentication-related notifications from %s that are worth verifying were intentional.", strings.Join(uniqueStrings(names, 0), ", ")))
	}

	if len(newsletters) > 0 {
		sentences = append(sentences, fmt.Sprintf("Beyond that, your inbox includes newsletters from %s.", strings.Join(uniqueStrings(newsletters, maxNewsletterNames), ", ")))
	}

	if len(urgent) > 0 {
		sentences = append(sentences, "Start with the urgent item above before working through the rest of your inbox.")
	} else {
		sentences = append(sentences, "Nothing urgent is flagged, so the rest of your inbox can wait for a routine review.")
	}

	return strings.Join(sentences, " ")
}

func greeting(at time.Time) string {
	switch h := at.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// uniqueStrings keeps first occurrences in order; limit <= 0 means no limit.
func uniqueStrings(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
