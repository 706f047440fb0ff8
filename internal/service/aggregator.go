package service

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"inbox-dashboard/internal/analyzer"
	"inbox-dashboard/internal/model"
)

const (
	WindowAll      = "all"
	WindowLastHour = "last_hour"
	topN           = 3
)

// Aggregate folds analyzed emails (most recent first) into a snapshot.
// task_count is the sum of per-email task counts before the global dedup.
func Aggregate(emails []*model.AnalyzedEmail, now time.Time) *model.Snapshot {
	snapshot := model.EmptySnapshot(now)

	var allTasks []string
	for _, email := range emails {
		snapshot.Emails = append(snapshot.Emails, email)
		snapshot.Summary.Categories.Add(email.Category)
		snapshot.Summary.TaskCount += len(email.Tasks)
		snapshot.Summary.EventCount += len(email.Events)
		allTasks = append(allTasks, email.Tasks...)
		snapshot.Events = append(snapshot.Events, email.Events...)
	}

	snapshot.Summary.TotalEmails = len(emails)
	snapshot.Tasks = analyzer.DedupTasks(allTasks, analyzer.MaxTasks)
	return snapshot
}

type rankedCount struct {
	Name  string
	Count int
}

// counter tallies names and ranks them by count, ties keeping first-seen order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(name string) {
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

func (c *counter) top(n int) []rankedCount {
	ranked := make([]rankedCount, 0, len(c.order))
	for _, name := range c.order {
		ranked = append(ranked, rankedCount{Name: name, Count: c.counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func topSenders(emails []*model.AnalyzedEmail, n int) []rankedCount {
	c := newCounter()
	for _, email := range emails {
		c.add(senderDisplayName(email.From))
	}
	return c.top(n)
}

func topCategories(emails []*model.AnalyzedEmail, n int) []rankedCount {
	c := newCounter()
	for _, email := range emails {
		c.add(string(email.Category))
	}
	return c.top(n)
}

func senderDisplayName(from string) string {
	if idx := strings.Index(from, "<"); idx >= 0 {
		from = from[:idx]
	}
	return strings.TrimSpace(from)
}

func formatRanked(ranked []rankedCount) string {
	parts := make([]string, len(ranked))
	for i, r := range ranked {
		parts[i] = fmt.Sprintf("%s (%d)", r.Name, r.Count)
	}
	return strings.Join(parts, ", ")
}

func countTasks(emails []*model.AnalyzedEmail) int {
	n := 0
	for _, email := range emails {
		n += len(email.Tasks)
	}
	return n
}

// TLDR renders a one-line digest: count, top senders, top categories, tasks.
func TLDR(emails []*model.AnalyzedEmail) string {
	parts := []string{fmt.Sprintf("TL;DR: %d emails", len(emails))}
	if senders := topSenders(emails, topN); len(senders) > 0 {
		parts = append(parts, "Top senders: "+formatRanked(senders))
	}
	if categories := topCategories(emails, topN); len(categories) > 0 {
		parts = append(parts, "Top categories: "+formatRanked(categories))
	}
	parts = append(parts, fmt.Sprintf("%d tasks", countTasks(emails)))
	return strings.Join(parts, " | ")
}

// Digest summarizes the given emails under a window label.
func Digest(window string, emails []*model.AnalyzedEmail) *model.Digest {
	digest := &model.Digest{
		Window:      window,
		TotalEmails: len(emails),
		TaskCount:   countTasks(emails),
		TLDR:        TLDR(emails),
	}
	for _, email := range emails {
		digest.Categories.Add(email.Category)
	}
	return digest
}

// Hourly digests only the emails whose date parses to within the hour
// before now. Emails with unparseable dates are left out.
func Hourly(emails []*model.AnalyzedEmail, now time.Time) *model.Digest {
	cutoff := now.Add(-time.Hour)
	recent := make([]*model.AnalyzedEmail, 0, len(emails))
	for _, email := range emails {
		sent, err := ParseMailDate(email.Date)
		if err != nil {
			continue
		}
		if sent.Before(cutoff) || sent.After(now) {
			continue
		}
		recent = append(recent, email)
	}
	return Digest(WindowLastHour, recent)
}

var fallbackDateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC3339,
}

// ParseMailDate parses a transport-native Date header.
func ParseMailDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := mail.ParseDate(value); err == nil {
		return t, nil
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

var attentionWords = []string{"failed", "error", "alert", "warning"}

// Overview is the plain-language inbox summary used when no AI text is available.
func Overview(count int, senders []string, withTasks int, subjects []string) string {
	if count == 0 {
		return "No emails to summarize."
	}

	c := newCounter()
	for _, sender := range senders {
		c.add(senderDisplayName(sender))
	}

	parts := []string{fmt.Sprintf("You have %d emails in your inbox.", count)}
	if top := c.top(topN); len(top) > 0 {
		items := make([]string, len(top))
		for i, r := range top {
			items[i] = fmt.Sprintf("%d from %s", r.Count, r.Name)
		}
		parts = append(parts, fmt.Sprintf("Most are from %s.", strings.Join(items, ", ")))
	}
	if withTasks > 0 {
		parts = append(parts, fmt.Sprintf("%d emails may contain action items.", withTasks))
	}

	attention := 0
	for _, subject := range subjects {
		if containsAny(strings.ToLower(subject), attentionWords) {
			attention++
		}
	}
	if attention > 0 {
		parts = append(parts, fmt.Sprintf("%d emails require attention (failures/errors).", attention))
	}
	return strings.Join(parts, " ")
}

// SnapshotOverview applies Overview to the emails of a snapshot.
func SnapshotOverview(snapshot *model.Snapshot) string {
	senders := make([]string, len(snapshot.Emails))
	subjects := make([]string, len(snapshot.Emails))
	withTasks := 0
	for i, email := range snapshot.Emails {
		senders[i] = email.From
		subjects[i] = email.Subject
		if len(email.Tasks) > 0 {
			withTasks++
		}
	}
	return Overview(len(snapshot.Emails), senders, withTasks, subjects)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
