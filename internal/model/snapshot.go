package model

import "time"

// EventDetails is the fixed details marker attached to every detected event.
const EventDetails = "Detected in email"

type Event struct {
	Type    string `json:"type"`
	Details string `json:"details"`
}

// AnalyzedEmail is a normalized message together with everything the
// analyzers derived from it.
type AnalyzedEmail struct {
	NormalizedMessage
	Category Category `json:"category"`
	Tasks    []string `json:"tasks"`
	Events   []Event  `json:"events"`
}

type Summary struct {
	TotalEmails int            `json:"total_emails"`
	Categories  CategoryCounts `json:"categories"`
	TaskCount   int            `json:"task_count"`
	EventCount  int            `json:"event_count"`
}

// Snapshot is one complete result of a fetch + analyze cycle. It is built in
// full and replaces the previous snapshot wholesale.
type Snapshot struct {
	Summary     Summary          `json:"summary"`
	Emails      []*AnalyzedEmail `json:"emails"`
	Tasks       []string         `json:"tasks"`
	Events      []Event          `json:"events"`
	LastUpdated time.Time        `json:"last_updated"`
}

// EmptySnapshot is what consumers see when nothing could be fetched.
func EmptySnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		Emails:      []*AnalyzedEmail{},
		Tasks:       []string{},
		Events:      []Event{},
		LastUpdated: now,
	}
}

// Digest is a derived, terse view over a set of analyzed emails.
type Digest struct {
	Window      string         `json:"window"`
	TotalEmails int            `json:"total_emails"`
	Categories  CategoryCounts `json:"categories"`
	TaskCount   int            `json:"task_count"`
	TLDR        string         `json:"tldr"`
}

// Briefing is the human-readable executive summary of a snapshot.
type Briefing struct {
	Text        string    `json:"briefing"`
	Source      string    `json:"source"`
	Overview    string    `json:"overview"`
	GeneratedAt time.Time `json:"generated_at"`
}

const (
	BriefingSourceAI       = "ai"
	BriefingSourceTemplate = "template"
)

// TodayEmail is a message fetched for the daily digest, with a longer, cleaned body.
type TodayEmail struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Body    string `json:"body"`
	Summary string `json:"summary"`
}

type TodayDigest struct {
	Date        string        `json:"date"`
	TotalEmails int           `json:"total_emails"`
	Summary     string        `json:"summary"`
	Source      string        `json:"source"`
	Emails      []*TodayEmail `json:"emails"`
}
