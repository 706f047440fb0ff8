package analyzer

import (
	"strings"

	"inbox-dashboard/internal/model"
)

const MaxEvents = 3

var eventKeywords = []string{
	"meeting",
	"call",
	"zoom",
	"teams",
	"google meet",
	"webinar",
	"conference",
	"appointment",
}

// DetectEvents reports meeting-type keywords found anywhere in subject or
// body, in keyword-list order, at most MaxEvents of them.
func DetectEvents(subject, body string) []model.Event {
	text := strings.ToLower(subject + " " + body)
	events := make([]model.Event, 0, MaxEvents)
	for _, keyword := range eventKeywords {
		if len(events) == MaxEvents {
			break
		}
		if strings.Contains(text, keyword) {
			events = append(events, model.Event{Type: keyword, Details: model.EventDetails})
		}
	}
	return events
}
