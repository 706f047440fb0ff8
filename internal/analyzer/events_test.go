package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inbox-dashboard/internal/model"
)

func TestDetectEventsKeywordOrderAndCap(t *testing.T) {
	got := DetectEvents("Zoom call", "Join the team meeting. Webinar later.")
	assert.Equal(t, []model.Event{
		{Type: "meeting", Details: "Detected in email"},
		{Type: "call", Details: "Detected in email"},
		{Type: "zoom", Details: "Detected in email"},
	}, got)
}

func TestDetectEventsSubstringMatch(t *testing.T) {
	got := DetectEvents("Product recall notice", "")
	assert.Equal(t, []model.Event{{Type: "call", Details: model.EventDetails}}, got)

	got = DetectEvents("", "Link: Google Meet")
	assert.Equal(t, []model.Event{{Type: "google meet", Details: model.EventDetails}}, got)
}

func TestDetectEventsNone(t *testing.T) {
	got := DetectEvents("Your receipt", "Thanks for shopping")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
