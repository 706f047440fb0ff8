package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inbox-dashboard/internal/model"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    model.Category
	}{
		{"work beats finance by order", "Invoice for project Apollo", "", model.CategoryWork},
		{"personal", "Birthday party", "see you there", model.CategoryPersonal},
		{"finance", "Payment received", "", model.CategoryFinance},
		{"shopping", "Your Amazon package shipped", "", model.CategoryShopping},
		{"newsletter from body", "Weekly", "This week's digest", model.CategoryNewsletter},
		{"social", "New LinkedIn connection", "", model.CategorySocial},
		{"case insensitive", "CLIENT ESCALATION", "", model.CategoryWork},
		{"other", "Hello there", "just saying hi", model.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.subject, tt.body))
		})
	}
}

func TestCategorizeIsTotal(t *testing.T) {
	for _, subject := range []string{"", "x", "🙂"} {
		assert.True(t, Categorize(subject, "").IsValid())
	}
}

func TestAnalyze(t *testing.T) {
	msg := &model.NormalizedMessage{
		ID:      "7",
		Subject: "Team meeting tomorrow",
		From:    "Alice",
		Date:    "Mon, 2 Jun 2025 10:00:00 +0000",
		Body:    "Please confirm your attendance for the planning session.",
		Preview: "Please confirm your attendance for the planning session.",
	}

	got := Analyze(msg)

	assert.Equal(t, "7", got.ID)
	assert.Equal(t, "Alice", got.From)
	assert.Equal(t, model.CategoryWork, got.Category)
	assert.Equal(t, []string{"Confirm your attendance for the planning session"}, got.Tasks)
	assert.Equal(t, []model.Event{{Type: "meeting", Details: model.EventDetails}}, got.Events)
}
