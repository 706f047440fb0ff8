package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCountsKeepsFirstSeenOrder(t *testing.T) {
	var c CategoryCounts
	c.Add(CategoryShopping)
	c.Add(CategoryWork)
	c.Add(CategoryShopping)
	c.Add(CategoryOther)

	assert.Equal(t, []Category{CategoryShopping, CategoryWork, CategoryOther}, c.Keys())
	assert.Equal(t, 2, c.Get(CategoryShopping))
	assert.Equal(t, 0, c.Get(CategorySocial))
	assert.Equal(t, 4, c.Total())
	assert.Equal(t, 3, c.Len())

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `{"shopping":2,"work":1,"other":1}`, string(data))
}

func TestCategoryCountsEmptyMarshalsAsObject(t *testing.T) {
	data, err := json.Marshal(CategoryCounts{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestCategoryCountsUnmarshalPreservesOrder(t *testing.T) {
	var c CategoryCounts
	require.NoError(t, json.Unmarshal([]byte(`{"social":3,"finance":1,"work":2}`), &c))

	assert.Equal(t, []Category{CategorySocial, CategoryFinance, CategoryWork}, c.Keys())
	assert.Equal(t, map[string]int{"social": 3, "finance": 1, "work": 2}, c.Map())

	require.NoError(t, json.Unmarshal([]byte(`null`), &c))
	assert.Equal(t, 0, c.Len())

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"work":"many"}`), &c))
}

func TestEmptySnapshotWireShape(t *testing.T) {
	snapshot := EmptySnapshot(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"summary": {"total_emails": 0, "categories": {}, "task_count": 0, "event_count": 0},
		"emails": [],
		"tasks": [],
		"events": [],
		"last_updated": "2025-06-02T10:00:00Z"
	}`, string(data))
}

func TestAnalyzedEmailFlattensMessageFields(t *testing.T) {
	email := &AnalyzedEmail{
		NormalizedMessage: NormalizedMessage{
			ID:      "12",
			Subject: "Quarterly report",
			From:    "Alice",
			Date:    "Mon, 2 Jun 2025 10:00:00 +0000",
			Body:    "Please review",
			Preview: "Please review",
		},
		Category: CategoryWork,
		Tasks:    []string{},
		Events:   []Event{{Type: "meeting", Details: EventDetails}},
	}

	data, err := json.Marshal(email)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "12",
		"subject": "Quarterly report",
		"from": "Alice",
		"date": "Mon, 2 Jun 2025 10:00:00 +0000",
		"body": "Please review",
		"preview": "Please review",
		"category": "work",
		"tasks": [],
		"events": [{"type": "meeting", "details": "Detected in email"}]
	}`, string(data))
}

func TestCategoryIsValid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.IsValid())
	}
	assert.False(t, Category("spam").IsValid())
	assert.Len(t, Categories, 7)
}

func TestDateQueryConstructors(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, DateQuery{Date: day, Mode: QuerySince}, Since(day))
	assert.Equal(t, DateQuery{Date: day, Mode: QueryOn}, On(day))
}
