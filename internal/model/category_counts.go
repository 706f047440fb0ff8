package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CategoryCounts is a category -> count mapping that remembers the order in
// which categories were first seen and keeps it when encoded as JSON.
type CategoryCounts struct {
	order  []Category
	counts map[Category]int
}

func (c *CategoryCounts) Add(category Category) {
	c.set(category, c.Get(category)+1)
}

func (c *CategoryCounts) set(category Category, n int) {
	if c.counts == nil {
		c.counts = make(map[Category]int)
	}
	if _, exists := c.counts[category]; !exists {
		c.order = append(c.order, category)
	}
	c.counts[category] = n
}

func (c CategoryCounts) Get(category Category) int {
	return c.counts[category]
}

// Keys returns the categories in first-seen order.
func (c CategoryCounts) Keys() []Category {
	keys := make([]Category, len(c.order))
	copy(keys, c.order)
	return keys
}

func (c CategoryCounts) Len() int {
	return len(c.order)
}

func (c CategoryCounts) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Map returns a plain map copy for consumers that do not care about order.
func (c CategoryCounts) Map() map[string]int {
	m := make(map[string]int, len(c.order))
	for _, category := range c.order {
		m[string(category)] = c.counts[category]
	}
	return m
}

func (c CategoryCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, category := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(category))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", c.counts[category])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *CategoryCounts) UnmarshalJSON(data []byte) error {
	c.order = nil
	c.counts = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to decode category counts: %w", err)
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("category counts must be a JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to decode category key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected category key %v", keyTok)
		}
		var n int
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("failed to decode count for %q: %w", key, err)
		}
		c.set(Category(key), n)
	}

	_, err = dec.Token()
	return err
}
