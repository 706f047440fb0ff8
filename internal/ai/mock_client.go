package ai

import (
	"context"
	"strings"
)

// MockAIClient is a mock implementation of AIClient for testing
type MockAIClient struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	Prompts      []string
}

func NewMockAIClient() *MockAIClient {
	return &MockAIClient{}
}

func (m *MockAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}

	// Default mock behavior: echo the first line of the prompt
	first := strings.SplitN(prompt, "\n", 2)[0]
	return strings.TrimSpace(first) + " (summary)", nil
}
