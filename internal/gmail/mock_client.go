package gmail

import (
	"context"
	"fmt"

	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/service"
)

// MockMailTransport is a mock implementation of service.MailTransport for testing
type MockMailTransport struct {
	ConnectFunc func(ctx context.Context) (service.MailSession, error)
	Session     *MockMailSession
}

func NewMockMailTransport(session *MockMailSession) *MockMailTransport {
	return &MockMailTransport{Session: session}
}

func (m *MockMailTransport) Connect(ctx context.Context) (service.MailSession, error) {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx)
	}
	if m.Session == nil {
		return nil, fmt.Errorf("no mock session configured")
	}
	return m.Session, nil
}

// MockMailSession serves messages from memory. Search returns ids in
// insertion order, like a real mailbox.
type MockMailSession struct {
	SearchFunc func(ctx context.Context, query model.DateQuery) ([]string, error)
	FetchFunc  func(ctx context.Context, id string) ([]byte, error)

	IDs      []string
	Messages map[string][]byte
	Queries  []model.DateQuery
	Closed   bool
}

func NewMockMailSession() *MockMailSession {
	return &MockMailSession{Messages: make(map[string][]byte)}
}

// Add appends a message to the mock mailbox.
func (m *MockMailSession) Add(id string, raw []byte) {
	m.IDs = append(m.IDs, id)
	m.Messages[id] = raw
}

func (m *MockMailSession) Search(ctx context.Context, query model.DateQuery) ([]string, error) {
	m.Queries = append(m.Queries, query)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	ids := make([]string, len(m.IDs))
	copy(ids, m.IDs)
	return ids, nil
}

func (m *MockMailSession) Fetch(ctx context.Context, id string) ([]byte, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, id)
	}
	raw, ok := m.Messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return raw, nil
}

func (m *MockMailSession) Close() error {
	m.Closed = true
	return nil
}
