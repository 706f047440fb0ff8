package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
)

type fakeTransport struct {
	session    *fakeSession
	connectErr error
}

func (f *fakeTransport) Connect(ctx context.Context) (MailSession, error) {
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return f.session, nil
}

type fakeSession struct {
	mu        sync.Mutex
	ids       []string
	messages  map[string][]byte
	searchErr error
	fetchErr  map[string]error
	block     map[string]bool
	queries   []model.DateQuery
	fetched   []string
	closed    bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		messages: make(map[string][]byte),
		fetchErr: make(map[string]error),
		block:    make(map[string]bool),
	}
}

func (f *fakeSession) add(id string, raw []byte) {
	f.ids = append(f.ids, id)
	f.messages[id] = raw
}

func (f *fakeSession) Search(ctx context.Context, query model.DateQuery) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]string(nil), f.ids...), nil
}

func (f *fakeSession) Fetch(ctx context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	blocked := f.block[id]
	err := f.fetchErr[id]
	raw := f.messages[id]
	f.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeAI struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeAI) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func rawMail(from, subject, date, body string) []byte {
	msg := fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\nContent-Type: text/plain; charset=utf-8\n\n%s\n", from, subject, date, body)
	return []byte(strings.ReplaceAll(msg, "\n", "\r\n"))
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(&bytes.Buffer{})
}
