package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-dashboard/internal/cache"
	"inbox-dashboard/internal/config"
	"inbox-dashboard/internal/gmail"
	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/repository/file"
	"inbox-dashboard/internal/repository/memory"
	"inbox-dashboard/internal/service"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter(&bytes.Buffer{})
}

func TestNewTransportSelection(t *testing.T) {
	cfg := &config.Config{MailTransport: config.TransportGmail, GmailAccessToken: "token"}
	assert.Equal(t, "*gmail.gmailTransport", fmt.Sprintf("%T", newTransport(cfg, testLogger())))

	cfg = &config.Config{MailTransport: config.TransportIMAP, IMAPAddr: "imap.example.com:993"}
	assert.Equal(t, "*imap.imapTransport", fmt.Sprintf("%T", newTransport(cfg, testLogger())))
}

func TestNewSnapshotStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	store, closeStore, err := newSnapshotStore(&config.Config{SnapshotPath: path}, testLogger())
	require.NoError(t, err)
	defer closeStore()

	fileStore, ok := store.(*file.SnapshotRepository)
	require.True(t, ok)
	assert.Equal(t, path, fileStore.Path())

	_, _, err = newSnapshotStore(&config.Config{DatabaseURL: "x", DatabaseDriver: "sqlite"}, testLogger())
	assert.Error(t, err)
}

func TestNewAIClient(t *testing.T) {
	assert.Nil(t, newAIClient(&config.Config{}, testLogger()))
	assert.NotNil(t, newAIClient(&config.Config{AIProvider: "openai", AIKey: "k"}, testLogger()))
}

func TestRunBuild(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		SnapshotPath: filepath.Join(dir, "data.json"),
		OutputDir:    filepath.Join(dir, "site"),
	}
	log := testLogger()

	session := gmail.NewMockMailSession()
	session.Add("1", []byte("From: Alice <alice@example.com>\r\nSubject: Team meeting tomorrow\r\n"+
		"Date: Mon, 2 Jun 2025 09:00:00 +0000\r\n\r\nPlease review the attached contract by Friday.\r\n"))

	store := memory.NewInMemorySnapshotRepository()
	dashboard := service.NewDashboardService(gmail.NewMockMailTransport(session), store, nil, service.DefaultDashboardOptions(), log)
	snapshots := cache.NewSnapshotCache(func(ctx context.Context) (*model.Snapshot, error) {
		return dashboard.BuildSnapshot(ctx), nil
	}, nil, time.Hour, log)

	err := runBuild(context.Background(), cfg, store, snapshots, service.NewBriefingService(nil, time.Second, log), log)
	require.NoError(t, err)

	assert.Equal(t, 1, store.Saves())

	saved, err := file.NewSnapshotRepository(cfg.SnapshotPath).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Summary.TotalEmails)

	page, err := os.ReadFile(filepath.Join(cfg.OutputDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `"total_emails":1`)
	assert.Contains(t, string(page), "Alice is your top sender with 1 email.")
}

func TestWarmCache(t *testing.T) {
	log := testLogger()
	store := memory.NewInMemorySnapshotRepository()
	var refreshes int
	snapshots := cache.NewSnapshotCache(func(ctx context.Context) (*model.Snapshot, error) {
		refreshes++
		return model.EmptySnapshot(time.Now()), nil
	}, nil, time.Hour, log)

	warmCache(context.Background(), store, snapshots, log)
	assert.True(t, snapshots.LastUpdate().IsZero())

	persisted := model.EmptySnapshot(time.Now().Add(-time.Minute).UTC())
	persisted.Summary.TotalEmails = 4
	require.NoError(t, store.Save(context.Background(), persisted))

	warmCache(context.Background(), store, snapshots, log)
	assert.Equal(t, 4, snapshots.Get(context.Background()).Summary.TotalEmails)
	assert.Equal(t, 0, refreshes)
}
