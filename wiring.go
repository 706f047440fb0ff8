package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inbox-dashboard/internal/ai"
	"inbox-dashboard/internal/cache"
	"inbox-dashboard/internal/config"
	"inbox-dashboard/internal/gmail"
	"inbox-dashboard/internal/imap"
	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/render"
	"inbox-dashboard/internal/repository"
	"inbox-dashboard/internal/repository/file"
	"inbox-dashboard/internal/repository/sqldb"
	"inbox-dashboard/internal/service"
)

func newTransport(cfg *config.Config, appLogger *logger.Logger) service.MailTransport {
	if cfg.MailTransport == config.TransportGmail {
		appLogger.Info("Using Gmail API transport")
		return gmail.NewGmailTransport(gmail.Options{
			ClientID:     cfg.GmailClientID,
			ClientSecret: cfg.GmailClientSecret,
			RefreshToken: cfg.GmailRefreshToken,
			AccessToken:  cfg.GmailAccessToken,
		}, appLogger)
	}

	appLogger.Info("Using IMAP transport", cfg.IMAPAddr)
	return imap.NewIMAPTransport(imap.Options{
		Addr:     cfg.IMAPAddr,
		Username: cfg.EmailAddress,
		Password: cfg.EmailPassword,
		Mailbox:  cfg.IMAPMailbox,
	}, appLogger)
}

// newSnapshotStore uses the database when DATABASE_URL is set, otherwise the
// JSON file at SNAPSHOT_PATH.
func newSnapshotStore(cfg *config.Config, appLogger *logger.Logger) (repository.SnapshotStore, func(), error) {
	if cfg.DatabaseURL == "" {
		appLogger.Info("Using file snapshot store:", cfg.SnapshotPath)
		return file.NewSnapshotRepository(cfg.SnapshotPath), func() {}, nil
	}

	db, err := sqldb.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			appLogger.Warn("Failed to close database:", err)
		}
	}

	store, err := sqldb.NewSnapshotRepository(db, cfg.DatabaseDriver)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	if err := store.InitializeDatabase(context.Background()); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Using", cfg.DatabaseDriver, "snapshot store")
	return store, closeDB, nil
}

// newAIClient returns nil when no provider is configured; callers then use
// the template fallbacks.
func newAIClient(cfg *config.Config, appLogger *logger.Logger) service.AIClient {
	if !cfg.AIEnabled() {
		appLogger.Info("AI summaries disabled, using templates")
		return nil
	}
	return ai.NewAIClient(ai.Options{
		Provider: cfg.AIProvider,
		APIKey:   cfg.AIKey,
		BaseURL:  cfg.AIBaseURL,
		Model:    cfg.AIModel,
	}, appLogger)
}

// warmCache seeds the cache with the last persisted snapshot, if any.
func warmCache(ctx context.Context, store repository.SnapshotStore, snapshots *cache.SnapshotCache, appLogger *logger.Logger) {
	snapshot, err := store.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrSnapshotNotFound) {
			appLogger.Warn("Failed to load persisted snapshot:", err)
		}
		return
	}
	snapshots.Seed(snapshot)
	appLogger.Info("Loaded persisted snapshot from", snapshot.LastUpdated.Format(time.RFC3339))
}

// runBuild refreshes once and writes the snapshot JSON and the static page.
func runBuild(
	ctx context.Context,
	cfg *config.Config,
	store repository.SnapshotStore,
	snapshots *cache.SnapshotCache,
	briefingService service.BriefingService,
	appLogger *logger.Logger,
) error {
	appLogger.Info("Fetching emails...")
	snapshot := snapshots.Refresh(ctx)

	// The database store does not leave a data.json behind.
	if _, ok := store.(*file.SnapshotRepository); !ok {
		if err := file.NewSnapshotRepository(cfg.SnapshotPath).Save(ctx, snapshot); err != nil {
			return err
		}
	}

	briefing := briefingService.Briefing(ctx, snapshot)

	renderer, err := render.NewRenderer(cfg.TemplatePath, appLogger)
	if err != nil {
		return err
	}
	if _, err := renderer.WriteFile(cfg.OutputDir, snapshot, briefing); err != nil {
		return err
	}

	appLogger.Infof("Dashboard updated: %d emails, %d tasks, %d events",
		snapshot.Summary.TotalEmails, len(snapshot.Tasks), len(snapshot.Events))
	return nil
}
