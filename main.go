package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inbox-dashboard/internal/cache"
	"inbox-dashboard/internal/config"
	"inbox-dashboard/internal/handler"
	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/mcptool"
	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/router"
	"inbox-dashboard/internal/service"
	"inbox-dashboard/internal/sse"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file; environment variables override it")
	build := flag.Bool("build", false, "Refresh once, write the snapshot and index.html, then exit")
	mcpStdio := flag.Bool("mcp-stdio", false, "Serve the MCP tools over stdio instead of HTTP")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatal("Config validation failed:", err)
	}

	// stdout carries the protocol in stdio mode
	appLogger := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))
	if *mcpStdio {
		appLogger = logger.NewWithWriter(os.Stderr)
		appLogger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	}

	transport := newTransport(cfg, appLogger)

	store, closeStore, err := newSnapshotStore(cfg, appLogger)
	if err != nil {
		log.Fatal("Failed to initialize snapshot store:", err)
	}
	defer closeStore()

	aiClient := newAIClient(cfg, appLogger)

	// Initialize services
	dashboardService := service.NewDashboardService(transport, store, aiClient, service.DashboardOptions{
		FetchLimit:   cfg.FetchLimit,
		LookbackDays: cfg.LookbackDays,
		BodyLimit:    cfg.BodyLimit,
		FetchTimeout: cfg.FetchTimeout(),
		AITimeout:    cfg.AITimeout(),
	}, appLogger)
	briefingService := service.NewBriefingService(aiClient, cfg.AITimeout(), appLogger)

	snapshots := cache.NewSnapshotCache(func(ctx context.Context) (*model.Snapshot, error) {
		return dashboardService.BuildSnapshot(ctx), nil
	}, cache.SystemClock, cfg.CacheTTL(), appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *build {
		if err := runBuild(ctx, cfg, store, snapshots, briefingService, appLogger); err != nil {
			appLogger.Error("Build failed:", err)
			os.Exit(1)
		}
		return
	}

	warmCache(ctx, store, snapshots, appLogger)

	mcpServer := mcptool.NewServer(snapshots, briefingService)

	if *mcpStdio {
		appLogger.Info("Serving MCP tools over stdio")
		if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error("MCP stdio server failed:", err)
			os.Exit(1)
		}
		return
	}

	// Initialize SSE manager for snapshot updates
	sseManager := sse.NewSSEManager(appLogger)
	defer sseManager.Close()

	if interval := cfg.RefreshInterval(); interval > 0 {
		refreshJob := sse.NewRefreshJob(snapshots, sseManager, interval, appLogger)
		go refreshJob.Start()
		defer refreshJob.Stop()
	}

	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	dashboardHandler := handler.NewDashboardHandler(snapshots, dashboardService, briefingService, sseManager, e.Logger)
	router.SetupRoutes(e, dashboardHandler, mcptool.NewHTTPHandler(mcpServer))

	// Start server
	go func() {
		appLogger.Info("Starting server on port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server:", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sseManager.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Failed to shut down server:", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfigFile(path)
	}
	return config.LoadConfig()
}
