package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/pep299/trends-dashboard/internal/application"
	"github.com/pep299/trends-dashboard/internal/config"
	"github.com/pep299/trends-dashboard/internal/logging"
	"github.com/pep299/trends-dashboard/internal/watchlist"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Trends Dashboard Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  PORT                  Server port (default: 8080)\n")
		fmt.Printf("  HOST                  Server host (default: 0.0.0.0)\n")
		fmt.Printf("  LOG_LEVEL             debug, info, warn or error (default: info)\n")
		fmt.Printf("  LOG_FORMAT            json or console (default: json)\n")
		fmt.Printf("  CACHE_TYPE            memory, cloud-storage, redis or none (default: memory)\n")
		fmt.Printf("  REDIS_URL             Redis URL (required for CACHE_TYPE=redis)\n")
		fmt.Printf("  ARCHIVE_BUCKET        Cloud Storage bucket for watchlist exports\n")
		fmt.Printf("  SLACK_BOT_TOKEN       Slack bot token for watchlist summaries\n")
		fmt.Printf("  WATCHLISTS            JSON array of scheduled analyses\n")
		fmt.Printf("  ADMIN_TOKEN           Bearer token for cache, archive and watchlist endpoints\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Trends Dashboard Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create application
	app, err := application.New(ctx, cfg, Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}
	defer app.Close()

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.TrendsTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Schedule watchlists
	c := cron.New()
	scheduled, err := watchlist.Schedule(ctx, c, app.Runner)
	if err != nil {
		log.Error().Err(err).Msg("Some watchlists could not be scheduled")
	}
	log.Info().Int("count", scheduled).Msg("📅 Watchlists scheduled")

	c.Start()
	defer c.Stop()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("version", Version).Msg("🚀 Starting server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("🛑 Shutting down server...")

	// Cancel background tasks
	cancel()

	// Wait for running watchlists
	<-c.Stop().Done()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("✅ Server stopped")
}
