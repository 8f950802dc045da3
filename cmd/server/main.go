// Package main provides the tournament server:
// - Tournaments (scheduled): sessions → metrics → reports
// - HTTP: ad-hoc sessions, stored session lookup, status, metrics
// - WebSocket: live offer stream of every running session
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"negotiation-lab/internal/config"
	"negotiation-lab/internal/storage/backend"
)

func main() {
	// Load .env file if exists; real environment variables win
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	configPath := flag.String("config", os.Getenv("NEGOTIATION_CONFIG"), "YAML config file")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (overrides config)")
	sqlitePath := flag.String("sqlite-path", os.Getenv("SQLITE_PATH"), "SQLite database path (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (overrides config)")
	outputDir := flag.String("output-dir", "output", "Output directory for reports")
	tournamentInterval := flag.Duration("tournament-interval", 1*time.Hour, "Tournament run interval (0 disables scheduling)")
	httpAddr := flag.String("http-addr", envOr("HTTP_ADDR", ":9090"), "HTTP address for API, websocket and metrics")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal(err)
		}
		cfg = *loaded
	}
	switch {
	case *postgresDSN != "":
		cfg.Storage.Backend, cfg.Storage.PostgresDSN = config.BackendPostgres, *postgresDSN
	case *sqlitePath != "":
		cfg.Storage.Backend, cfg.Storage.SQLitePath = config.BackendSQLite, *sqlitePath
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickHouseDSN = *clickhouseDSN
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	stores, err := backend.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer stores.Close()

	server := NewServer(Options{
		Config:             cfg,
		Stores:             stores,
		OutputDir:          *outputDir,
		TournamentInterval: *tournamentInterval,
		Logger:             logger,
	})

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = server.Run(ctx, *httpAddr)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
