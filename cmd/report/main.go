package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"negotiation-lab/internal/config"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/metrics"
	"negotiation-lab/internal/pipeline"
	"negotiation-lab/internal/storage/backend"
	"negotiation-lab/internal/tournament"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file (storage, decision and sufficiency sections are used)")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	sqlitePath := flag.String("sqlite-path", "", "SQLite database path (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides config)")
	useDemo := flag.Bool("use-demo", false, "Run a small in-memory tournament instead of reading storage")
	flag.Parse()

	ctx := context.Background()
	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	switch {
	case *useDemo:
		cfg.Storage = config.StorageConfig{Backend: config.BackendMemory}
	case *postgresDSN != "":
		cfg.Storage.Backend, cfg.Storage.PostgresDSN = config.BackendPostgres, *postgresDSN
	case *sqlitePath != "":
		cfg.Storage.Backend, cfg.Storage.SQLitePath = config.BackendSQLite, *sqlitePath
	}
	if *clickhouseDSN != "" && !*useDemo {
		cfg.Storage.ClickHouseDSN = *clickhouseDSN
	}

	if !*useDemo && cfg.Storage.Backend == config.BackendMemory {
		fmt.Fprintln(os.Stderr, "Error: in-memory storage has nothing to report")
		fmt.Fprintln(os.Stderr, "Use --postgres-dsn, --sqlite-path or a config file, or --use-demo for demo data")
		os.Exit(1)
	}

	stores, err := backend.Open(ctx, cfg.Storage, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to storage: %v\n", err)
		os.Exit(1)
	}
	defer stores.Close()

	// Demo data comes from a real tournament run
	fixedTime := time.Now().UTC()
	replay := ""
	if *useDemo {
		fixedTime = time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
		replay = "report --use-demo"
		runner := tournament.NewRunner(tournament.RunnerOptions{
			SessionStore: stores.Sessions,
			TraceStore:   stores.Traces,
			Policy:       cfg.Policy,
		})
		_, err := runner.Run(ctx, tournament.Config{
			RunID:    "demo",
			Scenario: domain.ScenarioConfigSmall,
			Sessions: cfg.Sufficiency.MinSessions,
			BaseSeed: 1,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running demo tournament: %v\n", err)
			os.Exit(1)
		}
	}

	// Aggregates that do not persist are rebuilt from the stored sessions
	if !stores.PersistentAggregates {
		aggregator := metrics.NewAggregator(stores.Sessions, stores.Aggregates)
		if _, err := aggregator.ComputeStoredAndStore(ctx); err != nil && !errors.Is(err, metrics.ErrNoSessions) {
			fmt.Fprintf(os.Stderr, "Error computing aggregates: %v\n", err)
			os.Exit(1)
		}
	}

	p := pipeline.NewReportPipeline(stores.Sessions, stores.Aggregates, *outputDir).
		WithThresholds(cfg.Decision).
		WithSufficiencyChecker(cfg.Sufficiency).
		WithClock(func() time.Time { return fixedTime }).
		WithReplayCommand(replay)

	// Run pipeline
	result, err := p.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running pipeline: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Report generated successfully (decision %s, data version %s):\n", result.Decision, result.DataVersion)
	for _, f := range result.Files {
		fmt.Printf("  - %s\n", f)
	}
}
