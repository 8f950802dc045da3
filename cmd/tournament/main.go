// Package main provides the tournament entry point.
// Executes: sessions per scenario → metrics → reporting
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"negotiation-lab/internal/config"
	"negotiation-lab/internal/observability"
	"negotiation-lab/internal/orchestrator"
	"negotiation-lab/internal/pipeline"
	"negotiation-lab/internal/storage/backend"
	"negotiation-lab/internal/tournament"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file (defaults are used when empty)")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	runID := flag.String("run-id", "", "Tournament run ID (generated when empty)")
	sessions := flag.Int("sessions", 0, "Sessions per scenario (overrides config when positive)")
	seed := flag.Int64("seed", 0, "Base seed (overrides config when non-zero)")
	skipReport := flag.Bool("skip-report", false, "Run sessions and aggregation only")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	if *sessions > 0 {
		cfg.Tournament.Sessions = *sessions
	}
	if *seed != 0 {
		cfg.Tournament.BaseSeed = *seed
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling tournament...\n", sig)
		cancel()
	}()

	var logger *log.Logger
	if *verbose {
		logger = log.New(os.Stdout, "[tournament] ", log.LstdFlags)
	}

	stores, err := backend.Open(ctx, cfg.Storage, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer stores.Close()

	// Phase 1-2: sessions and aggregation
	fmt.Println("=== Tournament ===")
	runner := tournament.NewRunner(tournament.RunnerOptions{
		SessionStore: stores.Sessions,
		TraceStore:   stores.Traces,
		Metrics:      observability.DefaultMetrics,
		Policy:       cfg.Policy,
		Concurrency:  cfg.Tournament.Concurrency,
		Logger:       logger,
	})
	orch := orchestrator.New(orchestrator.Options{
		Runner:                 runner,
		SessionStore:           stores.Sessions,
		StrategyAggregateStore: stores.Aggregates,
		Opponents:              cfg.Tournament.OpponentConfigs(),
		Scenarios:              cfg.Tournament.ScenarioConfigs(),
		Sessions:               cfg.Tournament.Sessions,
		BaseSeed:               cfg.Tournament.BaseSeed,
		NSteps:                 cfg.Tournament.NSteps,
		RunID:                  *runID,
		Verbose:                *verbose,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Orchestrator error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tournament %s completed:\n", result.RunID)
	fmt.Printf("  Sessions: %d\n", result.SessionsRun)
	fmt.Printf("  Agreements: %d\n", result.Agreements)
	fmt.Printf("  Aggregates: %d\n", result.AggregatesCreated)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	if *skipReport {
		return
	}

	// Phase 3: Reporting
	fmt.Println("\n=== Reporting ===")
	p := pipeline.NewReportPipeline(stores.Sessions, stores.Aggregates, *outputDir).
		WithThresholds(cfg.Decision).
		WithSufficiencyChecker(cfg.Sufficiency).
		WithReplayCommand(replayCommand(*configPath, cfg, result.RunID))

	report, err := p.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nDecision: %s", report.Decision)
	if report.BestKey != "" {
		fmt.Printf(" (%s)", report.BestKey)
	}
	fmt.Printf("\nData version: %s\n", report.DataVersion)
	for _, f := range report.Files {
		fmt.Printf("  - %s\n", f)
	}
}

// replayCommand reconstructs the invocation that reproduces this run.
func replayCommand(configPath string, cfg config.Config, runID string) string {
	parts := []string{"tournament"}
	if configPath != "" {
		parts = append(parts, "--config", configPath)
	}
	parts = append(parts,
		fmt.Sprintf("--sessions %d", cfg.Tournament.Sessions),
		fmt.Sprintf("--seed %d", cfg.Tournament.BaseSeed),
		"--run-id", runID,
	)
	return strings.Join(parts, " ")
}
