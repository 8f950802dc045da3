// Package main runs a single negotiation session and prints the result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"negotiation-lab/internal/config"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/scenario"
	"negotiation-lab/internal/strategy"
	"negotiation-lab/internal/tournament"
)

// output is the JSON form of one session.
type output struct {
	ScenarioID string                    `json:"scenario_id"`
	Kind       scenario.Kind             `json:"kind"`
	Outcomes   int                       `json:"outcomes"`
	Record     *domain.SessionRecord     `json:"record"`
	Trace      []*domain.OfferTracePoint `json:"trace,omitempty"`
}

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file (policy section is used)")
	scenarioName := flag.String("scenario", domain.ScenarioStandard, "Scenario: small, standard, large")
	seed := flag.Int64("seed", 1, "Scenario seed")
	opponent := flag.String("opponent", strategy.PresetBoulware, "Opponent preset: Linear, Conceder, Boulware")
	exponent := flag.Float64("exponent", 0, "Custom opponent concession exponent (overrides --opponent preset)")
	nSteps := flag.Int("steps", 0, "Rounds per session (0 keeps the scenario default)")
	withTrace := flag.Bool("trace", false, "Include the offer trace in JSON output")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	debug := flag.Bool("debug", false, "Log per-round engine diagnostics to stderr")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[negotiate] ", log.LstdFlags)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal(err)
		}
		cfg = *loaded
	}

	scenarioCfg, ok := domain.ScenarioConfigByID(strings.ToLower(*scenarioName))
	if !ok {
		logger.Fatalf("Invalid scenario: %s. Must be small, standard, or large", *scenarioName)
	}
	if *nSteps > 0 {
		scenarioCfg.NSteps = *nSteps
	}

	opponentCfg := domain.StrategyConfig{StrategyType: domain.StrategyTypeTimeBased, Name: *opponent}
	if *exponent > 0 {
		opponentCfg.Exponent = exponent
		if !flagSet("opponent") {
			opponentCfg.Name = ""
		}
	}
	if _, err := strategy.FromConfig(opponentCfg, strategy.Params{}); err != nil {
		logger.Fatalf("Invalid opponent %q: %v", *opponent, err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	sc, err := scenario.Generate(scenarioCfg, *seed)
	if err != nil {
		logger.Fatalf("generate scenario: %v", err)
	}

	opts := tournament.RunnerOptions{Policy: cfg.Policy}
	if *debug {
		opts.EngineLogger = log.New(os.Stderr, "[engine] ", 0)
	}
	runner := tournament.NewRunner(opts)

	logger.Printf("Running session: scenario=%s seed=%d opponent=%s steps=%d",
		sc.ID, sc.Seed, describe(opponentCfg), sc.NSteps)

	res, err := runner.RunSession(ctx, "cli", sc, strategy.AdaptiveConfig(), opponentCfg)
	if err != nil {
		logger.Fatalf("session failed: %v", err)
	}

	// Output result
	if *outputJSON {
		out := output{
			ScenarioID: sc.ID,
			Kind:       sc.Kind,
			Outcomes:   sc.Space.Cardinality(),
			Record:     res.Record,
		}
		if *withTrace {
			out.Trace = res.Trace
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
	} else {
		printSession(sc, res)
	}
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func describe(cfg domain.StrategyConfig) string {
	if cfg.Exponent != nil {
		return fmt.Sprintf("%s(e=%.2f)", cfg.Name, *cfg.Exponent)
	}
	return cfg.Name
}

// printSession outputs a human-readable session summary.
func printSession(sc *scenario.Scenario, res *tournament.SessionResult) {
	r := res.Record
	fmt.Println()
	fmt.Println("=== Session Result ===")
	fmt.Printf("Session ID:         %s\n", r.SessionID)
	fmt.Printf("Scenario:           %s (%s, %d outcomes)\n", sc.ID, sc.Kind, sc.Space.Cardinality())
	fmt.Printf("Strategy:           %s\n", r.StrategyID)
	fmt.Printf("Opponent:           %s\n", r.OpponentID)
	fmt.Println()

	fmt.Println("Outcome:")
	fmt.Printf("  End Reason:       %s\n", r.EndReason)
	fmt.Printf("  Steps:            %d / %d\n", r.StepsUsed, r.NSteps)
	if r.Agreement {
		fmt.Printf("  Agreement:        %s\n", r.AgreementKey)
	}
	fmt.Printf("  Self Utility:     %.4f (reserved %.4f)\n", r.SelfUtility, r.SelfReserved)
	fmt.Printf("  Opponent Utility: %.4f (reserved %.4f)\n", r.OpponentUtility, r.OpponentReserved)
	fmt.Printf("  Welfare:          %.4f\n", r.Welfare)
	fmt.Printf("  Nash Distance:    %.4f\n", r.NashDistance)
	fmt.Printf("  Pareto Optimal:   %t\n", r.ParetoOptimal)
	fmt.Println()

	fmt.Println("Opponent Model:")
	fmt.Printf("  Estimated RV:     %.4f\n", r.EstimatedOpponentRV)
	fmt.Printf("  Estimate Error:   %.4f\n", r.EstimateError)
	fmt.Printf("  Fits:             %d (%d failed)\n", r.FitAttempts, r.FitFailures)
	fmt.Printf("  Offers Made:      %d\n", res.OffersMade)
	fmt.Printf("  Duration:         %v\n", res.Duration)
}
