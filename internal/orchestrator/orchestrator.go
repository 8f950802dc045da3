// Package orchestrator provides end-to-end tournament orchestration.
// It coordinates: tournament sessions per scenario → metrics aggregation
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/metrics"
	"negotiation-lab/internal/storage"
	"negotiation-lab/internal/tournament"
)

// ErrNoScenarios is returned when no scenario is configured.
var ErrNoScenarios = errors.New("at least one scenario is required")

// Orchestrator coordinates the tournament pipeline execution.
// Flow: sessions (one tournament per scenario) → metrics aggregation
type Orchestrator struct {
	runner                 *tournament.Runner
	sessionStore           storage.SessionRecordStore
	strategyAggregateStore storage.StrategyAggregateStore

	strategyConfig  domain.StrategyConfig
	opponentConfigs []domain.StrategyConfig
	scenarioConfigs []domain.ScenarioConfig

	sessions int
	baseSeed int64
	nSteps   int
	runID    string
	verbose  bool
}

// Options for creating Orchestrator.
type Options struct {
	// Runner must persist into SessionStore for aggregation to see the sessions.
	Runner                 *tournament.Runner
	SessionStore           storage.SessionRecordStore
	StrategyAggregateStore storage.StrategyAggregateStore

	Strategy  domain.StrategyConfig   // zero value uses the adaptive engine
	Opponents []domain.StrategyConfig // empty uses the time-based presets
	Scenarios []domain.ScenarioConfig

	Sessions int   // per scenario
	BaseSeed int64 // shared by every scenario
	NSteps   int   // overrides each scenario's rounds when positive
	RunID    string
	Verbose  bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		runner:                 opts.Runner,
		sessionStore:           opts.SessionStore,
		strategyAggregateStore: opts.StrategyAggregateStore,
		strategyConfig:         opts.Strategy,
		opponentConfigs:        opts.Opponents,
		scenarioConfigs:        opts.Scenarios,
		sessions:               opts.Sessions,
		baseSeed:               opts.BaseSeed,
		nSteps:                 opts.NSteps,
		runID:                  opts.RunID,
		verbose:                opts.Verbose,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID             string
	SessionsRun       int
	Agreements        int
	AggregatesCreated int
	Summaries         []*tournament.Summary       // scenario order
	Aggregates        []*domain.StrategyAggregate // created this run
	Errors            []string
}

// Run executes the full pipeline.
// Phases:
//  1. Run one tournament per scenario under a shared run ID
//  2. Aggregate metrics per (strategy, scenario) for every strategy seen
//
// A failing scenario is recorded in Errors and the remaining scenarios
// still run. Context cancellation aborts the run.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if len(o.scenarioConfigs) == 0 {
		return nil, ErrNoScenarios
	}
	runID := o.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	result := &RunResult{RunID: runID}

	// Phase 1: Tournaments
	o.log("Phase 1: Running tournaments (run %s)...", runID)
	strategies := make(map[string][]string) // strategy_id -> scenario_ids
	for _, sc := range o.scenarioConfigs {
		summary, err := o.runner.Run(ctx, tournament.Config{
			RunID:     runID,
			Scenario:  sc,
			Sessions:  o.sessions,
			BaseSeed:  o.baseSeed,
			NSteps:    o.nSteps,
			Strategy:  o.strategyConfig,
			Opponents: o.opponentConfigs,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("phase 1 (tournament %s) failed: %w", sc.ScenarioID, err)
			}
			result.Errors = append(result.Errors, fmt.Sprintf("tournament %s: %v", sc.ScenarioID, err))
			continue
		}

		result.Summaries = append(result.Summaries, summary)
		result.SessionsRun += summary.Sessions
		result.Agreements += summary.Agreements
		for _, id := range strategyIDs(summary.Records) {
			strategies[id] = append(strategies[id], sc.ScenarioID)
		}
		o.log("  %s: %d sessions, %d agreements, %d errors",
			sc.ScenarioID, summary.Sessions, summary.Agreements, summary.Errors)
	}

	// Phase 2: Metrics Aggregation
	o.log("Phase 2: Computing aggregates...")
	aggs, aggErrors := o.runAggregation(ctx, strategies)
	result.Aggregates = aggs
	result.AggregatesCreated = len(aggs)
	result.Errors = append(result.Errors, aggErrors...)
	o.log("  Created %d aggregates (%d errors)", len(aggs), len(aggErrors))

	o.log("Pipeline completed: %d sessions, %d agreements, %d aggregates",
		result.SessionsRun, result.Agreements, result.AggregatesCreated)

	return result, nil
}

// runAggregation computes aggregates for every (strategy, scenario) pair.
func (o *Orchestrator) runAggregation(ctx context.Context, strategies map[string][]string) ([]*domain.StrategyAggregate, []string) {
	aggregator := metrics.NewAggregator(o.sessionStore, o.strategyAggregateStore)

	ids := make([]string, 0, len(strategies))
	for id := range strategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var created []*domain.StrategyAggregate
	var errs []string

	for _, strategyID := range ids {
		for _, scenarioID := range strategies[strategyID] {
			aggs, err := aggregator.ComputeAllAndStore(ctx, strategyID, scenarioID)
			if err != nil {
				// Skip duplicate key errors (already aggregated)
				if errors.Is(err, storage.ErrDuplicateKey) {
					o.log("  %s/%s already aggregated", strategyID, scenarioID)
					continue
				}
				if errors.Is(err, metrics.ErrNoSessions) {
					continue
				}
				errs = append(errs, fmt.Sprintf("aggregate %s/%s: %v", strategyID, scenarioID, err))
				continue
			}
			created = append(created, aggs...)
		}
	}

	return created, errs
}

// strategyIDs returns the distinct strategy IDs of records in first-seen order.
func strategyIDs(records []*domain.SessionRecord) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range records {
		if !seen[r.StrategyID] {
			seen[r.StrategyID] = true
			ids = append(ids, r.StrategyID)
		}
	}
	return ids
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
