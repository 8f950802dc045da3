package orchestrator

import (
	"context"
	"errors"
	"testing"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage/memory"
	"negotiation-lab/internal/strategy"
	"negotiation-lab/internal/tournament"
)

type testStores struct {
	sessions *memory.SessionRecordStore
	traces   *memory.OfferTraceStore
	aggs     *memory.StrategyAggregateStore
}

func newTestOrchestrator(opts Options) (*Orchestrator, testStores) {
	stores := testStores{
		sessions: memory.NewSessionRecordStore(),
		traces:   memory.NewOfferTraceStore(),
		aggs:     memory.NewStrategyAggregateStore(),
	}
	opts.Runner = tournament.NewRunner(tournament.RunnerOptions{
		SessionStore: stores.sessions,
		TraceStore:   stores.traces,
		Concurrency:  2,
	})
	opts.SessionStore = stores.sessions
	opts.StrategyAggregateStore = stores.aggs
	return New(opts), stores
}

func TestOrchestrator_Run_NoScenarios(t *testing.T) {
	orch, _ := newTestOrchestrator(Options{Sessions: 3})

	_, err := orch.Run(context.Background())
	if !errors.Is(err, ErrNoScenarios) {
		t.Fatalf("expected ErrNoScenarios, got: %v", err)
	}
}

func TestOrchestrator_Run_Scenarios(t *testing.T) {
	ctx := context.Background()
	orch, stores := newTestOrchestrator(Options{
		Scenarios: []domain.ScenarioConfig{domain.ScenarioConfigSmall, domain.ScenarioConfigStandard},
		Sessions:  6,
		BaseSeed:  3,
		NSteps:    20,
		RunID:     "run-orch",
	})

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.RunID != "run-orch" {
		t.Errorf("expected run ID run-orch, got %s", result.RunID)
	}
	if result.SessionsRun != 12 {
		t.Errorf("expected 12 sessions, got %d", result.SessionsRun)
	}
	if len(result.Summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(result.Summaries))
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}

	// 3 opponents + pooled row, per scenario
	if result.AggregatesCreated != 8 {
		t.Errorf("expected 8 aggregates, got %d", result.AggregatesCreated)
	}

	stored, err := stores.sessions.GetByRunID(ctx, "run-orch")
	if err != nil {
		t.Fatalf("get sessions: %v", err)
	}
	if len(stored) != 12 {
		t.Errorf("expected 12 stored sessions, got %d", len(stored))
	}

	for _, scenarioID := range []string{domain.ScenarioSmall, domain.ScenarioStandard} {
		pooled, err := stores.aggs.GetByKey(ctx, strategy.DefaultEngineID, domain.OpponentAll, scenarioID)
		if err != nil {
			t.Fatalf("get pooled aggregate for %s: %v", scenarioID, err)
		}
		if pooled.TotalSessions != 6 {
			t.Errorf("%s: expected 6 pooled sessions, got %d", scenarioID, pooled.TotalSessions)
		}
	}
}

func TestOrchestrator_Run_InvalidOpponentRecorded(t *testing.T) {
	orch, _ := newTestOrchestrator(Options{
		Scenarios: []domain.ScenarioConfig{domain.ScenarioConfigSmall},
		Opponents: []domain.StrategyConfig{{StrategyType: "UNKNOWN"}},
		Sessions:  2,
	})

	result, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if result.AggregatesCreated != 0 {
		t.Errorf("expected 0 aggregates, got %d", result.AggregatesCreated)
	}
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch, _ := newTestOrchestrator(Options{
		Scenarios: []domain.ScenarioConfig{domain.ScenarioConfigSmall},
		Sessions:  4,
	})

	if _, err := orch.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
}

func TestStrategyIDs(t *testing.T) {
	records := []*domain.SessionRecord{
		{StrategyID: "b"}, {StrategyID: "a"}, {StrategyID: "b"},
	}
	got := strategyIDs(records)
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("expected [b a], got %v", got)
	}
}
