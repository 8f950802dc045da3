package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"negotiation-lab/internal/decision"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/metrics"
	"negotiation-lab/internal/storage/memory"
	"negotiation-lab/internal/strategy"
	"negotiation-lab/internal/tournament"
)

// seedStores runs a small tournament into memory stores and aggregates it.
func seedStores(t *testing.T, sessions int) (*memory.SessionRecordStore, *memory.StrategyAggregateStore) {
	t.Helper()
	ctx := context.Background()

	sessionStore := memory.NewSessionRecordStore()
	aggStore := memory.NewStrategyAggregateStore()

	runner := tournament.NewRunner(tournament.RunnerOptions{SessionStore: sessionStore})
	_, err := runner.Run(ctx, tournament.Config{
		RunID:    "run-pipeline",
		Scenario: domain.ScenarioConfigSmall,
		Sessions: sessions,
		BaseSeed: 5,
	})
	if err != nil {
		t.Fatalf("run tournament: %v", err)
	}

	agg := metrics.NewAggregator(sessionStore, aggStore)
	if _, err := agg.ComputeAllAndStore(ctx, strategy.DefaultEngineID, domain.ScenarioSmall); err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	return sessionStore, aggStore
}

func TestReportPipeline_Run(t *testing.T) {
	tempDir := t.TempDir()
	sessionStore, aggStore := seedStores(t, 30)

	fixedTime := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	p := NewReportPipeline(sessionStore, aggStore, tempDir).
		WithClock(func() time.Time { return fixedTime }).
		WithSufficiencyChecker(DefaultSufficiencyThresholds()).
		WithReplayCommand("tournament --sessions 30")

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Pipeline run failed: %v", err)
	}

	if result.Decision != decision.DecisionGO && result.Decision != decision.DecisionNOGO {
		t.Errorf("expected GO or NO-GO, got %s", result.Decision)
	}
	if result.BestKey != strategy.DefaultEngineID+" | "+domain.ScenarioSmall {
		t.Errorf("unexpected best key %q", result.BestKey)
	}
	if len(result.DataVersion) != 12 {
		t.Errorf("expected 12-char data version, got %q", result.DataVersion)
	}

	for _, f := range []string{ReportFile, AggregatesFile, SessionsFile, DecisionGateFile} {
		path := filepath.Join(tempDir, f)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("expected file %s to exist", f)
		}
	}
	if len(result.Files) != 4 {
		t.Errorf("expected 4 files, got %d", len(result.Files))
	}

	report, err := os.ReadFile(filepath.Join(tempDir, ReportFile))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(report), "Data version: "+result.DataVersion) {
		t.Error("report missing data version")
	}
	if !strings.Contains(string(report), "`tournament --sessions 30`") {
		t.Error("report missing replay command")
	}

	gate, err := os.ReadFile(filepath.Join(tempDir, DecisionGateFile))
	if err != nil {
		t.Fatalf("read decision gate: %v", err)
	}
	if !strings.Contains(string(gate), "Generated at: 2026-01-04 12:00:00 UTC") {
		t.Error("decision gate missing fixed timestamp")
	}
	if !strings.Contains(string(gate), "## Overall Decision") {
		t.Error("decision gate missing overall decision")
	}
	if !strings.Contains(string(gate), "(Best)") {
		t.Error("decision gate missing best marker")
	}

	sessionsCSV, err := os.ReadFile(filepath.Join(tempDir, SessionsFile))
	if err != nil {
		t.Fatalf("read sessions csv: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(string(sessionsCSV)), "\n"); len(lines) != 31 {
		t.Errorf("expected header + 30 rows, got %d lines", len(lines))
	}
}

func TestReportPipeline_Deterministic(t *testing.T) {
	sessionStore, aggStore := seedStores(t, 12)
	fixedTime := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)

	read := func(dir string) string {
		p := NewReportPipeline(sessionStore, aggStore, dir).WithClock(func() time.Time { return fixedTime })
		if _, err := p.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, ReportFile))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return string(data)
	}

	if read(t.TempDir()) != read(t.TempDir()) {
		t.Error("expected identical reports for identical data")
	}
}

func TestReportPipeline_InsufficientData(t *testing.T) {
	tempDir := t.TempDir()
	sessionStore, aggStore := seedStores(t, 6)

	p := NewReportPipeline(sessionStore, aggStore, tempDir).
		WithSufficiencyChecker(DefaultSufficiencyThresholds())

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Pipeline run failed: %v", err)
	}
	if result.Decision != decision.DecisionInsufficientData {
		t.Errorf("expected INSUFFICIENT_DATA, got %s", result.Decision)
	}

	gate, err := os.ReadFile(filepath.Join(tempDir, DecisionGateFile))
	if err != nil {
		t.Fatalf("read decision gate: %v", err)
	}
	if !strings.Contains(string(gate), "## Decision: INSUFFICIENT_DATA") {
		t.Error("expected INSUFFICIENT_DATA section")
	}
	if !strings.Contains(string(gate), "| Total sessions | >= 30 | 6 | FAIL |") {
		t.Errorf("expected failing total sessions row, got:\n%s", gate)
	}
}

func TestReportPipeline_NoAggregates(t *testing.T) {
	p := NewReportPipeline(memory.NewSessionRecordStore(), memory.NewStrategyAggregateStore(), t.TempDir())

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Pipeline run failed: %v", err)
	}
	if result.Decision != decision.DecisionInsufficientData {
		t.Errorf("expected INSUFFICIENT_DATA, got %s", result.Decision)
	}
}
