// Package pipeline turns stored tournament data into report files.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"negotiation-lab/internal/decision"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/observability"
	"negotiation-lab/internal/reporting"
	"negotiation-lab/internal/storage"
)

// GeneratorVersion is written into the reproducibility section.
const GeneratorVersion = "1.0.0"

// Output file names.
const (
	ReportFile       = "REPORT.md"
	AggregatesFile   = "strategy_aggregates.csv"
	SessionsFile     = "session_records.csv"
	DecisionGateFile = "DECISION_GATE_REPORT.md"
)

// ReportPipeline orchestrates report + decision generation.
type ReportPipeline struct {
	reportGen          *reporting.Generator
	sessionStore       storage.SessionRecordStore
	sufficiencyChecker *SufficiencyChecker // optional
	outputDir          string
	clock              func() time.Time
	replayCommand      string
}

// Result summarizes one pipeline run.
type Result struct {
	Decision    decision.Decision // overall decision
	BestKey     string            // "strategy | scenario" the overall decision follows
	DataVersion string
	Files       []string
}

// NewReportPipeline creates a new pipeline writing into outputDir.
func NewReportPipeline(
	sessionStore storage.SessionRecordStore,
	aggStore storage.StrategyAggregateStore,
	outputDir string,
) *ReportPipeline {
	return &ReportPipeline{
		reportGen:    reporting.NewGenerator(sessionStore, aggStore),
		sessionStore: sessionStore,
		outputDir:    outputDir,
		clock:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *ReportPipeline) WithClock(clock func() time.Time) *ReportPipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithThresholds sets the decision gate thresholds.
func (p *ReportPipeline) WithThresholds(th decision.Thresholds) *ReportPipeline {
	p.reportGen = p.reportGen.WithThresholds(th)
	return p
}

// WithSufficiencyChecker enables the data sufficiency checks.
func (p *ReportPipeline) WithSufficiencyChecker(th SufficiencyThresholds) *ReportPipeline {
	p.sufficiencyChecker = NewSufficiencyChecker(p.sessionStore, th)
	return p
}

// WithReplayCommand records the command that reproduces the stored data.
func (p *ReportPipeline) WithReplayCommand(cmd string) *ReportPipeline {
	p.replayCommand = cmd
	return p
}

// Run executes the pipeline and writes:
// - REPORT.md
// - strategy_aggregates.csv
// - session_records.csv
// - DECISION_GATE_REPORT.md
func (p *ReportPipeline) Run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, err
	}

	// 1. Sufficiency check first (if configured)
	var suff *SufficiencyResult
	if p.sufficiencyChecker != nil {
		var err error
		suff, err = p.sufficiencyChecker.Check(ctx)
		if err != nil {
			return nil, err
		}
	}

	// 2. Report (includes per-group decisions)
	report, err := p.reportGen.Generate(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := p.sessionStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{DataVersion: computeDataVersion(report, sessions)}

	// 3. Overall decision
	switch {
	case suff != nil && !suff.AllPass:
		result.Decision = decision.DecisionInsufficientData
	case len(report.Decisions) == 0:
		result.Decision = decision.DecisionInsufficientData
	default:
		best := bestDecision(report)
		result.Decision = best.Decision
		result.BestKey = best.StrategyID + " | " + best.ScenarioID
	}

	// 4. Write files
	files := []struct {
		name    string
		content string
	}{
		{ReportFile, reporting.RenderMarkdown(report) + p.renderReproducibility(result)},
		{AggregatesFile, reporting.RenderCSV(report.StrategyMetrics)},
		{SessionsFile, reporting.RenderSessionsCSV(sessions)},
		{DecisionGateFile, p.renderDecisionGate(report, suff, result)},
	}
	for _, f := range files {
		path := filepath.Join(p.outputDir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, path)
	}

	observability.RecordReportGenerated()
	return result, nil
}

// bestDecision picks the decision whose pooled row has the highest mean
// advantage. Ties keep the first in report order.
func bestDecision(report *reporting.Report) *decision.DecisionResult {
	advantage := make(map[string]float64)
	for _, m := range report.StrategyMetrics {
		if m.OpponentID == domain.OpponentAll {
			advantage[m.StrategyID+"|"+m.ScenarioID] = m.AdvantageMean
		}
	}

	best := report.Decisions[0]
	bestAdv := advantage[best.StrategyID+"|"+best.ScenarioID]
	for _, d := range report.Decisions[1:] {
		if adv := advantage[d.StrategyID+"|"+d.ScenarioID]; adv > bestAdv {
			best, bestAdv = d, adv
		}
	}
	return best
}

func (p *ReportPipeline) renderReproducibility(result *Result) string {
	var sb strings.Builder
	sb.WriteString("## Reproducibility\n\n")
	sb.WriteString(fmt.Sprintf("- Generator version: %s\n", GeneratorVersion))
	sb.WriteString(fmt.Sprintf("- Data version: %s\n", result.DataVersion))
	if p.replayCommand != "" {
		sb.WriteString(fmt.Sprintf("- Replay: `%s`\n", p.replayCommand))
	}
	return sb.String()
}

// renderDecisionGate renders the combined decision report.
func (p *ReportPipeline) renderDecisionGate(report *reporting.Report, suff *SufficiencyResult, result *Result) string {
	var sb strings.Builder
	sb.WriteString("# Tournament Decision Gate Report\n\n")
	sb.WriteString("Generated at: " + p.clock().Format("2006-01-02 15:04:05 UTC") + "\n\n")

	if suff != nil {
		sb.WriteString("## Data Sufficiency\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, c := range suff.Checks {
			status := "PASS"
			if !c.Pass {
				status = "FAIL"
			}
			sb.WriteString("| " + c.Name + " | " + c.Threshold + " | " + c.Actual + " | " + status + " |\n")
		}
		sb.WriteString("\n")

		if len(suff.Errors) > 0 {
			sb.WriteString("### Integrity Errors\n\n")
			for _, e := range suff.Errors {
				sb.WriteString("- " + e + "\n")
			}
			sb.WriteString("\n")
		}
	}

	if result.Decision == decision.DecisionInsufficientData {
		sb.WriteString("## Decision: INSUFFICIENT_DATA\n\n")
		if len(report.Decisions) == 0 {
			sb.WriteString("No (strategy, scenario) group has both pooled and per-opponent aggregates.\n\n")
		} else {
			sb.WriteString("Data sufficiency checks failed. Cannot proceed with GO/NO-GO evaluation.\n\n")
		}
		sb.WriteString("### Required Actions\n\n")
		sb.WriteString("1. Run more sessions until all sufficiency checks pass\n")
		sb.WriteString("2. Fix any inconsistent records\n")
		sb.WriteString("3. Re-run the report\n")
		return sb.String()
	}

	decisions := make([]*decision.DecisionResult, len(report.Decisions))
	copy(decisions, report.Decisions)
	sort.SliceStable(decisions, func(i, j int) bool {
		if decisions[i].StrategyID != decisions[j].StrategyID {
			return decisions[i].StrategyID < decisions[j].StrategyID
		}
		return decisions[i].ScenarioID < decisions[j].ScenarioID
	})

	for i, d := range decisions {
		if i > 0 {
			sb.WriteString("---\n\n")
		}
		header := "## Strategy: " + d.StrategyID + " | " + d.ScenarioID
		if d.StrategyID+" | "+d.ScenarioID == result.BestKey {
			header += " (Best)"
		}
		sb.WriteString(header + "\n\n")
		sb.WriteString(decision.RenderMarkdown(d))
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString("## Overall Decision\n\n")
	sb.WriteString(fmt.Sprintf("**%s** (based on best strategy: %s)\n", result.Decision, result.BestKey))

	return sb.String()
}

// computeDataVersion computes a short SHA256 of the aggregates and sessions.
func computeDataVersion(report *reporting.Report, sessions []*domain.SessionRecord) string {
	h := sha256.New()

	var metricParts []string
	for _, m := range report.StrategyMetrics {
		metricParts = append(metricParts, fmt.Sprintf("%s|%s|%s|%d|%.6f|%.6f|%.6f",
			m.StrategyID, m.ScenarioID, m.OpponentID,
			m.TotalSessions, m.AgreementRate, m.UtilityMean, m.AdvantageMean))
	}
	sort.Strings(metricParts)
	h.Write([]byte("METRICS\n"))
	h.Write([]byte(strings.Join(metricParts, "\n")))

	var sessionParts []string
	for _, s := range sessions {
		sessionParts = append(sessionParts, fmt.Sprintf("%s|%s|%.6f", s.SessionID, s.AgreementKey, s.SelfUtility))
	}
	sort.Strings(sessionParts)
	h.Write([]byte("\nSESSIONS\n"))
	h.Write([]byte(strings.Join(sessionParts, "\n")))

	return hex.EncodeToString(h.Sum(nil))[:12]
}
