package reporting

import (
	"fmt"
	"strings"
	"time"

	"negotiation-lab/internal/decision"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Tournament Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategies: %d | Scenarios: %d | Opponents: %d\n\n", r.StrategyCount, r.ScenarioCount, r.OpponentCount))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Runs | %d |\n", r.DataSummary.TotalRuns))
	sb.WriteString(fmt.Sprintf("| Sessions | %d |\n", r.DataSummary.TotalSessions))
	sb.WriteString(fmt.Sprintf("| Agreements | %d |\n", r.DataSummary.Agreements))
	sb.WriteString(fmt.Sprintf("| Timeouts | %d |\n", r.DataSummary.Timeouts))
	sb.WriteString(fmt.Sprintf("| Errors | %d |\n", r.DataSummary.Errors))
	sb.WriteString("\n")

	// Strategy Metrics
	sb.WriteString("## Strategy Metrics\n\n")
	if len(r.StrategyMetrics) > 0 {
		sb.WriteString("| Strategy | Scenario | Opponent | Sessions | Agree | Mean | Median | P10 | P90 | Adv | Welfare | Nash Dist | Pareto | Steps | RV Err |\n")
		sb.WriteString("|----------|----------|----------|----------|-------|------|--------|-----|-----|-----|---------|-----------|--------|-------|--------|\n")
		for _, m := range r.StrategyMetrics {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.1f | %.4f |\n",
				m.StrategyID, m.ScenarioID, m.OpponentID, m.TotalSessions,
				m.AgreementRate, m.UtilityMean, m.UtilityMedian, m.UtilityP10, m.UtilityP90,
				m.AdvantageMean, m.WelfareMean, m.NashDistanceMean, m.ParetoOptimalRate,
				m.StepsMean, m.EstimateErrorMean))
		}
	} else {
		sb.WriteString("No strategy metrics available.\n")
	}
	sb.WriteString("\n")

	// Scenario Sensitivity
	sb.WriteString("## Scenario Sensitivity\n\n")
	if len(r.ScenarioSensitivity) > 0 {
		sb.WriteString("| Strategy | Opponent | Small | Standard | Large | Degradation% |\n")
		sb.WriteString("|----------|----------|-------|----------|-------|-------------|\n")
		for _, s := range r.ScenarioSensitivity {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f | %.4f | %.2f |\n",
				s.StrategyID, s.OpponentID,
				s.SmallMean, s.StandardMean, s.LargeMean, s.DegradationPct))
		}
	} else {
		sb.WriteString("No scenario sensitivity data available.\n")
	}
	sb.WriteString("\n")

	// Decisions
	sb.WriteString("## Decision Gate\n\n")
	if len(r.Decisions) > 0 {
		sb.WriteString("| Strategy | Scenario | Decision | Failed |\n")
		sb.WriteString("|----------|----------|----------|--------|\n")
		for _, d := range r.Decisions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				d.StrategyID, d.ScenarioID, d.Decision, failedNames(d)))
		}
	} else {
		sb.WriteString("No decisions evaluated.\n")
	}
	sb.WriteString("\n")

	// Session References
	sb.WriteString("## Session References\n\n")
	if len(r.SessionReferences) > 0 {
		sb.WriteString("| Strategy | Scenario | Opponent | Session | Seed | Advantage | End |\n")
		sb.WriteString("|----------|----------|----------|---------|------|-----------|-----|\n")
		for _, ref := range r.SessionReferences {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %.4f | %s |\n",
				ref.StrategyID, ref.ScenarioID, ref.OpponentID, ref.SessionID, ref.Seed, ref.Advantage, ref.EndReason))
		}
	} else {
		sb.WriteString("No session references available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func failedNames(d *decision.DecisionResult) string {
	var names []string
	for _, c := range d.GOCriteria {
		if !c.Pass {
			names = append(names, c.Name)
		}
	}
	for _, c := range d.NOGOChecks {
		if !c.Pass {
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, "; ")
}
