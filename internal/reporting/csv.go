package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"

	"negotiation-lab/internal/domain"
)

// RenderCSV renders strategy aggregates as CSV string.
func RenderCSV(metrics []StrategyMetricRow) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write([]string{
		"strategy_id", "scenario_id", "opponent_id", "total_sessions", "agreement_rate",
		"utility_mean", "utility_median", "utility_p10", "utility_p90",
		"advantage_mean", "welfare_mean", "nash_distance_mean", "pareto_optimal_rate",
		"steps_mean", "estimate_error_mean",
	})

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, m := range metrics {
		_ = w.Write([]string{
			m.StrategyID,
			m.ScenarioID,
			m.OpponentID,
			strconv.Itoa(m.TotalSessions),
			f(m.AgreementRate),
			f(m.UtilityMean),
			f(m.UtilityMedian),
			f(m.UtilityP10),
			f(m.UtilityP90),
			f(m.AdvantageMean),
			f(m.WelfareMean),
			f(m.NashDistanceMean),
			f(m.ParetoOptimalRate),
			f(m.StepsMean),
			f(m.EstimateErrorMean),
		})
	}

	w.Flush()
	return sb.String()
}

// RenderSessionsCSV renders session records as CSV string, one row per session.
func RenderSessionsCSV(sessions []*domain.SessionRecord) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write([]string{
		"session_id", "run_id", "scenario_id", "strategy_id", "opponent_id", "seed",
		"n_steps", "steps_used", "agreement", "agreement_key",
		"self_utility", "opponent_utility", "self_reserved", "opponent_reserved",
		"welfare", "nash_distance", "pareto_optimal", "end_reason",
		"estimated_opponent_rv", "estimate_error", "fit_attempts", "fit_failures",
	})

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, s := range sessions {
		_ = w.Write([]string{
			s.SessionID,
			s.RunID,
			s.ScenarioID,
			s.StrategyID,
			s.OpponentID,
			strconv.FormatInt(s.Seed, 10),
			strconv.Itoa(s.NSteps),
			strconv.Itoa(s.StepsUsed),
			strconv.FormatBool(s.Agreement),
			s.AgreementKey,
			f(s.SelfUtility),
			f(s.OpponentUtility),
			f(s.SelfReserved),
			f(s.OpponentReserved),
			f(s.Welfare),
			f(s.NashDistance),
			strconv.FormatBool(s.ParetoOptimal),
			s.EndReason,
			f(s.EstimatedOpponentRV),
			f(s.EstimateError),
			strconv.Itoa(s.FitAttempts),
			strconv.Itoa(s.FitFailures),
		})
	}

	w.Flush()
	return sb.String()
}
