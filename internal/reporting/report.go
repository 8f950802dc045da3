package reporting

import (
	"time"

	"negotiation-lab/internal/decision"
)

// Report represents the tournament report structure.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	StrategyCount int
	ScenarioCount int
	OpponentCount int

	// Data Summary
	DataSummary DataSummary

	// Strategy Metrics (sorted by strategy_id, scenario_id, opponent_id; pooled row last)
	StrategyMetrics []StrategyMetricRow

	// Comparisons
	ScenarioSensitivity []ScenarioSensitivityRow // small vs standard vs large

	// Decision gate per (strategy_id, scenario_id)
	Decisions []*decision.DecisionResult

	// Lowest-advantage sessions per (strategy_id, scenario_id)
	SessionReferences []SessionReferenceRow
}

// DataSummary describes the stored sessions.
type DataSummary struct {
	TotalRuns     int
	TotalSessions int
	Agreements    int
	Timeouts      int
	Errors        int
}

// StrategyMetricRow represents one row in strategy metrics table.
type StrategyMetricRow struct {
	StrategyID        string
	OpponentID        string
	ScenarioID        string
	TotalSessions     int
	AgreementRate     float64
	UtilityMean       float64
	UtilityMedian     float64
	UtilityP10        float64
	UtilityP90        float64
	AdvantageMean     float64
	WelfareMean       float64
	NashDistanceMean  float64
	ParetoOptimalRate float64
	StepsMean         float64
	EstimateErrorMean float64
}

// ScenarioSensitivityRow compares the pooled utility across scenario sizes.
type ScenarioSensitivityRow struct {
	StrategyID     string
	OpponentID     string
	SmallMean      float64
	StandardMean   float64
	LargeMean      float64
	DegradationPct float64 // (standard - large) / standard * 100, 0 if standard == 0
}

// SessionReferenceRow points at one stored session for replay.
type SessionReferenceRow struct {
	StrategyID string
	ScenarioID string
	OpponentID string
	SessionID  string
	Seed       int64
	Advantage  float64
	EndReason  string
}
