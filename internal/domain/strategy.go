package domain

// StrategyAggregate represents per (strategy, opponent) aggregate metrics.
// Corresponds to strategy_aggregates table in ClickHouse.
type StrategyAggregate struct {
	StrategyID string // evaluated negotiator
	OpponentID string // counterpart negotiator, "ALL" for the pooled row
	ScenarioID string // scenario config

	// Counts
	TotalSessions int
	Agreements    int
	AgreementRate float64 // agreements / total_sessions

	// Self utility distribution (reserved value when no agreement)
	UtilityMean   float64
	UtilityMedian float64
	UtilityP10    float64
	UtilityP90    float64
	UtilityMin    float64
	UtilityMax    float64
	UtilityStddev float64

	// Advantage over own reserved value
	AdvantageMean float64

	// Efficiency
	WelfareMean       float64
	NashDistanceMean  float64
	ParetoOptimalRate float64 // pareto-optimal agreements / agreements
	StepsMean         float64

	// Opponent model
	EstimateErrorMean float64
}

// OpponentAll is the OpponentID of the pooled aggregate row.
const OpponentAll = "ALL"

// StrategyConfig represents negotiator configuration parameters.
type StrategyConfig struct {
	StrategyType string // "ADAPTIVE" | "TIME_BASED"
	Name         string // optional display name / preset

	// TIME_BASED parameters
	Exponent *float64
}

// Strategy type constants
const (
	StrategyTypeAdaptive  = "ADAPTIVE"
	StrategyTypeTimeBased = "TIME_BASED"
)
