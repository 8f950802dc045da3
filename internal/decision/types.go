package decision

import (
	"errors"
	"fmt"
)

// Decision represents the final GO/NO-GO result.
type Decision string

const (
	DecisionGO   Decision = "GO"
	DecisionNOGO Decision = "NO-GO"

	// DecisionInsufficientData is reported when the stored sessions fail the
	// sufficiency checks and no GO/NO-GO evaluation is attempted.
	DecisionInsufficientData Decision = "INSUFFICIENT_DATA"
)

// Validation errors
var (
	ErrEmptyStrategyID = errors.New("strategy_id is empty")
	ErrEmptyScenarioID = errors.New("scenario_id is empty")
	ErrInvalidRate     = errors.New("rate must be in [0,1]")
	ErrNegativeCount   = errors.New("session count is negative")
)

// DecisionInput contains numeric metrics for decision evaluation.
type DecisionInput struct {
	StrategyID string
	ScenarioID string

	// Pooled over all opponents
	TotalSessions     int
	AgreementRate     float64
	AdvantageMean     float64 // mean self utility over own reserved value
	UtilityMedian     float64
	ParetoOptimalRate float64
	EstimateErrorMean float64

	// Weakest opponent by agreement rate
	WorstOpponentID            string
	WorstOpponentAgreementRate float64
}

// Validate checks the input before evaluation.
func (in *DecisionInput) Validate() error {
	if in == nil {
		return errors.New("nil decision input")
	}
	if in.StrategyID == "" {
		return ErrEmptyStrategyID
	}
	if in.ScenarioID == "" {
		return ErrEmptyScenarioID
	}
	if in.TotalSessions < 0 {
		return ErrNegativeCount
	}
	for name, r := range map[string]float64{
		"agreement_rate":                in.AgreementRate,
		"pareto_optimal_rate":           in.ParetoOptimalRate,
		"worst_opponent_agreement_rate": in.WorstOpponentAgreementRate,
	} {
		if r < 0 || r > 1 {
			return fmt.Errorf("%s=%f: %w", name, r, ErrInvalidRate)
		}
	}
	return nil
}

// Thresholds are the gate limits.
type Thresholds struct {
	MinSessions                   int     `yaml:"min_sessions"`
	MinAgreementRate              float64 `yaml:"min_agreement_rate"`
	MinAdvantage                  float64 `yaml:"min_advantage"`
	MinWorstOpponentAgreementRate float64 `yaml:"min_worst_opponent_agreement_rate"`
	MaxEstimateError              float64 `yaml:"max_estimate_error"`
}

// DefaultThresholds returns the standard gate.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSessions:                   30,
		MinAgreementRate:              0.6,
		MinAdvantage:                  0.1,
		MinWorstOpponentAgreementRate: 0.3,
		MaxEstimateError:              0.25,
	}
}

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DecisionResult contains the final decision with checklist.
type DecisionResult struct {
	Decision   Decision
	StrategyID string
	ScenarioID string
	GOCriteria []CriterionResult // 5 GO criteria
	NOGOChecks []CriterionResult // 3 NO-GO triggers
}
