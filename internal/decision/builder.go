package decision

import (
	"errors"

	"negotiation-lab/internal/domain"
)

var (
	// ErrStrategyNotFound is returned when no pooled aggregate exists for the strategy.
	ErrStrategyNotFound = errors.New("strategy not found in aggregates")
	// ErrNoOpponentRows is returned when only the pooled row exists.
	ErrNoOpponentRows = errors.New("no per-opponent aggregates")
)

// Build creates DecisionInput for (strategyID, scenarioID) from aggregates.
// The pooled domain.OpponentAll row supplies the headline metrics and the
// per-opponent rows supply the worst-opponent agreement rate. Ties on the
// worst rate go to the lexicographically smallest opponent ID.
func Build(aggs []*domain.StrategyAggregate, strategyID, scenarioID string) (*DecisionInput, error) {
	var pooled *domain.StrategyAggregate
	var worst *domain.StrategyAggregate

	for _, a := range aggs {
		if a.StrategyID != strategyID || a.ScenarioID != scenarioID {
			continue
		}
		if a.OpponentID == domain.OpponentAll {
			pooled = a
			continue
		}
		if worst == nil || a.AgreementRate < worst.AgreementRate ||
			(a.AgreementRate == worst.AgreementRate && a.OpponentID < worst.OpponentID) {
			worst = a
		}
	}

	if pooled == nil {
		return nil, ErrStrategyNotFound
	}
	if worst == nil {
		return nil, ErrNoOpponentRows
	}

	input := &DecisionInput{
		StrategyID:                 strategyID,
		ScenarioID:                 scenarioID,
		TotalSessions:              pooled.TotalSessions,
		AgreementRate:              pooled.AgreementRate,
		AdvantageMean:              pooled.AdvantageMean,
		UtilityMedian:              pooled.UtilityMedian,
		ParetoOptimalRate:          pooled.ParetoOptimalRate,
		EstimateErrorMean:          pooled.EstimateErrorMean,
		WorstOpponentID:            worst.OpponentID,
		WorstOpponentAgreementRate: worst.AgreementRate,
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}
	return input, nil
}
