package decision

import (
	"errors"
	"testing"

	"negotiation-lab/internal/domain"
)

func TestDecisionInput_Validate(t *testing.T) {
	validInput := &DecisionInput{
		StrategyID:    "adaptive",
		ScenarioID:    domain.ScenarioStandard,
		TotalSessions: 10,
		AgreementRate: 0.5,
	}

	if err := validInput.Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	var nilInput *DecisionInput
	if err := nilInput.Validate(); err == nil {
		t.Error("expected error for nil input")
	}

	input := *validInput
	input.StrategyID = ""
	if err := input.Validate(); !errors.Is(err, ErrEmptyStrategyID) {
		t.Errorf("expected ErrEmptyStrategyID, got %v", err)
	}

	input = *validInput
	input.ScenarioID = ""
	if err := input.Validate(); !errors.Is(err, ErrEmptyScenarioID) {
		t.Errorf("expected ErrEmptyScenarioID, got %v", err)
	}

	input = *validInput
	input.TotalSessions = -1
	if err := input.Validate(); !errors.Is(err, ErrNegativeCount) {
		t.Errorf("expected ErrNegativeCount, got %v", err)
	}

	input = *validInput
	input.AgreementRate = 1.5
	if err := input.Validate(); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate, got %v", err)
	}

	input = *validInput
	input.WorstOpponentAgreementRate = -0.1
	if err := input.Validate(); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate, got %v", err)
	}

	// Boundary cases - valid
	input = *validInput
	input.AgreementRate = 0
	input.ParetoOptimalRate = 1
	if err := input.Validate(); err != nil {
		t.Errorf("boundary rates should be valid, got %v", err)
	}
}
