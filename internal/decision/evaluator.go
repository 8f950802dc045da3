package decision

import "fmt"

// Evaluator evaluates decision criteria.
type Evaluator struct {
	thresholds Thresholds
}

// NewEvaluator creates a decision evaluator. A zero Thresholds uses
// DefaultThresholds().
func NewEvaluator(thresholds Thresholds) *Evaluator {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	return &Evaluator{thresholds: thresholds}
}

// Evaluate produces DecisionResult from DecisionInput.
// GO if ALL criteria pass and NO NO-GO triggers.
// NO-GO if ANY criterion fails or ANY trigger fires.
func (e *Evaluator) Evaluate(input DecisionInput) (*DecisionResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	goCriteria := e.evaluateGOCriteria(input)
	nogoChecks := e.evaluateNOGOTriggers(input)

	decision := DecisionGO
	for _, c := range append(goCriteria, nogoChecks...) {
		if !c.Pass {
			decision = DecisionNOGO
			break
		}
	}

	return &DecisionResult{
		Decision:   decision,
		StrategyID: input.StrategyID,
		ScenarioID: input.ScenarioID,
		GOCriteria: goCriteria,
		NOGOChecks: nogoChecks,
	}, nil
}

// evaluateGOCriteria evaluates the 5 GO criteria.
func (e *Evaluator) evaluateGOCriteria(input DecisionInput) []CriterionResult {
	th := e.thresholds
	criteria := make([]CriterionResult, 5)

	// 1. Enough sessions
	criteria[0] = CriterionResult{
		Name:      "Sample size",
		Threshold: fmt.Sprintf(">= %d sessions", th.MinSessions),
		Actual:    fmt.Sprintf("%d", input.TotalSessions),
		Pass:      input.TotalSessions >= th.MinSessions,
	}

	// 2. Agreement rate
	criteria[1] = CriterionResult{
		Name:      "Agreement rate",
		Threshold: fmt.Sprintf(">= %.0f%%", th.MinAgreementRate*100),
		Actual:    fmt.Sprintf("%.2f%%", input.AgreementRate*100),
		Pass:      input.AgreementRate >= th.MinAgreementRate,
	}

	// 3. Advantage over reserved value
	criteria[2] = CriterionResult{
		Name:      "Mean advantage over reserved value",
		Threshold: fmt.Sprintf(">= %.4f", th.MinAdvantage),
		Actual:    fmt.Sprintf("%.4f", input.AdvantageMean),
		Pass:      input.AdvantageMean >= th.MinAdvantage,
	}

	// 4. No opponent starves the strategy of agreements
	criteria[3] = CriterionResult{
		Name:      "Worst opponent agreement rate",
		Threshold: fmt.Sprintf(">= %.0f%%", th.MinWorstOpponentAgreementRate*100),
		Actual:    fmt.Sprintf("%s=%.2f%%", input.WorstOpponentID, input.WorstOpponentAgreementRate*100),
		Pass:      input.WorstOpponentAgreementRate >= th.MinWorstOpponentAgreementRate,
	}

	// 5. Opponent model accuracy
	criteria[4] = CriterionResult{
		Name:      "Reserved value estimate error",
		Threshold: fmt.Sprintf("<= %.4f", th.MaxEstimateError),
		Actual:    fmt.Sprintf("%.4f", input.EstimateErrorMean),
		Pass:      input.EstimateErrorMean <= th.MaxEstimateError,
	}

	return criteria
}

// evaluateNOGOTriggers evaluates the 3 NO-GO triggers.
// Pass=true means NOT triggered, Pass=false means triggered.
func (e *Evaluator) evaluateNOGOTriggers(input DecisionInput) []CriterionResult {
	checks := make([]CriterionResult, 3)

	// 1. Strategy does worse than walking away
	checks[0] = CriterionResult{
		Name:      "Negative advantage",
		Threshold: "AdvantageMean < 0",
		Actual:    fmt.Sprintf("%.4f", input.AdvantageMean),
		Pass:      input.AdvantageMean >= 0,
	}

	// 2. Some opponent never agrees
	checks[1] = CriterionResult{
		Name:      "Opponent never agrees",
		Threshold: "WorstOpponentAgreementRate == 0",
		Actual:    fmt.Sprintf("%s=%.2f%%", input.WorstOpponentID, input.WorstOpponentAgreementRate*100),
		Pass:      input.WorstOpponentAgreementRate > 0,
	}

	// 3. Agreements are never efficient
	checks[2] = CriterionResult{
		Name:      "No Pareto-optimal agreements",
		Threshold: "AgreementRate > 0 AND ParetoOptimalRate == 0",
		Actual:    fmt.Sprintf("AgreementRate=%.2f, ParetoOptimalRate=%.2f", input.AgreementRate, input.ParetoOptimalRate),
		Pass:      !(input.AgreementRate > 0 && input.ParetoOptimalRate == 0),
	}

	return checks
}
