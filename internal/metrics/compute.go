package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"negotiation-lab/internal/domain"
)

// computeFromSessions calculates all metrics from a slice of sessions.
// Sessions must be pre-filtered by (strategy_id, opponent_id, scenario_id).
// Sessions are sorted by Seed ASC, SessionID ASC so floating point sums are
// order independent of storage.
func computeFromSessions(sessions []*domain.SessionRecord) *domain.StrategyAggregate {
	n := len(sessions)
	if n == 0 {
		return &domain.StrategyAggregate{}
	}

	sorted := make([]*domain.SessionRecord, n)
	copy(sorted, sessions)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Seed != sorted[j].Seed {
			return sorted[i].Seed < sorted[j].Seed
		}
		return sorted[i].SessionID < sorted[j].SessionID
	})

	agreements, paretoOptimal := 0, 0
	utilities := make([]float64, n)
	advantages := make([]float64, n)
	welfare := make([]float64, n)
	nash := make([]float64, n)
	steps := make([]float64, n)
	estErrors := make([]float64, 0, n)

	for i, s := range sorted {
		if s.Agreement {
			agreements++
			if s.ParetoOptimal {
				paretoOptimal++
			}
		}
		utilities[i] = s.SelfUtility
		advantages[i] = s.SelfUtility - s.SelfReserved
		welfare[i] = s.Welfare
		nash[i] = s.NashDistance
		steps[i] = float64(s.StepsUsed)
		if s.FitAttempts > 0 {
			estErrors = append(estErrors, s.EstimateError)
		}
	}

	sortedUtilities := make([]float64, n)
	copy(sortedUtilities, utilities)
	sort.Float64s(sortedUtilities)

	mean := computeMean(utilities)

	return &domain.StrategyAggregate{
		// Counts
		TotalSessions: n,
		Agreements:    agreements,
		AgreementRate: computeRate(agreements, n),

		// Utility distribution
		UtilityMean:   mean,
		UtilityMedian: computePercentile(sortedUtilities, 0.50),
		UtilityP10:    computePercentile(sortedUtilities, 0.10),
		UtilityP90:    computePercentile(sortedUtilities, 0.90),
		UtilityMin:    sortedUtilities[0],
		UtilityMax:    sortedUtilities[n-1],
		UtilityStddev: computeStddev(utilities),

		AdvantageMean: computeMean(advantages),

		// Efficiency
		WelfareMean:       computeMean(welfare),
		NashDistanceMean:  computeMean(nash),
		ParetoOptimalRate: computeRate(paretoOptimal, agreements),
		StepsMean:         computeMean(steps),

		// Only sessions where the model actually fitted
		EstimateErrorMean: computeMean(estErrors),
	}
}

// computeRate calculates part / total, 0 for an empty total.
func computeRate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// computePercentile uses linear interpolation between the n-1 gaps of the
// sorted sample (stat.Quantile's LinInterp places points differently).
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
