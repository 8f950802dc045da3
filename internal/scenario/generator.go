// Package scenario generates seeded bilateral negotiation domains.
package scenario

import (
	"errors"
	"fmt"
	"math/rand"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/outcomespace"
	"negotiation-lab/internal/ufun"
)

// Generator errors
var (
	ErrInvalidIssueRange = errors.New("invalid issue range")
	ErrInvalidValueRange = errors.New("invalid value range")
	ErrInvalidReserved   = errors.New("max reserved value must be in [0,1]")
	ErrInvalidSteps      = errors.New("n_steps must be at least 2")
)

// Kind describes how the two preference profiles relate.
type Kind string

const (
	// KindIndependent draws both profiles independently.
	KindIndependent Kind = "independent"
	// KindOpposed reverses the first profile's value ranking for the second
	// party on every issue, so gains for one side are losses for the other.
	KindOpposed Kind = "opposed"
)

// Scenario is one generated negotiation domain.
type Scenario struct {
	ID       string // "<config>-<seed>"
	ConfigID string
	Seed     int64
	Kind     Kind
	Space    *outcomespace.Discrete
	First    *ufun.LinearAdditive // evaluated strategy's preferences
	Second   *ufun.LinearAdditive // opponent's preferences
	NSteps   int
}

// Validate checks a scenario configuration.
func Validate(cfg domain.ScenarioConfig) error {
	if cfg.MinIssues < 1 || cfg.MaxIssues < cfg.MinIssues {
		return ErrInvalidIssueRange
	}
	if cfg.MinValues < 2 || cfg.MaxValues < cfg.MinValues {
		return ErrInvalidValueRange
	}
	if cfg.MaxReserved < 0 || cfg.MaxReserved > 1 {
		return ErrInvalidReserved
	}
	if cfg.NSteps < 2 {
		return ErrInvalidSteps
	}
	return nil
}

// Generate builds the scenario for seed. The same (cfg, seed) always yields
// the same scenario.
func Generate(cfg domain.ScenarioConfig, seed int64) (*Scenario, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))

	nIssues := between(rng, cfg.MinIssues, cfg.MaxIssues)
	issues := make([]int, nIssues)
	for i := range issues {
		issues[i] = between(rng, cfg.MinValues, cfg.MaxValues)
	}

	space, err := outcomespace.NewDiscrete(issues, cfg.MaxCardinality, seed)
	if err != nil {
		return nil, fmt.Errorf("outcome space: %w", err)
	}

	kind := KindIndependent
	if rng.Intn(2) == 1 {
		kind = KindOpposed
	}

	firstValues := randomValues(rng, issues)
	var secondValues [][]float64
	if kind == KindOpposed {
		secondValues = reversed(firstValues)
	} else {
		secondValues = randomValues(rng, issues)
	}

	first, err := ufun.NewLinearAdditive(randomWeights(rng, nIssues), firstValues, rng.Float64()*cfg.MaxReserved)
	if err != nil {
		return nil, fmt.Errorf("first utility function: %w", err)
	}
	second, err := ufun.NewLinearAdditive(randomWeights(rng, nIssues), secondValues, rng.Float64()*cfg.MaxReserved)
	if err != nil {
		return nil, fmt.Errorf("second utility function: %w", err)
	}

	return &Scenario{
		ID:       fmt.Sprintf("%s-%d", cfg.ScenarioID, seed),
		ConfigID: cfg.ScenarioID,
		Seed:     seed,
		Kind:     kind,
		Space:    space,
		First:    first,
		Second:   second,
		NSteps:   cfg.NSteps,
	}, nil
}

func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func randomWeights(rng *rand.Rand, n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.05 + rng.Float64()
	}
	return w
}

// randomValues draws per-issue value utilities scaled so every issue spans
// [0,1]: its best value scores 1 and its worst 0.
func randomValues(rng *rand.Rand, issues []int) [][]float64 {
	values := make([][]float64, len(issues))
	for i, n := range issues {
		v := make([]float64, n)
		lo, hi := 1.0, 0.0
		for j := range v {
			v[j] = rng.Float64()
			if v[j] < lo {
				lo = v[j]
			}
			if v[j] > hi {
				hi = v[j]
			}
		}
		for j := range v {
			if hi > lo {
				v[j] = (v[j] - lo) / (hi - lo)
			} else {
				v[j] = 1
			}
		}
		values[i] = v
	}
	return values
}

func reversed(values [][]float64) [][]float64 {
	out := make([][]float64, len(values))
	for i, v := range values {
		out[i] = make([]float64, len(v))
		for j, x := range v {
			out[i][j] = 1 - x
		}
	}
	return out
}
