package strategy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/outcomespace"
	"negotiation-lab/internal/ufun"
)

// tableUfun scores single-issue outcomes from a lookup table.
type tableUfun struct {
	table []float64
	rv    float64
}

func (u tableUfun) Utility(o domain.Outcome) float64 {
	v := o.Values()
	if len(v) != 1 || v[0] >= len(u.table) {
		return 0
	}
	return u.table[v[0]]
}

func (u tableUfun) ReservedValue() float64 { return u.rv }

func (u tableUfun) Best() domain.Outcome {
	best := 0
	for i, x := range u.table {
		if x > u.table[best] {
			best = i
		}
	}
	return domain.NewOutcome(best)
}

// Fixture: outcomes 0-7 trade off along the frontier, 8 is dominated by 2,
// 9 is below the own reserved value. Nash and Kalai are both outcome 3.
var (
	fixtureSelf = tableUfun{
		table: []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.75, 0.1},
		rv:    0.25,
	}
	fixtureOpp = tableUfun{
		table: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.27, 0.95},
	}
)

func fixtureSpace(t *testing.T) *outcomespace.Discrete {
	t.Helper()
	space, err := outcomespace.NewDiscrete([]int{10}, 0, 1)
	require.NoError(t, err)
	return space
}

func newFixtureEngine(t *testing.T, policy Policy) *Engine {
	t.Helper()
	return NewEngine(Params{
		Space:    fixtureSpace(t),
		Self:     fixtureSelf,
		Opponent: fixtureOpp,
		Policy:   policy,
	})
}

func state(offer domain.Outcome, t float64, step, total int) domain.NegotiationState {
	return domain.NegotiationState{CurrentOffer: offer, RelativeTime: t, Step: step, TotalSteps: total}
}

func o(v int) domain.Outcome {
	return domain.NewOutcome(v)
}

// randomScenario builds a random two-party linear additive domain.
func randomScenario(t *testing.T, seed int64) (*outcomespace.Discrete, *ufun.LinearAdditive, *ufun.LinearAdditive) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	nIssues := 2 + rng.Intn(2)
	issues := make([]int, nIssues)
	for i := range issues {
		issues[i] = 3 + rng.Intn(5)
	}
	space, err := outcomespace.NewDiscrete(issues, 0, seed)
	require.NoError(t, err)

	mk := func() *ufun.LinearAdditive {
		weights := make([]float64, nIssues)
		values := make([][]float64, nIssues)
		for i, n := range issues {
			weights[i] = rng.Float64() + 0.01
			values[i] = make([]float64, n)
			for j := range values[i] {
				values[i][j] = rng.Float64()
			}
		}
		u, err := ufun.NewLinearAdditive(weights, values, rng.Float64()*0.6)
		require.NoError(t, err)
		return u
	}
	return space, mk(), mk()
}
