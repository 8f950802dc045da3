package frontier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"negotiation-lab/internal/domain"
)

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
func (u tableUfun) Best() domain.Outcome   { return domain.NewOutcome(0) }

func outcomes(n int) []domain.Outcome {
	out := make([]domain.Outcome, n)
	for i := range out {
		out[i] = domain.NewOutcome(i)
	}
	return out
}

func TestAnalyze_ParetoSet(t *testing.T) {
	//           0    1    2    3    4    5
	self := tableUfun{table: []float64{1.0, 0.8, 0.8, 0.6, 0.5, 0.3}}
	opp := tableUfun{table: []float64{0.2, 0.5, 0.4, 0.7, 0.6, 0.9}}

	f := Analyze(outcomes(6), self, opp)

	// 2 is dominated by 1, 4 by 3
	assert.Equal(t, []domain.Outcome{
		domain.NewOutcome(0), domain.NewOutcome(1), domain.NewOutcome(3), domain.NewOutcome(5),
	}, f.Outcomes())
	assert.True(t, f.Contains(domain.NewOutcome(3)))
	assert.False(t, f.Contains(domain.NewOutcome(2)))
}

func TestAnalyze_EqualOpponentUtilityIsDominated(t *testing.T) {
	self := tableUfun{table: []float64{0.9, 0.7}}
	opp := tableUfun{table: []float64{0.5, 0.5}}

	f := Analyze(outcomes(2), self, opp)
	assert.Equal(t, []domain.Outcome{domain.NewOutcome(0)}, f.Outcomes())
}

func TestAnalyze_IdenticalPointsBothKept(t *testing.T) {
	self := tableUfun{table: []float64{0.6, 0.6}}
	opp := tableUfun{table: []float64{0.4, 0.4}}

	f := Analyze(outcomes(2), self, opp)
	assert.Equal(t, 2, f.Len())
}

func TestAnalyze_NashAndKalai(t *testing.T) {
	self := tableUfun{table: []float64{1.0, 0.875, 0.5, 0.25}}
	opp := tableUfun{table: []float64{0.0, 0.375, 0.625, 1.0}}

	f := Analyze(outcomes(4), self, opp)
	require.Equal(t, 4, f.Len())

	// products: 0, 0.328125, 0.3125, 0.25
	nash, ok := f.Nash()
	require.True(t, ok)
	assert.Equal(t, domain.NewOutcome(1), nash.Outcome)

	// min normalized gains: 0, 0.375, 0.5, 0.25
	kalai, ok := f.Kalai()
	require.True(t, ok)
	assert.Equal(t, domain.NewOutcome(2), kalai.Outcome)

	// Kalai concedes more
	floor, ok := f.Floor()
	require.True(t, ok)
	assert.Equal(t, domain.NewOutcome(2), floor.Outcome)
}

func TestAnalyze_NashTieKeepsFrontierOrder(t *testing.T) {
	self := tableUfun{table: []float64{0.75, 0.5}}
	opp := tableUfun{table: []float64{0.5, 0.75}}

	// equal products and welfare: first in frontier order wins
	f := Analyze(outcomes(2), self, opp)
	nash, ok := f.Nash()
	require.True(t, ok)
	assert.Equal(t, domain.NewOutcome(0), nash.Outcome)
}

func TestAnalyze_FloorIsLowerSelfUtility(t *testing.T) {
	self := tableUfun{table: []float64{1.0, 0.9, 0.5, 0.0}}
	opp := tableUfun{table: []float64{0.0, 0.3, 0.6, 1.0}}

	f := Analyze(outcomes(4), self, opp)

	// nash products: 0, 0.27, 0.30, 0 -> outcome 2
	// kalai mins: 0, 0.3, 0.5, 0 -> outcome 2
	nash, _ := f.Nash()
	kalai, _ := f.Kalai()
	floor, ok := f.Floor()
	require.True(t, ok)
	assert.LessOrEqual(t, floor.Self, nash.Self)
	assert.LessOrEqual(t, floor.Self, kalai.Self)
}

func TestAnalyze_Empty(t *testing.T) {
	f := Analyze(nil, tableUfun{}, tableUfun{})

	assert.True(t, f.Empty())
	assert.Equal(t, -1, f.NashIndex)
	assert.Equal(t, -1, f.KalaiIndex)

	_, ok := f.Floor()
	assert.False(t, ok)
	_, ok = f.ClosestBySelfUtility(0.5)
	assert.False(t, ok)
}

func TestAnalyze_SkipsEmptyAndDuplicateOutcomes(t *testing.T) {
	self := tableUfun{table: []float64{0.9}}
	opp := tableUfun{table: []float64{0.4}}

	f := Analyze([]domain.Outcome{{}, domain.NewOutcome(0), domain.NewOutcome(0)}, self, opp)
	assert.Equal(t, 1, f.Len())
}

func TestFrontier_Closest(t *testing.T) {
	self := tableUfun{table: []float64{1.0, 0.75, 0.5, 0.25}}
	opp := tableUfun{table: []float64{0.125, 0.5, 0.75, 1.0}}
	f := Analyze(outcomes(4), self, opp)

	p, ok := f.ClosestByOpponentUtility(0.7)
	require.True(t, ok)
	assert.Equal(t, domain.NewOutcome(2), p.Outcome)

	p, ok = f.ClosestBySelfUtility(0.8)
	require.True(t, ok)
	assert.Equal(t, domain.NewOutcome(1), p.Outcome)

	// equidistant: higher self utility wins
	p, _ = f.ClosestBySelfUtility(0.875)
	assert.Equal(t, domain.NewOutcome(0), p.Outcome)
}

func TestFrontier_PointsIsCopy(t *testing.T) {
	self := tableUfun{table: []float64{1.0}}
	opp := tableUfun{table: []float64{0.1}}
	f := Analyze(outcomes(1), self, opp)

	pts := f.Points()
	pts[0].Self = -1
	assert.Equal(t, 1.0, f.At(0).Self)
}
