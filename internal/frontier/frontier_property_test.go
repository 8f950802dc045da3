//go:build property

package frontier

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func dominates(a, b Point) bool {
	return a.Self >= b.Self && a.Opponent >= b.Opponent &&
		(a.Self > b.Self || a.Opponent > b.Opponent)
}

func TestProperty_ParetoNonDominated(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 300
	properties := gopter.NewProperties(params)

	// utilities on a coarse grid so ties are frequent
	grid := gen.IntRange(0, 10).Map(func(i int) float64 { return float64(i) / 10 })

	properties.Property("no frontier member is dominated and every excluded point is", prop.ForAll(
		func(selfVals, oppVals []float64) bool {
			n := len(selfVals)
			if len(oppVals) < n {
				n = len(oppVals)
			}
			self := tableUfun{table: selfVals[:n]}
			opp := tableUfun{table: oppVals[:n]}
			all := outcomes(n)

			f := Analyze(all, self, opp)

			var points []Point
			for _, o := range all {
				points = append(points, Point{Outcome: o, Self: self.Utility(o), Opponent: opp.Utility(o)})
			}

			for _, p := range points {
				dominated := false
				for _, q := range points {
					if dominates(q, p) {
						dominated = true
						break
					}
				}
				if dominated == f.Contains(p.Outcome) {
					return false
				}
			}

			for i := 1; i < f.Len(); i++ {
				if f.At(i-1).Self < f.At(i).Self {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(30, grid),
		gen.SliceOfN(30, grid),
	))

	properties.Property("bargaining points lie on the frontier", prop.ForAll(
		func(selfVals, oppVals []float64) bool {
			self := tableUfun{table: selfVals}
			opp := tableUfun{table: oppVals}
			f := Analyze(outcomes(len(selfVals)), self, opp)
			if f.Empty() {
				return f.NashIndex == -1 && f.KalaiIndex == -1
			}
			return f.NashIndex >= 0 && f.NashIndex < f.Len() &&
				f.KalaiIndex >= 0 && f.KalaiIndex < f.Len()
		},
		gen.SliceOfN(20, grid),
		gen.SliceOfN(20, grid),
	))

	properties.TestingRun(t)
}
