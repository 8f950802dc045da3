// Package frontier computes the Pareto frontier of a two-party outcome set
// and the Nash and Kalai-Smorodinsky bargaining points on it.
package frontier

import (
	"math"
	"sort"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/ufun"
)

// Point is an outcome with both parties' utilities.
type Point struct {
	Outcome  domain.Outcome
	Self     float64
	Opponent float64
}

// Welfare returns the utility sum.
func (p Point) Welfare() float64 {
	return p.Self + p.Opponent
}

// Frontier is the Pareto-efficient subset of an outcome set, sorted by self
// utility descending, with the bargaining points indexed into it.
// A Frontier is immutable once built.
type Frontier struct {
	points     []Point
	index      map[domain.Outcome]int
	NashIndex  int // -1 when absent
	KalaiIndex int // -1 when absent
}

// Analyze builds the frontier of outcomes under the two utility functions.
// Gains for the bargaining points are measured over each function's
// reserved value. An empty input yields an empty frontier.
func Analyze(outcomes []domain.Outcome, self, opp ufun.UtilityFunction) *Frontier {
	points := make([]Point, 0, len(outcomes))
	seen := make(map[domain.Outcome]struct{}, len(outcomes))
	for _, o := range outcomes {
		if o.IsZero() {
			continue
		}
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		points = append(points, Point{Outcome: o, Self: self.Utility(o), Opponent: opp.Utility(o)})
	}

	f := &Frontier{
		points:     paretoSweep(points),
		NashIndex:  -1,
		KalaiIndex: -1,
	}
	f.index = make(map[domain.Outcome]int, len(f.points))
	for i, p := range f.points {
		f.index[p.Outcome] = i
	}
	if len(f.points) > 0 {
		f.NashIndex = nashIndex(f.points, self.ReservedValue(), opp.ReservedValue())
		f.KalaiIndex = kalaiIndex(f.points, self.ReservedValue(), opp.ReservedValue())
	}
	return f
}

// paretoSweep returns the non-dominated points sorted by self utility
// descending. A point is dominated when another is at least as good for
// both parties and strictly better for one; identical utility pairs do not
// dominate each other.
func paretoSweep(points []Point) []Point {
	sort.Slice(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.Self != b.Self {
			return a.Self > b.Self
		}
		if a.Opponent != b.Opponent {
			return a.Opponent > b.Opponent
		}
		return a.Outcome.Less(b.Outcome)
	})

	var out []Point
	bestOpp := math.Inf(-1)
	for i := 0; i < len(points); {
		// group of equal self utility; the first member has the group's max
		j := i
		for j < len(points) && points[j].Self == points[i].Self {
			j++
		}
		top := points[i].Opponent
		if top > bestOpp {
			for k := i; k < j && points[k].Opponent == top; k++ {
				out = append(out, points[k])
			}
			bestOpp = top
		}
		i = j
	}
	return out
}

func nashIndex(points []Point, selfRV, oppRV float64) int {
	best, bestProduct, bestWelfare := -1, math.Inf(-1), math.Inf(-1)
	for i, p := range points {
		gainSelf, gainOpp := p.Self-selfRV, p.Opponent-oppRV
		if gainSelf < 0 || gainOpp < 0 {
			continue
		}
		product := gainSelf * gainOpp
		if product > bestProduct || (product == bestProduct && p.Welfare() > bestWelfare) {
			best, bestProduct, bestWelfare = i, product, p.Welfare()
		}
	}
	return best
}

func kalaiIndex(points []Point, selfRV, oppRV float64) int {
	maxSelf, maxOpp := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		maxSelf = math.Max(maxSelf, p.Self)
		maxOpp = math.Max(maxOpp, p.Opponent)
	}
	norm := func(u, rv, max float64) float64 {
		if max-rv <= 0 {
			return 0
		}
		return (u - rv) / (max - rv)
	}

	best, bestMin, bestWelfare := -1, math.Inf(-1), math.Inf(-1)
	for i, p := range points {
		if p.Self < selfRV || p.Opponent < oppRV {
			continue
		}
		m := math.Min(norm(p.Self, selfRV, maxSelf), norm(p.Opponent, oppRV, maxOpp))
		if m > bestMin || (m == bestMin && p.Welfare() > bestWelfare) {
			best, bestMin, bestWelfare = i, m, p.Welfare()
		}
	}
	return best
}

// Len returns the number of Pareto outcomes.
func (f *Frontier) Len() int {
	return len(f.points)
}

// Empty reports whether the frontier has no outcomes.
func (f *Frontier) Empty() bool {
	return len(f.points) == 0
}

// At returns the i-th point (self utility descending).
func (f *Frontier) At(i int) Point {
	return f.points[i]
}

// Points returns a copy of the frontier.
func (f *Frontier) Points() []Point {
	out := make([]Point, len(f.points))
	copy(out, f.points)
	return out
}

// Outcomes returns the frontier outcomes, best for self first.
func (f *Frontier) Outcomes() []domain.Outcome {
	out := make([]domain.Outcome, len(f.points))
	for i, p := range f.points {
		out[i] = p.Outcome
	}
	return out
}

// Contains reports whether o lies on the frontier.
func (f *Frontier) Contains(o domain.Outcome) bool {
	_, ok := f.index[o]
	return ok
}

// Nash returns the Nash bargaining point.
func (f *Frontier) Nash() (Point, bool) {
	if f.NashIndex < 0 {
		return Point{}, false
	}
	return f.points[f.NashIndex], true
}

// Kalai returns the Kalai-Smorodinsky point.
func (f *Frontier) Kalai() (Point, bool) {
	if f.KalaiIndex < 0 {
		return Point{}, false
	}
	return f.points[f.KalaiIndex], true
}

// Floor returns the more conservative of the Nash and Kalai points, i.e. the
// one with the lower self utility. With only one point present it is used.
func (f *Frontier) Floor() (Point, bool) {
	nash, okN := f.Nash()
	kalai, okK := f.Kalai()
	switch {
	case okN && okK:
		if kalai.Self < nash.Self {
			return kalai, true
		}
		return nash, true
	case okN:
		return nash, true
	case okK:
		return kalai, true
	}
	return Point{}, false
}

// ClosestByOpponentUtility returns the frontier point whose opponent utility
// is nearest to target. Ties go to the higher self utility.
func (f *Frontier) ClosestByOpponentUtility(target float64) (Point, bool) {
	return f.closest(func(p Point) float64 { return math.Abs(p.Opponent - target) })
}

// ClosestBySelfUtility returns the frontier point whose self utility is
// nearest to target. Ties go to the higher self utility.
func (f *Frontier) ClosestBySelfUtility(target float64) (Point, bool) {
	return f.closest(func(p Point) float64 { return math.Abs(p.Self - target) })
}

func (f *Frontier) closest(dist func(Point) float64) (Point, bool) {
	if len(f.points) == 0 {
		return Point{}, false
	}
	best, bestD := 0, dist(f.points[0])
	for i := 1; i < len(f.points); i++ {
		if d := dist(f.points[i]); d < bestD {
			best, bestD = i, d
		}
	}
	return f.points[best], true
}
