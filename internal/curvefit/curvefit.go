// Package curvefit fits the concession curve to observed utilities.
package curvefit

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/optimize"

	"negotiation-lab/internal/concession"
)

// Fit errors
var (
	ErrInsufficientData = errors.New("curvefit: insufficient data")
	ErrInvalidBounds    = errors.New("curvefit: invalid bounds")
	ErrNoConvergence    = errors.New("curvefit: no convergence")
)

// Bounds is the parameter box of a fit.
type Bounds struct {
	MinExponent float64
	MaxExponent float64
	MinReserved float64
	MaxReserved float64
}

// Valid reports whether both intervals are non-degenerate.
func (b Bounds) Valid() bool {
	return b.MinExponent < b.MaxExponent && b.MinReserved < b.MaxReserved &&
		b.MinExponent > 0 && !math.IsNaN(b.MinReserved) && !math.IsNaN(b.MaxReserved)
}

// Fit is the result of a curve fit.
type Fit struct {
	Exponent      float64
	ReservedValue float64
	Residual      float64 // sum of squared errors
}

// Fitter estimates (exponent, reserved value) of the concession curve that
// best explains utilities observed at the given relative times. The first
// utility is taken as the curve's starting value.
type Fitter interface {
	Fit(times, utilities []float64, bounds Bounds) (Fit, error)
}

// Default solver limits.
const (
	DefaultMaxIterations  = 200
	DefaultMaxEvaluations = 1000
)

// LeastSquares is a bounded least-squares Fitter backed by Nelder-Mead.
// The box is enforced by a logistic change of variables, so every iterate
// is feasible.
type LeastSquares struct {
	MaxIterations  int
	MaxEvaluations int
	// StartExponents are the exponents tried as starting points; the
	// reserved value always starts mid-box.
	StartExponents []float64
}

var _ Fitter = (*LeastSquares)(nil)

// NewLeastSquares returns a LeastSquares fitter with default limits.
func NewLeastSquares() *LeastSquares {
	return &LeastSquares{
		MaxIterations:  DefaultMaxIterations,
		MaxEvaluations: DefaultMaxEvaluations,
		StartExponents: []float64{0.5, 1.0, 3.0},
	}
}

// Fit implements Fitter.
func (f *LeastSquares) Fit(times, utilities []float64, bounds Bounds) (Fit, error) {
	if len(times) < 2 || len(times) != len(utilities) {
		return Fit{}, ErrInsufficientData
	}
	if !bounds.Valid() {
		return Fit{}, ErrInvalidBounds
	}

	max := utilities[0]
	objective := func(e, rv float64) float64 {
		sse := 0.0
		for i, t := range times {
			d := concession.Threshold(t, max, rv, e) - utilities[i]
			sse += d * d
		}
		return sse
	}

	eBox := box{lo: bounds.MinExponent, hi: bounds.MaxExponent}
	rvBox := box{lo: bounds.MinReserved, hi: bounds.MaxReserved}

	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			return objective(eBox.from(z[0]), rvBox.from(z[1]))
		},
	}
	settings := &optimize.Settings{
		MajorIterations: f.MaxIterations,
		FuncEvaluations: f.MaxEvaluations,
	}

	best := Fit{Residual: math.Inf(1)}
	for _, e0 := range f.starts() {
		x0 := []float64{eBox.to(e0), rvBox.to(rvBox.mid())}
		result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
		if !usable(result, err) {
			continue
		}
		fit := Fit{
			Exponent:      eBox.from(result.X[0]),
			ReservedValue: rvBox.from(result.X[1]),
			Residual:      result.F,
		}
		if fit.Residual < best.Residual {
			best = fit
		}
	}

	if math.IsInf(best.Residual, 1) {
		return Fit{}, ErrNoConvergence
	}
	return best, nil
}

func (f *LeastSquares) starts() []float64 {
	if len(f.StartExponents) == 0 {
		return []float64{1.0}
	}
	return f.StartExponents
}

// usable accepts converged results and results stopped by a budget limit
// as long as the location is finite.
func usable(result *optimize.Result, err error) bool {
	if result == nil || len(result.X) != 2 {
		return false
	}
	if err != nil {
		switch result.Status {
		case optimize.IterationLimit, optimize.FunctionEvaluationLimit:
		default:
			return false
		}
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return !math.IsNaN(result.F) && !math.IsInf(result.F, 0)
}

// box maps an unbounded variable onto [lo, hi] through the logistic function.
type box struct {
	lo, hi float64
}

func (b box) mid() float64 {
	return (b.lo + b.hi) / 2
}

func (b box) from(z float64) float64 {
	return b.lo + (b.hi-b.lo)/(1+math.Exp(-z))
}

func (b box) to(x float64) float64 {
	p := (x - b.lo) / (b.hi - b.lo)
	const eps = 1e-6
	if p < eps {
		p = eps
	} else if p > 1-eps {
		p = 1 - eps
	}
	return math.Log(p / (1 - p))
}
