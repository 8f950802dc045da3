// Package opponent estimates the counterpart's reserved value and concession
// exponent from its offers and tracks the outcomes it would still accept.
package opponent

import (
	"errors"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"negotiation-lab/internal/curvefit"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/outcomespace"
	"negotiation-lab/internal/ufun"
)

// Config holds the estimation policy.
type Config struct {
	MinObservations int     `yaml:"min_observations"` // fit once this many offers were seen
	MinExponent     float64 `yaml:"min_exponent"`     // exponent box for the fit
	MaxExponent     float64 `yaml:"max_exponent"`
	Window          int     `yaml:"window"` // fitted exponents averaged by MeanExponent
}

// DefaultConfig returns the estimation policy used by the adaptive engine.
func DefaultConfig() Config {
	return Config{
		MinObservations: 6,
		MinExponent:     0.2,
		MaxExponent:     5.0,
		Window:          5,
	}
}

// Params configures a Model.
type Params struct {
	Space        outcomespace.Space
	Self         ufun.UtilityFunction
	Opponent     ufun.UtilityFunction // observation only; its reserved value is never read
	SelfRational []domain.Outcome     // outcomes above the own reserved value
	Fitter       curvefit.Fitter      // nil uses curvefit.NewLeastSquares()
	Config       Config
	Logger       *log.Logger // optional
}

// Estimate is the model's view after a reestimate.
type Estimate struct {
	ReservedValue float64
	Exponent      float64 // last fitted exponent, 0 before the first fit
	Fitted        bool    // this reestimate produced a new fit
}

// Stats counts curve-fit activity.
type Stats struct {
	FitAttempts int
	FitFailures int
}

// Model is per-session opponent state. It is not safe for concurrent use.
type Model struct {
	space    outcomespace.Space
	self     ufun.UtilityFunction
	opp      ufun.UtilityFunction
	fitter   curvefit.Fitter
	cfg      Config
	logger   *log.Logger
	rational []domain.Outcome

	// observation log
	times     []float64
	utilities []float64
	minUtil   float64

	estimate  float64
	exponents []float64

	oppRational []domain.Outcome
	scanned     bool
	joint       []domain.Outcome

	stats Stats
}

// NewModel creates a Model with empty observation log.
func NewModel(p Params) *Model {
	fitter := p.Fitter
	if fitter == nil {
		fitter = curvefit.NewLeastSquares()
	}
	rational := make([]domain.Outcome, len(p.SelfRational))
	copy(rational, p.SelfRational)

	return &Model{
		space:    p.Space,
		self:     p.Self,
		opp:      p.Opponent,
		fitter:   fitter,
		cfg:      p.Config,
		logger:   p.Logger,
		rational: rational,
		minUtil:  math.Inf(1),
	}
}

// Observe appends the opponent's utility for offer at relative time t.
// The empty outcome is ignored.
func (m *Model) Observe(offer domain.Outcome, t float64) {
	if offer.IsZero() {
		return
	}
	u := m.opp.Utility(offer)
	m.times = append(m.times, t)
	m.utilities = append(m.utilities, u)
	if u < m.minUtil {
		m.minUtil = u
	}
}

// Reestimate refreshes the reserved-value estimate and the derived outcome
// sets. With fewer than MinObservations offers the estimate is half the
// lowest observed utility; afterwards it is a curve fit clamped to that
// lowest utility. A failed or impossible fit keeps the previous estimate.
func (m *Model) Reestimate() Estimate {
	if len(m.utilities) == 0 {
		return m.current(false)
	}

	prev := m.estimate
	fitted := false

	if len(m.utilities) < m.cfg.MinObservations {
		m.estimate = m.minUtil / 2
	} else {
		fitted = m.fit()
	}

	m.updateSets(prev)
	return m.current(fitted)
}

func (m *Model) fit() bool {
	m.stats.FitAttempts++

	bounds := curvefit.Bounds{
		MinExponent: m.cfg.MinExponent,
		MaxExponent: m.cfg.MaxExponent,
		MinReserved: 0,
		MaxReserved: m.minUtil,
	}
	res, err := m.fitter.Fit(m.times, m.utilities, bounds)
	if err != nil {
		m.stats.FitFailures++
		if m.logger != nil && !errors.Is(err, curvefit.ErrInvalidBounds) {
			m.logger.Printf("curve fit failed after %d observations: %v", len(m.utilities), err)
		}
		return false
	}

	m.estimate = math.Min(res.ReservedValue, m.minUtil)
	m.exponents = append(m.exponents, res.Exponent)
	return true
}

// updateSets keeps oppRational equal to {o : opp(o) > estimate}. A lower
// estimate can only add outcomes, so the space is rescanned; a higher one
// can only remove them, so the previous set is filtered.
func (m *Model) updateSets(prev float64) {
	switch {
	case !m.scanned || m.estimate < prev:
		all := m.space.EnumerateOrSample()
		next := make([]domain.Outcome, 0, len(all))
		for _, o := range all {
			if m.opp.Utility(o) > m.estimate {
				next = append(next, o)
			}
		}
		m.oppRational = next
		m.scanned = true
	case m.estimate > prev:
		next := m.oppRational[:0:0]
		for _, o := range m.oppRational {
			if m.opp.Utility(o) > m.estimate {
				next = append(next, o)
			}
		}
		m.oppRational = next
	default:
		return
	}

	m.updateJoint()
}

func (m *Model) updateJoint() {
	inOpp := make(map[domain.Outcome]struct{}, len(m.oppRational))
	for _, o := range m.oppRational {
		inOpp[o] = struct{}{}
	}

	joint := make([]domain.Outcome, 0, len(m.rational))
	for _, o := range m.rational {
		if _, ok := inOpp[o]; ok {
			joint = append(joint, o)
		}
	}
	sort.SliceStable(joint, func(i, j int) bool {
		ui, uj := m.self.Utility(joint[i]), m.self.Utility(joint[j])
		if ui != uj {
			return ui > uj
		}
		return joint[i].Less(joint[j])
	})
	m.joint = joint
}

func (m *Model) current(fitted bool) Estimate {
	return Estimate{
		ReservedValue: m.estimate,
		Exponent:      m.LastExponent(),
		Fitted:        fitted,
	}
}

// EstimatedReservedValue returns the current estimate (0 before any offer).
func (m *Model) EstimatedReservedValue() float64 {
	return m.estimate
}

// LastExponent returns the most recent fitted exponent, or 0.
func (m *Model) LastExponent() float64 {
	if len(m.exponents) == 0 {
		return 0
	}
	return m.exponents[len(m.exponents)-1]
}

// MeanExponent returns the mean of the last Window fitted exponents.
// ok is false before the first successful fit.
func (m *Model) MeanExponent() (mean float64, ok bool) {
	if len(m.exponents) == 0 {
		return 0, false
	}
	w := m.cfg.Window
	if w <= 0 || w > len(m.exponents) {
		w = len(m.exponents)
	}
	return stat.Mean(m.exponents[len(m.exponents)-w:], nil), true
}

// Observations returns a copy of the observation log.
func (m *Model) Observations() []domain.OpponentObservation {
	out := make([]domain.OpponentObservation, len(m.utilities))
	for i := range m.utilities {
		out[i] = domain.OpponentObservation{RelativeTime: m.times[i], Utility: m.utilities[i]}
	}
	return out
}

// OpponentRational returns the outcomes above the current estimate.
// The slice is owned by the model and must not be modified.
func (m *Model) OpponentRational() []domain.Outcome {
	return m.oppRational
}

// Joint returns the outcomes rational for both sides, best for self first.
// The slice is owned by the model and must not be modified.
func (m *Model) Joint() []domain.Outcome {
	return m.joint
}

// Stats returns fit counters.
func (m *Model) Stats() Stats {
	return m.stats
}
