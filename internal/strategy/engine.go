package strategy

import (
	"log"
	"math"

	"negotiation-lab/internal/concession"
	"negotiation-lab/internal/curvefit"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/frontier"
	"negotiation-lab/internal/opponent"
	"negotiation-lab/internal/outcomespace"
	"negotiation-lab/internal/ufun"
)

// DefaultEngineID is the ID of an Engine built without one.
const DefaultEngineID = "adaptive"

// Params configures an Engine for one session.
type Params struct {
	ID       string
	Space    outcomespace.Space
	Self     ufun.UtilityFunction // nil makes the engine END every round
	Opponent ufun.UtilityFunction // observation and frontier geometry only
	Policy   Policy               // zero value uses DefaultPolicy()
	Fitter   curvefit.Fitter      // nil uses curvefit.NewLeastSquares()
	Logger   *log.Logger          // optional
}

// Stats is a snapshot of engine internals, for records and diagnostics.
type Stats struct {
	Exponent            float64
	Threshold           float64
	EstimatedOpponentRV float64
	FitAttempts         int
	FitFailures         int
	OffersMade          int
}

// Engine is the adaptive negotiation strategy. It combines an opponent
// model, a concession curve with reciprocal exponent adaptation and the
// Pareto frontier of the self-rational outcomes.
//
// An Engine owns all of its state; build one per session.
type Engine struct {
	id     string
	policy Policy
	logger *log.Logger

	self ufun.UtilityFunction
	opp  ufun.UtilityFunction

	// fixed at construction
	rational []domain.Outcome
	frontier *frontier.Frontier
	floor    frontier.Point
	hasFloor bool

	model   *opponent.Model
	adapter *concession.Adapter

	exponent       float64
	threshold      float64
	offers         []domain.Outcome
	worstOwn       float64 // lowest own utility among offers made
	opponentOffers []domain.Outcome
}

var _ Negotiator = (*Engine)(nil)

// NewEngine builds a fresh engine: it enumerates the self-rational outcomes
// and analyzes their frontier once.
func NewEngine(p Params) *Engine {
	policy := p.Policy
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	id := p.ID
	if id == "" {
		id = DefaultEngineID
	}

	e := &Engine{
		id:       id,
		policy:   policy,
		logger:   p.Logger,
		self:     p.Self,
		opp:      p.Opponent,
		exponent: policy.Adaptation.InitialExponent,
		worstOwn: math.Inf(1),
		adapter:  concession.NewAdapter(policy.Adaptation),
	}
	if e.self == nil {
		return e
	}
	if e.opp == nil {
		e.opp = nullUtility{}
	}

	var all []domain.Outcome
	if p.Space != nil {
		all = p.Space.EnumerateOrSample()
	}
	rv := e.self.ReservedValue()
	for _, o := range all {
		if e.self.Utility(o) > rv {
			e.rational = append(e.rational, o)
		}
	}

	e.frontier = frontier.Analyze(e.rational, e.self, e.opp)
	e.floor, e.hasFloor = e.frontier.Floor()

	space := p.Space
	if space == nil {
		space = emptySpace{}
	}
	e.model = opponent.NewModel(opponent.Params{
		Space:        space,
		Self:         e.self,
		Opponent:     e.opp,
		SelfRational: e.rational,
		Fitter:       p.Fitter,
		Config:       policy.Opponent,
		Logger:       p.Logger,
	})
	return e
}

// ID implements Negotiator.
func (e *Engine) ID() string {
	return e.id
}

// Respond implements Negotiator.
// The opponent model ingests the offer and is re-estimated before the
// threshold, the acceptance check and the bidding run for the round.
func (e *Engine) Respond(state domain.NegotiationState) domain.Response {
	if e.self == nil {
		return domain.End()
	}

	offer := state.CurrentOffer

	// 1. Observe and re-estimate
	e.model.Observe(offer, state.RelativeTime)
	if !offer.IsZero() {
		e.opponentOffers = append(e.opponentOffers, offer)
	}
	est := e.model.Reestimate()

	// 2. Adapt own exponent to the opponent's behavior
	if est.Fitted {
		if mean, ok := e.model.MeanExponent(); ok {
			prev := e.exponent
			e.exponent = e.adapter.Adapt(e.exponent, mean)
			if e.logger != nil && e.exponent != prev {
				e.logger.Printf("%s: opponent %s (mean exponent %.3f), exponent %.3f -> %.3f",
					e.id, e.adapter.Classify(mean), mean, prev, e.exponent)
			}
		}
	}

	// 3. Threshold
	e.threshold = concession.Threshold(state.RelativeTime, e.policy.MaxAspiration, e.self.ReservedValue(), e.exponent)

	r := round{
		offer:     offer,
		time:      state.RelativeTime,
		remaining: state.Remaining(),
		threshold: e.threshold,
		estRV:     est.ReservedValue,
	}

	// 4. Acceptance
	v := e.evaluate(r)
	if v.accept {
		return domain.Accept(offer)
	}

	// 5. Bidding
	counter := e.bid(r, v)
	if counter.IsZero() {
		// nothing to offer: the outcome space is empty
		return domain.End()
	}
	e.record(counter)
	return domain.Reject(counter)
}

// round is the per-round input shared by acceptance and bidding.
type round struct {
	offer     domain.Outcome
	time      float64
	remaining int
	threshold float64
	estRV     float64
}

func (e *Engine) record(o domain.Outcome) {
	e.offers = append(e.offers, o)
	if u := e.self.Utility(o); u < e.worstOwn {
		e.worstOwn = u
	}
}

// Stats returns a snapshot of the engine internals.
func (e *Engine) Stats() Stats {
	s := Stats{
		Exponent:   e.exponent,
		Threshold:  e.threshold,
		OffersMade: len(e.offers),
	}
	if e.model != nil {
		s.EstimatedOpponentRV = e.model.EstimatedReservedValue()
		ms := e.model.Stats()
		s.FitAttempts = ms.FitAttempts
		s.FitFailures = ms.FitFailures
	}
	return s
}

// Frontier returns the Pareto frontier of the self-rational outcomes.
// It is nil when the engine has no utility function.
func (e *Engine) Frontier() *frontier.Frontier {
	return e.frontier
}

// Rational returns a copy of the self-rational outcome set.
func (e *Engine) Rational() []domain.Outcome {
	out := make([]domain.Outcome, len(e.rational))
	copy(out, e.rational)
	return out
}

// Offers returns a copy of the offers made so far.
func (e *Engine) Offers() []domain.Outcome {
	out := make([]domain.Outcome, len(e.offers))
	copy(out, e.offers)
	return out
}

type nullUtility struct{}

func (nullUtility) Utility(domain.Outcome) float64 { return 0 }
func (nullUtility) ReservedValue() float64         { return 0 }
func (nullUtility) Best() domain.Outcome           { return domain.Outcome{} }

type emptySpace struct{}

func (emptySpace) EnumerateOrSample() []domain.Outcome { return nil }
