package strategy

import (
	"negotiation-lab/internal/domain"
)

// bid selects the counteroffer for a rejected round.
//
// Priority: the counteroffer staged by acceptance, then the last-rounds
// echo of the opponent's cheapest acceptable offer, then the frontier member
// nearest the threshold (or the best outcome when the whole frontier is
// below it), improved by the joint outcome that leaves the opponent the
// least surplus, and finally pulled up to the floor while the deadline is
// far away.
func (e *Engine) bid(r round, v verdict) domain.Outcome {
	if !v.counter.IsZero() {
		return v.counter
	}

	if r.remaining <= e.policy.DeadlineBidRounds {
		if o, ok := e.cheapestOpponentOffer(); ok {
			return o
		}
	}

	var choice domain.Outcome

	if !e.frontier.Empty() {
		if e.frontier.At(0).Self < r.threshold {
			choice = e.self.Best()
		} else if p, ok := e.frontier.ClosestBySelfUtility(r.threshold); ok {
			choice = p.Outcome
		}
	}

	if cand, ok := e.jointCandidate(r); ok {
		if choice.IsZero() || e.self.Utility(cand) > e.self.Utility(choice) {
			choice = cand
		}
	}

	if e.hasFloor && !choice.IsZero() && e.self.Utility(choice) < e.floor.Self &&
		r.remaining > e.policy.FloorGuardRounds {
		choice = e.floor.Outcome
	}

	if choice.IsZero() {
		choice = e.self.Best()
	}
	return choice
}

// jointCandidate returns the joint outcome with the smallest estimated
// opponent surplus, if it clears the threshold and favors self.
func (e *Engine) jointCandidate(r round) (domain.Outcome, bool) {
	joint := e.model.Joint()
	if len(joint) == 0 {
		return domain.Outcome{}, false
	}

	cand := joint[0]
	best := e.opp.Utility(cand) - r.estRV
	for _, o := range joint[1:] {
		if adv := e.opp.Utility(o) - r.estRV; adv < best {
			cand, best = o, adv
		}
	}

	u := e.self.Utility(cand)
	if u > r.threshold && u-e.self.ReservedValue() > best {
		return cand, true
	}
	return domain.Outcome{}, false
}

// cheapestOpponentOffer returns the offer the opponent made that is worth
// least to the opponent among those above the own reserved value.
func (e *Engine) cheapestOpponentOffer() (domain.Outcome, bool) {
	rv := e.self.ReservedValue()
	var best domain.Outcome
	bestU := 0.0
	for _, o := range e.opponentOffers {
		if e.self.Utility(o) <= rv {
			continue
		}
		if u := e.opp.Utility(o); best.IsZero() || u < bestU {
			best, bestU = o, u
		}
	}
	return best, !best.IsZero()
}
