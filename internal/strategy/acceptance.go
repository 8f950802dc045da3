package strategy

import (
	"math"

	"negotiation-lab/internal/domain"
)

// verdict is the outcome of the acceptance check. A rejecting verdict may
// carry a counteroffer that bidding must use.
type verdict struct {
	accept  bool
	counter domain.Outcome
}

// evaluate decides whether to accept the round's offer.
//
// Early phase: accept only offers that give a clearly larger advantage than
// the opponent's estimated advantage and sit close to the worst offer made
// so far. Late phase: enforce the floor, accept frontier offers at or above
// the threshold, trade off-frontier offers for an equivalent frontier
// member, and accept anything above the reserved value at the deadline.
func (e *Engine) evaluate(r round) verdict {
	if r.offer.IsZero() {
		return verdict{}
	}

	u := e.self.Utility(r.offer)
	rv := e.self.ReservedValue()

	if r.time < e.policy.EarlyPhaseCutoff {
		selfAdv := u - rv
		oppAdv := e.opp.Utility(r.offer) - r.estRV
		if selfAdv > oppAdv*e.policy.AdvantageMargin && len(e.offers) > 0 &&
			math.Abs(u-e.worstOwn) < e.policy.ProximityTolerance {
			return verdict{accept: true}
		}
		return verdict{}
	}

	if e.hasFloor && u < e.floor.Self && r.remaining > e.policy.FloorGuardRounds {
		return verdict{}
	}

	var v verdict
	if u >= r.threshold {
		if e.frontier.Contains(r.offer) {
			return verdict{accept: true}
		}
		closest, ok := e.frontier.ClosestByOpponentUtility(e.opp.Utility(r.offer))
		if ok && closest.Self >= r.threshold {
			if u >= closest.Self {
				return verdict{accept: true}
			}
			v.counter = closest.Outcome
		}
	}

	if u > rv && r.remaining <= e.policy.DeadlineAcceptRounds {
		return verdict{accept: true}
	}
	return v
}
