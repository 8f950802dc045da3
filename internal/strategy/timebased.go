package strategy

import (
	"fmt"
	"sort"

	"negotiation-lab/internal/concession"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/outcomespace"
	"negotiation-lab/internal/ufun"
)

// Built-in time-based presets.
const (
	PresetLinear   = "Linear"
	PresetConceder = "Conceder"
	PresetBoulware = "Boulware"
)

// presetExponents maps preset names to concession exponents.
var presetExponents = map[string]float64{
	PresetLinear:   1.0,
	PresetConceder: 0.2,
	PresetBoulware: 4.0,
}

// PresetExponent returns the exponent of a built-in preset.
func PresetExponent(name string) (float64, bool) {
	e, ok := presetExponents[name]
	return e, ok
}

// TimeBased is a non-adaptive negotiator following a fixed concession curve
// from 1.0 down to its reserved value.
type TimeBased struct {
	name     string
	exponent float64
	self     ufun.UtilityFunction

	// rational outcomes sorted by own utility ascending
	ladder []scored
}

type scored struct {
	outcome domain.Outcome
	utility float64
}

var _ Negotiator = (*TimeBased)(nil)

// NewTimeBased creates a TimeBased negotiator over space.
func NewTimeBased(name string, exponent float64, space outcomespace.Space, self ufun.UtilityFunction) *TimeBased {
	tb := &TimeBased{name: name, exponent: exponent, self: self}
	if self == nil || space == nil {
		return tb
	}

	rv := self.ReservedValue()
	for _, o := range space.EnumerateOrSample() {
		if u := self.Utility(o); u > rv {
			tb.ladder = append(tb.ladder, scored{outcome: o, utility: u})
		}
	}
	sort.SliceStable(tb.ladder, func(i, j int) bool {
		if tb.ladder[i].utility != tb.ladder[j].utility {
			return tb.ladder[i].utility < tb.ladder[j].utility
		}
		return tb.ladder[i].outcome.Less(tb.ladder[j].outcome)
	})
	return tb
}

// ID implements Negotiator.
func (tb *TimeBased) ID() string {
	if tb.name != "" {
		return tb.name
	}
	return fmt.Sprintf("TimeBased(e=%.2f)", tb.exponent)
}

// Exponent returns the concession exponent.
func (tb *TimeBased) Exponent() float64 {
	return tb.exponent
}

// Respond implements Negotiator.
// Offers at or above the current aspiration are accepted; otherwise the
// cheapest outcome still meeting the aspiration is proposed.
func (tb *TimeBased) Respond(state domain.NegotiationState) domain.Response {
	if tb.self == nil {
		return domain.End()
	}

	aspiration := concession.Threshold(state.RelativeTime, 1.0, tb.self.ReservedValue(), tb.exponent)

	if !state.CurrentOffer.IsZero() && tb.self.Utility(state.CurrentOffer) >= aspiration {
		return domain.Accept(state.CurrentOffer)
	}

	i := sort.Search(len(tb.ladder), func(i int) bool {
		return tb.ladder[i].utility >= aspiration
	})
	if i < len(tb.ladder) {
		return domain.Reject(tb.ladder[i].outcome)
	}

	best := tb.self.Best()
	if best.IsZero() {
		return domain.End()
	}
	return domain.Reject(best)
}
