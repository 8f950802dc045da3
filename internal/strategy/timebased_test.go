package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"negotiation-lab/internal/domain"
)

func TestTimeBased_OpensWithBest(t *testing.T) {
	tb := NewTimeBased(PresetBoulware, 4.0, fixtureSpace(t), fixtureSelf)

	resp := tb.Respond(state(domain.Outcome{}, 0, 0, 100))
	assert.Equal(t, domain.Reject(o(0)), resp)
}

func TestTimeBased_OffersCheapestAboveAspiration(t *testing.T) {
	tb := NewTimeBased(PresetLinear, 1.0, fixtureSpace(t), fixtureSelf)

	// linear aspiration at t=0.5: 0.75 * 0.5 + 0.25 = 0.625 -> 0.7 is the cheapest
	resp := tb.Respond(state(o(9), 0.5, 50, 100))
	assert.Equal(t, domain.Reject(o(3)), resp)
}

func TestTimeBased_AcceptsAtAspiration(t *testing.T) {
	tb := NewTimeBased(PresetLinear, 1.0, fixtureSpace(t), fixtureSelf)

	resp := tb.Respond(state(o(3), 0.5, 50, 100))
	assert.Equal(t, domain.Accept(o(3)), resp)
}

func TestTimeBased_ConcederConcedesEarlier(t *testing.T) {
	conceder := NewTimeBased(PresetConceder, 0.2, fixtureSpace(t), fixtureSelf)
	boulware := NewTimeBased(PresetBoulware, 4.0, fixtureSpace(t), fixtureSelf)

	st := state(o(9), 0.3, 30, 100)
	c := conceder.Respond(st)
	b := boulware.Respond(st)

	require.Equal(t, domain.ResponseReject, c.Type)
	require.Equal(t, domain.ResponseReject, b.Type)
	assert.Less(t, fixtureSelf.Utility(c.Outcome), fixtureSelf.Utility(b.Outcome))
}

func TestTimeBased_NilUtilityEnds(t *testing.T) {
	tb := NewTimeBased("x", 1, fixtureSpace(t), nil)
	assert.Equal(t, domain.ResponseEnd, tb.Respond(state(o(1), 0, 0, 10)).Type)
}

func TestTimeBased_ID(t *testing.T) {
	assert.Equal(t, PresetConceder, NewTimeBased(PresetConceder, 0.2, nil, nil).ID())
	assert.Equal(t, "TimeBased(e=2.50)", NewTimeBased("", 2.5, nil, nil).ID())
}
