package strategy

import (
	"fmt"

	"negotiation-lab/internal/concession"
	"negotiation-lab/internal/opponent"
)

// Policy holds the tunable constants of the adaptive engine.
type Policy struct {
	MaxAspiration        float64 `yaml:"max_aspiration"`         // threshold at t=0
	EarlyPhaseCutoff     float64 `yaml:"early_phase_cutoff"`     // relative time where the late phase starts
	AdvantageMargin      float64 `yaml:"advantage_margin"`       // early accept needs own advantage > margin * opponent advantage
	ProximityTolerance   float64 `yaml:"proximity_tolerance"`    // early accept needs |u(offer) - u(worst own offer)| below this
	FloorGuardRounds     int     `yaml:"floor_guard_rounds"`     // floor enforced while more rounds than this remain
	DeadlineAcceptRounds int     `yaml:"deadline_accept_rounds"` // accept anything above reserved value from here
	DeadlineBidRounds    int     `yaml:"deadline_bid_rounds"`    // echo opponent offers from here

	Adaptation concession.AdaptationConfig `yaml:"adaptation"`
	Opponent   opponent.Config             `yaml:"opponent"`
}

// DefaultPolicy returns the adaptive engine's default policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAspiration:        1.0,
		EarlyPhaseCutoff:     0.9,
		AdvantageMargin:      1.5,
		ProximityTolerance:   0.1,
		FloorGuardRounds:     10,
		DeadlineAcceptRounds: 1,
		DeadlineBidRounds:    2,
		Adaptation:           concession.DefaultAdaptationConfig(),
		Opponent:             opponent.DefaultConfig(),
	}
}

// Validate checks the policy for consistency.
func (p Policy) Validate() error {
	if p.MaxAspiration <= 0 || p.MaxAspiration > 1 {
		return fmt.Errorf("max_aspiration must be in (0,1], got %v", p.MaxAspiration)
	}
	if p.EarlyPhaseCutoff < 0 || p.EarlyPhaseCutoff > 1 {
		return fmt.Errorf("early_phase_cutoff must be in [0,1], got %v", p.EarlyPhaseCutoff)
	}
	if p.AdvantageMargin < 0 {
		return fmt.Errorf("advantage_margin must be non-negative, got %v", p.AdvantageMargin)
	}
	if p.ProximityTolerance < 0 {
		return fmt.Errorf("proximity_tolerance must be non-negative, got %v", p.ProximityTolerance)
	}
	if p.FloorGuardRounds < 0 || p.DeadlineAcceptRounds < 0 || p.DeadlineBidRounds < 0 {
		return fmt.Errorf("round counts must be non-negative")
	}
	if err := p.Adaptation.Validate(); err != nil {
		return fmt.Errorf("adaptation: %w", err)
	}
	if p.Opponent.MinObservations < 2 {
		return fmt.Errorf("opponent.min_observations must be at least 2, got %d", p.Opponent.MinObservations)
	}
	if p.Opponent.MinExponent <= 0 || p.Opponent.MinExponent >= p.Opponent.MaxExponent {
		return fmt.Errorf("opponent exponent bounds invalid: [%v, %v]", p.Opponent.MinExponent, p.Opponent.MaxExponent)
	}
	return nil
}
