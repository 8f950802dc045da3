package concession

import (
	"fmt"
	"math"
)

// Behavior classifies an opponent by its fitted concession exponent.
type Behavior string

const (
	Conceder Behavior = "CONCEDER"
	Boulware Behavior = "BOULWARE"
)

// String returns the string representation of Behavior.
func (b Behavior) String() string {
	return string(b)
}

// AdaptationConfig holds the reciprocity policy constants.
type AdaptationConfig struct {
	InitialExponent float64 `yaml:"initial_exponent"` // own exponent at session start
	ConcederBelow   float64 `yaml:"conceder_below"`   // mean fitted exponent below this is a Conceder
	ConcederDecay   float64 `yaml:"conceder_decay"`   // multiplicative softening per round
	ConcederOffset  float64 `yaml:"conceder_offset"`  // soften no lower than mean + offset
	BoulwareScale   float64 `yaml:"boulware_scale"`   // harden toward mean * scale
	MinExponent     float64 `yaml:"min_exponent"`
	MaxExponent     float64 `yaml:"max_exponent"`
	Window          int     `yaml:"window"` // fitted exponents averaged
}

// DefaultAdaptationConfig returns the policy used by the adaptive engine.
func DefaultAdaptationConfig() AdaptationConfig {
	return AdaptationConfig{
		InitialExponent: 17.5,
		ConcederBelow:   1.0,
		ConcederDecay:   0.975,
		ConcederOffset:  1.0,
		BoulwareScale:   7.0,
		MinExponent:     1.0,
		MaxExponent:     35.0,
		Window:          5,
	}
}

// Validate checks the configuration for consistency.
func (c AdaptationConfig) Validate() error {
	switch {
	case c.InitialExponent <= 0:
		return fmt.Errorf("initial_exponent must be positive, got %v", c.InitialExponent)
	case c.ConcederDecay <= 0 || c.ConcederDecay > 1:
		return fmt.Errorf("conceder_decay must be in (0,1], got %v", c.ConcederDecay)
	case c.BoulwareScale <= 0:
		return fmt.Errorf("boulware_scale must be positive, got %v", c.BoulwareScale)
	case c.MinExponent <= 0 || c.MinExponent > c.MaxExponent:
		return fmt.Errorf("exponent bounds invalid: [%v, %v]", c.MinExponent, c.MaxExponent)
	case c.Window <= 0:
		return fmt.Errorf("window must be positive, got %d", c.Window)
	}
	return nil
}

// Adapter adjusts the engine's own exponent in response to the opponent.
type Adapter struct {
	cfg AdaptationConfig
}

// NewAdapter creates an Adapter.
func NewAdapter(cfg AdaptationConfig) *Adapter {
	return &Adapter{cfg: cfg}
}

// Config returns the adapter's policy.
func (a *Adapter) Config() AdaptationConfig {
	return a.cfg
}

// Classify maps a mean fitted exponent to a Behavior.
func (a *Adapter) Classify(meanExponent float64) Behavior {
	if meanExponent < a.cfg.ConcederBelow {
		return Conceder
	}
	return Boulware
}

// Adapt returns the next own exponent.
// A conceding opponent can only soften or hold the exponent; a firm one can
// only harden or hold it. The result is therefore non-decreasing in
// meanExponent for a fixed current value.
func (a *Adapter) Adapt(current, meanExponent float64) float64 {
	if math.IsNaN(meanExponent) || math.IsInf(meanExponent, 0) {
		return current
	}

	if a.Classify(meanExponent) == Conceder {
		floor := math.Max(a.cfg.MinExponent, meanExponent+a.cfg.ConcederOffset)
		next := math.Max(floor, current*a.cfg.ConcederDecay)
		return math.Min(current, next)
	}

	target := math.Min(meanExponent*a.cfg.BoulwareScale, a.cfg.MaxExponent)
	return math.Max(current, target)
}
