package strategy

import (
	"errors"

	"negotiation-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrMissingExponent     = errors.New("TIME_BASED requires Exponent or a preset Name")
	ErrInvalidExponent     = errors.New("TIME_BASED exponent must be positive")
)

// FromConfig creates a Negotiator from domain.StrategyConfig for one
// session described by p. Validates required parameters per strategy type.
func FromConfig(cfg domain.StrategyConfig, p Params) (Negotiator, error) {
	switch cfg.StrategyType {
	case domain.StrategyTypeAdaptive:
		return fromAdaptiveConfig(cfg, p), nil
	case domain.StrategyTypeTimeBased:
		return fromTimeBasedConfig(cfg, p)
	default:
		return nil, ErrUnknownStrategyType
	}
}

// fromAdaptiveConfig creates an Engine from config.
func fromAdaptiveConfig(cfg domain.StrategyConfig, p Params) *Engine {
	if cfg.Name != "" {
		p.ID = cfg.Name
	}
	return NewEngine(p)
}

// fromTimeBasedConfig creates a TimeBased negotiator from config.
func fromTimeBasedConfig(cfg domain.StrategyConfig, p Params) (*TimeBased, error) {
	var exponent float64
	switch {
	case cfg.Exponent != nil:
		exponent = *cfg.Exponent
	default:
		e, ok := PresetExponent(cfg.Name)
		if !ok {
			return nil, ErrMissingExponent
		}
		exponent = e
	}
	if exponent <= 0 {
		return nil, ErrInvalidExponent
	}

	return NewTimeBased(cfg.Name, exponent, p.Space, p.Self), nil
}

// PresetOpponents returns configs for the built-in time-based opponents.
func PresetOpponents() []domain.StrategyConfig {
	return []domain.StrategyConfig{
		{StrategyType: domain.StrategyTypeTimeBased, Name: PresetLinear},
		{StrategyType: domain.StrategyTypeTimeBased, Name: PresetConceder},
		{StrategyType: domain.StrategyTypeTimeBased, Name: PresetBoulware},
	}
}

// AdaptiveConfig returns the config of the adaptive engine.
func AdaptiveConfig() domain.StrategyConfig {
	return domain.StrategyConfig{StrategyType: domain.StrategyTypeAdaptive, Name: DefaultEngineID}
}
