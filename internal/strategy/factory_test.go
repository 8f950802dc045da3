package strategy

import (
	"errors"
	"testing"

	"negotiation-lab/internal/domain"
)

func TestFromConfig_Adaptive(t *testing.T) {
	cfg := domain.StrategyConfig{StrategyType: domain.StrategyTypeAdaptive, Name: "group-adaptive"}

	n, err := FromConfig(cfg, Params{Space: fixtureSpace(t), Self: fixtureSelf, Opponent: fixtureOpp})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	e, ok := n.(*Engine)
	if !ok {
		t.Fatalf("expected *Engine, got %T", n)
	}
	if e.ID() != "group-adaptive" {
		t.Errorf("expected group-adaptive, got %s", e.ID())
	}
}

func TestFromConfig_TimeBasedPreset(t *testing.T) {
	cfg := domain.StrategyConfig{StrategyType: domain.StrategyTypeTimeBased, Name: PresetBoulware}

	n, err := FromConfig(cfg, Params{Space: fixtureSpace(t), Self: fixtureSelf})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	tb, ok := n.(*TimeBased)
	if !ok {
		t.Fatalf("expected *TimeBased, got %T", n)
	}
	if tb.Exponent() != 4.0 {
		t.Errorf("expected exponent 4.0, got %v", tb.Exponent())
	}
}

func TestFromConfig_TimeBasedExplicitExponent(t *testing.T) {
	e := 2.0
	cfg := domain.StrategyConfig{StrategyType: domain.StrategyTypeTimeBased, Name: PresetLinear, Exponent: &e}

	n, err := FromConfig(cfg, Params{Space: fixtureSpace(t), Self: fixtureSelf})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if got := n.(*TimeBased).Exponent(); got != 2.0 {
		t.Errorf("explicit exponent must win over preset, got %v", got)
	}
}

func TestFromConfig_Errors(t *testing.T) {
	zero := 0.0
	tests := []struct {
		name    string
		cfg     domain.StrategyConfig
		wantErr error
	}{
		{"unknown type", domain.StrategyConfig{StrategyType: "RANDOM"}, ErrUnknownStrategyType},
		{"missing exponent", domain.StrategyConfig{StrategyType: domain.StrategyTypeTimeBased, Name: "Mystery"}, ErrMissingExponent},
		{"zero exponent", domain.StrategyConfig{StrategyType: domain.StrategyTypeTimeBased, Exponent: &zero}, ErrInvalidExponent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromConfig(tt.cfg, Params{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPresetOpponents(t *testing.T) {
	presets := PresetOpponents()
	if len(presets) != 3 {
		t.Fatalf("expected 3 presets, got %d", len(presets))
	}
	for _, cfg := range presets {
		if _, ok := PresetExponent(cfg.Name); !ok {
			t.Errorf("preset %s has no exponent", cfg.Name)
		}
	}
}

func TestPolicy_Validate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy must be valid: %v", err)
	}

	p := DefaultPolicy()
	p.MaxAspiration = 1.5
	if p.Validate() == nil {
		t.Error("expected error for max_aspiration > 1")
	}

	p = DefaultPolicy()
	p.Opponent.MinObservations = 1
	if p.Validate() == nil {
		t.Error("expected error for min_observations < 2")
	}

	p = DefaultPolicy()
	p.Adaptation.Window = 0
	if p.Validate() == nil {
		t.Error("expected error for invalid adaptation window")
	}
}
