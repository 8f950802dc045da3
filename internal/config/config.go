// Package config loads YAML configuration for tournaments and the server.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"negotiation-lab/internal/decision"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/pipeline"
	"negotiation-lab/internal/strategy"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrUnknownBackend  = errors.New("unknown storage backend")
	ErrInvalidSessions = errors.New("sessions must be positive")
)

// Config is the top-level configuration file.
type Config struct {
	Policy      strategy.Policy                `yaml:"policy"`
	Tournament  TournamentConfig               `yaml:"tournament"`
	Decision    decision.Thresholds            `yaml:"decision"`
	Sufficiency pipeline.SufficiencyThresholds `yaml:"sufficiency"`
	Storage     StorageConfig                  `yaml:"storage"`
}

// TournamentConfig describes the sessions to run.
type TournamentConfig struct {
	Scenarios   []string         `yaml:"scenarios"`
	Sessions    int              `yaml:"sessions"`
	BaseSeed    int64            `yaml:"base_seed"`
	NSteps      int              `yaml:"n_steps"` // 0 keeps the scenario default
	Concurrency int              `yaml:"concurrency"`
	Opponents   []OpponentConfig `yaml:"opponents"`
}

// OpponentConfig is a YAML-friendly domain.StrategyConfig.
type OpponentConfig struct {
	Type     string   `yaml:"type"`
	Name     string   `yaml:"name"`
	Exponent *float64 `yaml:"exponent,omitempty"`
}

// StorageConfig selects where sessions, traces and aggregates go.
// Traces and aggregates use ClickHouse when ClickHouseDSN is set.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	SQLitePath    string `yaml:"sqlite_path"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Policy: strategy.DefaultPolicy(),
		Tournament: TournamentConfig{
			Scenarios:   []string{domain.ScenarioStandard},
			Sessions:    60,
			BaseSeed:    1,
			Concurrency: 4,
			Opponents: []OpponentConfig{
				{Type: domain.StrategyTypeTimeBased, Name: strategy.PresetLinear},
				{Type: domain.StrategyTypeTimeBased, Name: strategy.PresetConceder},
				{Type: domain.StrategyTypeTimeBased, Name: strategy.PresetBoulware},
			},
		},
		Decision:    decision.DefaultThresholds(),
		Sufficiency: pipeline.DefaultSufficiencyThresholds(),
		Storage:     StorageConfig{Backend: BackendMemory},
	}
}

// Load reads path over Default(). Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default() and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if c.Tournament.Sessions <= 0 {
		return ErrInvalidSessions
	}
	for _, id := range c.Tournament.Scenarios {
		if _, ok := domain.ScenarioConfigByID(id); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
		}
	}
	for _, o := range c.Tournament.Opponents {
		if _, err := strategy.FromConfig(o.StrategyConfig(), strategy.Params{}); err != nil {
			return fmt.Errorf("opponent %q: %w", o.Name, err)
		}
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	return nil
}

// StrategyConfig converts to the domain type.
func (o OpponentConfig) StrategyConfig() domain.StrategyConfig {
	return domain.StrategyConfig{StrategyType: o.Type, Name: o.Name, Exponent: o.Exponent}
}

// ScenarioConfigs resolves the configured scenario IDs.
func (t TournamentConfig) ScenarioConfigs() []domain.ScenarioConfig {
	out := make([]domain.ScenarioConfig, 0, len(t.Scenarios))
	for _, id := range t.Scenarios {
		if cfg, ok := domain.ScenarioConfigByID(id); ok {
			out = append(out, cfg)
		}
	}
	return out
}

// OpponentConfigs converts the opponent list.
func (t TournamentConfig) OpponentConfigs() []domain.StrategyConfig {
	out := make([]domain.StrategyConfig, len(t.Opponents))
	for i, o := range t.Opponents {
		out[i] = o.StrategyConfig()
	}
	return out
}
