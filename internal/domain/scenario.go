package domain

// ScenarioConfig represents parameters of a generated negotiation domain.
type ScenarioConfig struct {
	ScenarioID     string // "small" | "standard" | "large"
	MinIssues      int    // issues per domain (inclusive range)
	MaxIssues      int
	MinValues      int // values per issue (inclusive range)
	MaxValues      int
	MaxReserved    float64 // reserved values drawn from [0, MaxReserved)
	MaxCardinality int     // enumerate up to this many outcomes, sample beyond
	NSteps         int     // rounds per session
}

// Scenario ID constants
const (
	ScenarioSmall    = "small"
	ScenarioStandard = "standard"
	ScenarioLarge    = "large"
)

// Predefined scenario configurations.
var (
	ScenarioConfigSmall = ScenarioConfig{
		ScenarioID:     ScenarioSmall,
		MinIssues:      2,
		MaxIssues:      2,
		MinValues:      3,
		MaxValues:      5,
		MaxReserved:    0.5,
		MaxCardinality: 10_000,
		NSteps:         20,
	}

	ScenarioConfigStandard = ScenarioConfig{
		ScenarioID:     ScenarioStandard,
		MinIssues:      2,
		MaxIssues:      3,
		MinValues:      4,
		MaxValues:      10,
		MaxReserved:    1.0,
		MaxCardinality: 10_000,
		NSteps:         100,
	}

	ScenarioConfigLarge = ScenarioConfig{
		ScenarioID:     ScenarioLarge,
		MinIssues:      3,
		MaxIssues:      4,
		MinValues:      10,
		MaxValues:      20,
		MaxReserved:    1.0,
		MaxCardinality: 5_000,
		NSteps:         200,
	}
)

// AllScenarioConfigs returns all predefined scenario configurations.
func AllScenarioConfigs() []ScenarioConfig {
	return []ScenarioConfig{
		ScenarioConfigSmall,
		ScenarioConfigStandard,
		ScenarioConfigLarge,
	}
}

// ScenarioConfigByID returns the predefined configuration with the given ID.
func ScenarioConfigByID(id string) (ScenarioConfig, bool) {
	for _, cfg := range AllScenarioConfigs() {
		if cfg.ScenarioID == id {
			return cfg, true
		}
	}
	return ScenarioConfig{}, false
}
