package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

// SufficiencyThresholds configures the data sufficiency checks.
type SufficiencyThresholds struct {
	MinSessions            int `yaml:"min_sessions"`              // total stored sessions
	MinSessionsPerOpponent int `yaml:"min_sessions_per_opponent"` // per (strategy, scenario, opponent)
}

// DefaultSufficiencyThresholds returns the built-in thresholds.
func DefaultSufficiencyThresholds() SufficiencyThresholds {
	return SufficiencyThresholds{
		MinSessions:            30,
		MinSessionsPerOpponent: 5,
	}
}

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyChecker validates stored sessions before the decision gate.
type SufficiencyChecker struct {
	sessionStore storage.SessionRecordStore
	thresholds   SufficiencyThresholds
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker(sessionStore storage.SessionRecordStore, th SufficiencyThresholds) *SufficiencyChecker {
	return &SufficiencyChecker{sessionStore: sessionStore, thresholds: th}
}

// Check performs the sufficiency checks:
//  1. Total sessions >= MinSessions
//  2. Every (strategy, scenario, opponent) has >= MinSessionsPerOpponent sessions
//  3. Sessions ended by a protocol error == 0
//  4. Inconsistent records == 0
func (c *SufficiencyChecker) Check(ctx context.Context) (*SufficiencyResult, error) {
	sessions, err := c.sessionStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}

	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 4),
		AllPass: true,
		Errors:  []string{},
	}
	add := func(check SufficiencyCheck, errs []string) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	add(c.checkTotalSessions(sessions), nil)
	add(c.checkOpponentCoverage(sessions))
	add(checkErrorSessions(sessions))
	add(checkConsistency(sessions))

	return result, nil
}

func (c *SufficiencyChecker) checkTotalSessions(sessions []*domain.SessionRecord) SufficiencyCheck {
	return SufficiencyCheck{
		Name:      "Total sessions",
		Threshold: fmt.Sprintf(">= %d", c.thresholds.MinSessions),
		Actual:    fmt.Sprintf("%d", len(sessions)),
		Pass:      len(sessions) >= c.thresholds.MinSessions,
	}
}

// checkOpponentCoverage: the smallest (strategy, scenario, opponent) group
// must reach MinSessionsPerOpponent.
func (c *SufficiencyChecker) checkOpponentCoverage(sessions []*domain.SessionRecord) (SufficiencyCheck, []string) {
	counts := make(map[string]int)
	for _, s := range sessions {
		counts[s.StrategyID+"/"+s.ScenarioID+"/"+s.OpponentID]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	minCount := 0
	var errs []string
	for i, k := range keys {
		if i == 0 || counts[k] < minCount {
			minCount = counts[k]
		}
		if counts[k] < c.thresholds.MinSessionsPerOpponent {
			errs = append(errs, fmt.Sprintf("%s: only %d sessions", k, counts[k]))
		}
	}

	return SufficiencyCheck{
		Name:      "Sessions per opponent",
		Threshold: fmt.Sprintf(">= %d", c.thresholds.MinSessionsPerOpponent),
		Actual:    fmt.Sprintf("%d", minCount),
		Pass:      len(keys) > 0 && minCount >= c.thresholds.MinSessionsPerOpponent,
	}, errs
}

func checkErrorSessions(sessions []*domain.SessionRecord) (SufficiencyCheck, []string) {
	var errs []string
	for _, s := range sessions {
		if s.EndReason == domain.EndReasonError {
			errs = append(errs, fmt.Sprintf("session %s ended with a protocol error", s.SessionID))
		}
	}
	return SufficiencyCheck{
		Name:      "Protocol error sessions",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", len(errs)),
		Pass:      len(errs) == 0,
	}, errs
}

// checkConsistency verifies per-record invariants: steps within bounds,
// agreement matching the end reason, disagreement scored at the reserved
// values and welfare equal to the utility sum.
func checkConsistency(sessions []*domain.SessionRecord) (SufficiencyCheck, []string) {
	const eps = 1e-9
	var errs []string
	for _, s := range sessions {
		switch {
		case s.StepsUsed < 0 || s.StepsUsed > s.NSteps:
			errs = append(errs, fmt.Sprintf("session %s: steps_used %d outside [0, %d]", s.SessionID, s.StepsUsed, s.NSteps))
		case s.Agreement != (s.EndReason == domain.EndReasonAgreement):
			errs = append(errs, fmt.Sprintf("session %s: agreement=%t with end reason %s", s.SessionID, s.Agreement, s.EndReason))
		case !s.Agreement && (math.Abs(s.SelfUtility-s.SelfReserved) > eps || math.Abs(s.OpponentUtility-s.OpponentReserved) > eps):
			errs = append(errs, fmt.Sprintf("session %s: disagreement not scored at reserved values", s.SessionID))
		case math.Abs(s.Welfare-(s.SelfUtility+s.OpponentUtility)) > eps:
			errs = append(errs, fmt.Sprintf("session %s: welfare does not match utilities", s.SessionID))
		}
	}
	return SufficiencyCheck{
		Name:      "Inconsistent records",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", len(errs)),
		Pass:      len(errs) == 0,
	}, errs
}
