package reporting

import (
	"context"
	"errors"
	"sort"
	"time"

	"negotiation-lab/internal/decision"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

// DefaultReferencesPerGroup is the number of session references listed per
// (strategy, scenario).
const DefaultReferencesPerGroup = 5

// Generator produces reports from stored data.
type Generator struct {
	sessionStore   storage.SessionRecordStore
	aggregateStore storage.StrategyAggregateStore
	thresholds     decision.Thresholds
	references     int
	now            func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(sessionStore storage.SessionRecordStore, aggStore storage.StrategyAggregateStore) *Generator {
	return &Generator{
		sessionStore:   sessionStore,
		aggregateStore: aggStore,
		thresholds:     decision.DefaultThresholds(),
		references:     DefaultReferencesPerGroup,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithThresholds sets the decision gate thresholds.
func (g *Generator) WithThresholds(th decision.Thresholds) *Generator {
	g.thresholds = th
	return g
}

// Generate produces a complete report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	aggs, err := g.aggregateStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := g.sessionStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	decisions, err := g.generateDecisions(aggs)
	if err != nil {
		return nil, err
	}

	strategySet := make(map[string]struct{})
	scenarioSet := make(map[string]struct{})
	opponentSet := make(map[string]struct{})
	for _, agg := range aggs {
		strategySet[agg.StrategyID] = struct{}{}
		scenarioSet[agg.ScenarioID] = struct{}{}
		if agg.OpponentID != domain.OpponentAll {
			opponentSet[agg.OpponentID] = struct{}{}
		}
	}

	return &Report{
		GeneratedAt:         g.now(),
		StrategyCount:       len(strategySet),
		ScenarioCount:       len(scenarioSet),
		OpponentCount:       len(opponentSet),
		DataSummary:         generateDataSummary(sessions),
		StrategyMetrics:     generateStrategyMetrics(aggs),
		ScenarioSensitivity: generateScenarioSensitivity(aggs),
		Decisions:           decisions,
		SessionReferences:   generateSessionReferences(sessions, g.references),
	}, nil
}

func generateDataSummary(sessions []*domain.SessionRecord) DataSummary {
	runs := make(map[string]struct{})
	var s DataSummary
	for _, rec := range sessions {
		runs[rec.RunID] = struct{}{}
		s.TotalSessions++
		switch rec.EndReason {
		case domain.EndReasonAgreement:
			s.Agreements++
		case domain.EndReasonTimeout:
			s.Timeouts++
		case domain.EndReasonError:
			s.Errors++
		}
	}
	s.TotalRuns = len(runs)
	return s
}

// generateStrategyMetrics builds sorted rows from aggregates.
func generateStrategyMetrics(aggs []*domain.StrategyAggregate) []StrategyMetricRow {
	rows := make([]StrategyMetricRow, len(aggs))
	for i, agg := range aggs {
		rows[i] = StrategyMetricRow{
			StrategyID:        agg.StrategyID,
			OpponentID:        agg.OpponentID,
			ScenarioID:        agg.ScenarioID,
			TotalSessions:     agg.TotalSessions,
			AgreementRate:     agg.AgreementRate,
			UtilityMean:       agg.UtilityMean,
			UtilityMedian:     agg.UtilityMedian,
			UtilityP10:        agg.UtilityP10,
			UtilityP90:        agg.UtilityP90,
			AdvantageMean:     agg.AdvantageMean,
			WelfareMean:       agg.WelfareMean,
			NashDistanceMean:  agg.NashDistanceMean,
			ParetoOptimalRate: agg.ParetoOptimalRate,
			StepsMean:         agg.StepsMean,
			EstimateErrorMean: agg.EstimateErrorMean,
		}
	}
	sortStrategyMetrics(rows)
	return rows
}

// generateScenarioSensitivity builds one row per (strategy_id, opponent_id)
// present in at least one scenario.
func generateScenarioSensitivity(aggs []*domain.StrategyAggregate) []ScenarioSensitivityRow {
	type key struct {
		StrategyID string
		OpponentID string
	}
	byKey := make(map[key]map[string]*domain.StrategyAggregate)
	for _, agg := range aggs {
		k := key{StrategyID: agg.StrategyID, OpponentID: agg.OpponentID}
		if byKey[k] == nil {
			byKey[k] = make(map[string]*domain.StrategyAggregate)
		}
		byKey[k][agg.ScenarioID] = agg
	}

	rows := make([]ScenarioSensitivityRow, 0, len(byKey))
	for k, scenarios := range byKey {
		row := ScenarioSensitivityRow{StrategyID: k.StrategyID, OpponentID: k.OpponentID}
		if s := scenarios[domain.ScenarioSmall]; s != nil {
			row.SmallMean = s.UtilityMean
		}
		if s := scenarios[domain.ScenarioStandard]; s != nil {
			row.StandardMean = s.UtilityMean
		}
		if s := scenarios[domain.ScenarioLarge]; s != nil {
			row.LargeMean = s.UtilityMean
		}
		if row.StandardMean != 0 {
			row.DegradationPct = (row.StandardMean - row.LargeMean) / row.StandardMean * 100
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StrategyID != rows[j].StrategyID {
			return rows[i].StrategyID < rows[j].StrategyID
		}
		return opponentLess(rows[i].OpponentID, rows[j].OpponentID)
	})
	return rows
}

// generateDecisions evaluates the gate for every (strategy_id, scenario_id)
// with a pooled aggregate. Groups without per-opponent rows are skipped.
func (g *Generator) generateDecisions(aggs []*domain.StrategyAggregate) ([]*decision.DecisionResult, error) {
	type key struct {
		StrategyID string
		ScenarioID string
	}
	var keys []key
	for _, agg := range aggs {
		if agg.OpponentID == domain.OpponentAll {
			keys = append(keys, key{StrategyID: agg.StrategyID, ScenarioID: agg.ScenarioID})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].StrategyID != keys[j].StrategyID {
			return keys[i].StrategyID < keys[j].StrategyID
		}
		return keys[i].ScenarioID < keys[j].ScenarioID
	})

	evaluator := decision.NewEvaluator(g.thresholds)
	var out []*decision.DecisionResult
	for _, k := range keys {
		input, err := decision.Build(aggs, k.StrategyID, k.ScenarioID)
		if errors.Is(err, decision.ErrNoOpponentRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result, err := evaluator.Evaluate(*input)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

// generateSessionReferences lists the n lowest-advantage sessions of every
// (strategy_id, scenario_id).
func generateSessionReferences(sessions []*domain.SessionRecord, n int) []SessionReferenceRow {
	rows := make([]SessionReferenceRow, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, SessionReferenceRow{
			StrategyID: s.StrategyID,
			ScenarioID: s.ScenarioID,
			OpponentID: s.OpponentID,
			SessionID:  s.SessionID,
			Seed:       s.Seed,
			Advantage:  s.SelfUtility - s.SelfReserved,
			EndReason:  s.EndReason,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StrategyID != rows[j].StrategyID {
			return rows[i].StrategyID < rows[j].StrategyID
		}
		if rows[i].ScenarioID != rows[j].ScenarioID {
			return rows[i].ScenarioID < rows[j].ScenarioID
		}
		if rows[i].Advantage != rows[j].Advantage {
			return rows[i].Advantage < rows[j].Advantage
		}
		return rows[i].SessionID < rows[j].SessionID
	})

	var out []SessionReferenceRow
	count := 0
	for i, r := range rows {
		if i > 0 && (r.StrategyID != rows[i-1].StrategyID || r.ScenarioID != rows[i-1].ScenarioID) {
			count = 0
		}
		if count < n {
			out = append(out, r)
		}
		count++
	}
	return out
}

// sortStrategyMetrics sorts rows by (strategy_id, scenario_id, opponent_id)
// with the pooled row last in each group.
func sortStrategyMetrics(rows []StrategyMetricRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StrategyID != rows[j].StrategyID {
			return rows[i].StrategyID < rows[j].StrategyID
		}
		if rows[i].ScenarioID != rows[j].ScenarioID {
			return rows[i].ScenarioID < rows[j].ScenarioID
		}
		return opponentLess(rows[i].OpponentID, rows[j].OpponentID)
	})
}

func opponentLess(a, b string) bool {
	if a == domain.OpponentAll || b == domain.OpponentAll {
		return b == domain.OpponentAll && a != domain.OpponentAll
	}
	return a < b
}
