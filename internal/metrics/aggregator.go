package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

// ErrNoSessions is returned when no sessions are available for aggregation.
var ErrNoSessions = errors.New("no sessions available for aggregation")

// Aggregator computes strategy aggregates from session records.
type Aggregator struct {
	sessionStore     storage.SessionRecordStore
	strategyAggStore storage.StrategyAggregateStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(sessionStore storage.SessionRecordStore, aggStore storage.StrategyAggregateStore) *Aggregator {
	return &Aggregator{
		sessionStore:     sessionStore,
		strategyAggStore: aggStore,
	}
}

// ComputeAggregate computes the aggregate for (strategy_id, opponent_id, scenario_id).
// opponentID domain.OpponentAll pools every opponent.
// Returns ErrNoSessions if no sessions match.
func (a *Aggregator) ComputeAggregate(ctx context.Context, strategyID, opponentID, scenarioID string) (*domain.StrategyAggregate, error) {
	var sessions []*domain.SessionRecord
	var err error
	if opponentID == domain.OpponentAll {
		sessions, err = a.sessionStore.GetByStrategy(ctx, strategyID)
	} else {
		sessions, err = a.sessionStore.GetByStrategyOpponent(ctx, strategyID, opponentID)
	}
	if err != nil {
		return nil, err
	}

	filtered := filterByScenario(sessions, scenarioID)
	if len(filtered) == 0 {
		return nil, ErrNoSessions
	}

	agg := computeFromSessions(filtered)
	agg.StrategyID = strategyID
	agg.OpponentID = opponentID
	agg.ScenarioID = scenarioID

	return agg, nil
}

// ComputeAll computes one aggregate per opponent seen for (strategy_id,
// scenario_id) plus the pooled domain.OpponentAll row, which comes last.
// Opponents are sorted by ID.
func (a *Aggregator) ComputeAll(ctx context.Context, strategyID, scenarioID string) ([]*domain.StrategyAggregate, error) {
	sessions, err := a.sessionStore.GetByStrategy(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	sessions = filterByScenario(sessions, scenarioID)
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}

	byOpponent := make(map[string][]*domain.SessionRecord)
	for _, s := range sessions {
		byOpponent[s.OpponentID] = append(byOpponent[s.OpponentID], s)
	}
	opponents := make([]string, 0, len(byOpponent))
	for id := range byOpponent {
		opponents = append(opponents, id)
	}
	sort.Strings(opponents)

	out := make([]*domain.StrategyAggregate, 0, len(opponents)+1)
	for _, id := range opponents {
		agg := computeFromSessions(byOpponent[id])
		agg.StrategyID, agg.OpponentID, agg.ScenarioID = strategyID, id, scenarioID
		out = append(out, agg)
	}

	pooled := computeFromSessions(sessions)
	pooled.StrategyID, pooled.OpponentID, pooled.ScenarioID = strategyID, domain.OpponentAll, scenarioID
	out = append(out, pooled)

	return out, nil
}

// ComputeAndStore computes and persists the aggregate.
// Returns storage.ErrDuplicateKey if the aggregate already exists (append-only).
func (a *Aggregator) ComputeAndStore(ctx context.Context, strategyID, opponentID, scenarioID string) (*domain.StrategyAggregate, error) {
	agg, err := a.ComputeAggregate(ctx, strategyID, opponentID, scenarioID)
	if err != nil {
		return nil, err
	}

	if err := a.strategyAggStore.Insert(ctx, agg); err != nil {
		return nil, err
	}

	return agg, nil
}

// ComputeAllAndStore computes every aggregate of ComputeAll and persists them
// atomically.
func (a *Aggregator) ComputeAllAndStore(ctx context.Context, strategyID, scenarioID string) ([]*domain.StrategyAggregate, error) {
	aggs, err := a.ComputeAll(ctx, strategyID, scenarioID)
	if err != nil {
		return nil, err
	}

	if err := a.strategyAggStore.InsertBulk(ctx, aggs); err != nil {
		return nil, err
	}

	return aggs, nil
}

// ComputeStoredAndStore aggregates every (strategy, scenario) group present
// in the session store, in sorted order. Groups that were already aggregated
// are skipped.
func (a *Aggregator) ComputeStoredAndStore(ctx context.Context) ([]*domain.StrategyAggregate, error) {
	sessions, err := a.sessionStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}

	type group struct{ strategyID, scenarioID string }
	seen := make(map[group]bool)
	var groups []group
	for _, s := range sessions {
		g := group{s.StrategyID, s.ScenarioID}
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].strategyID != groups[j].strategyID {
			return groups[i].strategyID < groups[j].strategyID
		}
		return groups[i].scenarioID < groups[j].scenarioID
	})

	var out []*domain.StrategyAggregate
	for _, g := range groups {
		aggs, err := a.ComputeAllAndStore(ctx, g.strategyID, g.scenarioID)
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("aggregate %s/%s: %w", g.strategyID, g.scenarioID, err)
		}
		out = append(out, aggs...)
	}
	return out, nil
}

func filterByScenario(sessions []*domain.SessionRecord, scenarioID string) []*domain.SessionRecord {
	var out []*domain.SessionRecord
	for _, s := range sessions {
		if s.ScenarioID == scenarioID {
			out = append(out, s)
		}
	}
	return out
}
