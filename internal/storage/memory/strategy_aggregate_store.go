package memory

import (
	"context"
	"sort"
	"sync"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

// StrategyAggregateStore is an in-memory implementation of storage.StrategyAggregateStore.
type StrategyAggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StrategyAggregate // keyed by composite key
}

// NewStrategyAggregateStore creates a new in-memory strategy aggregate store.
func NewStrategyAggregateStore() *StrategyAggregateStore {
	return &StrategyAggregateStore{
		data: make(map[string]*domain.StrategyAggregate),
	}
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if key exists.
func (s *StrategyAggregateStore) Insert(_ context.Context, a *domain.StrategyAggregate) error {
	if err := storage.ValidateAggregate(a); err != nil {
		return err
	}

	key := storage.AggregateKey(a.StrategyID, a.OpponentID, a.ScenarioID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	aggCopy := *a
	s.data[key] = &aggCopy
	return nil
}

// InsertBulk adds multiple aggregates atomically. Fails entire batch on any duplicate.
func (s *StrategyAggregateStore) InsertBulk(_ context.Context, aggregates []*domain.StrategyAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(aggregates))
	for _, a := range aggregates {
		if err := storage.ValidateAggregate(a); err != nil {
			return err
		}
		key := storage.AggregateKey(a.StrategyID, a.OpponentID, a.ScenarioID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, a := range aggregates {
		aggCopy := *a
		s.data[storage.AggregateKey(a.StrategyID, a.OpponentID, a.ScenarioID)] = &aggCopy
	}

	return nil
}

// GetByKey retrieves aggregate by composite key. Returns ErrNotFound if not exists.
func (s *StrategyAggregateStore) GetByKey(_ context.Context, strategyID, opponentID, scenarioID string) (*domain.StrategyAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[storage.AggregateKey(strategyID, opponentID, scenarioID)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	aggCopy := *a
	return &aggCopy, nil
}

// GetByStrategy retrieves all aggregates for a strategy.
func (s *StrategyAggregateStore) GetByStrategy(_ context.Context, strategyID string) ([]*domain.StrategyAggregate, error) {
	return s.filter(func(a *domain.StrategyAggregate) bool { return a.StrategyID == strategyID }), nil
}

// GetAll retrieves all aggregates.
func (s *StrategyAggregateStore) GetAll(_ context.Context) ([]*domain.StrategyAggregate, error) {
	return s.filter(func(*domain.StrategyAggregate) bool { return true }), nil
}

// filter returns copies ordered by (strategy_id, opponent_id, scenario_id).
func (s *StrategyAggregateStore) filter(match func(*domain.StrategyAggregate) bool) []*domain.StrategyAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StrategyAggregate
	for _, a := range s.data {
		if match(a) {
			aggCopy := *a
			result = append(result, &aggCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return storage.AggregateKey(result[i].StrategyID, result[i].OpponentID, result[i].ScenarioID) <
			storage.AggregateKey(result[j].StrategyID, result[j].OpponentID, result[j].ScenarioID)
	})

	return result
}

var _ storage.StrategyAggregateStore = (*StrategyAggregateStore)(nil)
