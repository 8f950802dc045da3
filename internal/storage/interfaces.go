package storage

import (
	"context"

	"negotiation-lab/internal/domain"
)

// SessionRecordStore provides access to session_records storage.
type SessionRecordStore interface {
	// Insert adds a new session. Returns ErrDuplicateKey if session_id exists.
	Insert(ctx context.Context, r *domain.SessionRecord) error

	// InsertBulk adds multiple sessions atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, records []*domain.SessionRecord) error

	// GetByID retrieves a session by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// GetByStrategyOpponent retrieves all sessions of a strategy against one opponent,
	// ordered by session_id ASC.
	GetByStrategyOpponent(ctx context.Context, strategyID, opponentID string) ([]*domain.SessionRecord, error)

	// GetByStrategy retrieves all sessions of a strategy, ordered by session_id ASC.
	GetByStrategy(ctx context.Context, strategyID string) ([]*domain.SessionRecord, error)

	// GetByRunID retrieves all sessions of a tournament run, ordered by session_id ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.SessionRecord, error)

	// GetAll retrieves all sessions, ordered by session_id ASC.
	GetAll(ctx context.Context) ([]*domain.SessionRecord, error)
}

// OfferTraceStore provides access to offer_traces storage.
type OfferTraceStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (session_id, step, proposer).
	InsertBulk(ctx context.Context, points []*domain.OfferTracePoint) error

	// GetBySessionID retrieves all points for a session, ordered by step ASC.
	GetBySessionID(ctx context.Context, sessionID string) ([]*domain.OfferTracePoint, error)
}

// StrategyAggregateStore provides access to strategy_aggregates storage.
type StrategyAggregateStore interface {
	// Insert adds a new aggregate. Returns ErrDuplicateKey if (strategy_id, opponent_id, scenario_id) exists.
	Insert(ctx context.Context, a *domain.StrategyAggregate) error

	// InsertBulk adds multiple aggregates atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, aggs []*domain.StrategyAggregate) error

	// GetByKey retrieves aggregate by composite key. Returns ErrNotFound if not exists.
	GetByKey(ctx context.Context, strategyID, opponentID, scenarioID string) (*domain.StrategyAggregate, error)

	// GetByStrategy retrieves all aggregates for a strategy.
	GetByStrategy(ctx context.Context, strategyID string) ([]*domain.StrategyAggregate, error)

	// GetAll retrieves all aggregates.
	GetAll(ctx context.Context) ([]*domain.StrategyAggregate, error)
}
