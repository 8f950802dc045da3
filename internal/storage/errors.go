package storage

import (
	"errors"
	"fmt"

	"negotiation-lab/internal/domain"
)

// Storage errors for append-only stores.
var (
	// ErrNotFound is returned when a session or aggregate does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a session_id or an aggregate key
	// (strategy, opponent, scenario) already exists. Stores never update.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when a record misses its key columns.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidateSessionRecord checks the key column of a session_records row.
func ValidateSessionRecord(r *domain.SessionRecord) error {
	if r == nil {
		return fmt.Errorf("%w: nil session record", ErrInvalidInput)
	}
	if r.SessionID == "" {
		return fmt.Errorf("%w: session record without session_id", ErrInvalidInput)
	}
	return nil
}

// ValidateTracePoint checks the key columns of an offer_traces row.
func ValidateTracePoint(p *domain.OfferTracePoint) error {
	if p == nil {
		return fmt.Errorf("%w: nil trace point", ErrInvalidInput)
	}
	if p.SessionID == "" || p.Proposer == "" {
		return fmt.Errorf("%w: trace point needs session_id and proposer", ErrInvalidInput)
	}
	return nil
}

// ValidateAggregate checks the key columns of a strategy_aggregates row.
func ValidateAggregate(a *domain.StrategyAggregate) error {
	if a == nil {
		return fmt.Errorf("%w: nil aggregate", ErrInvalidInput)
	}
	if a.StrategyID == "" || a.OpponentID == "" || a.ScenarioID == "" {
		return fmt.Errorf("%w: aggregate %q/%q/%q needs strategy, opponent and scenario",
			ErrInvalidInput, a.StrategyID, a.OpponentID, a.ScenarioID)
	}
	return nil
}

// AggregateKey joins the strategy_aggregates key columns.
func AggregateKey(strategyID, opponentID, scenarioID string) string {
	return strategyID + "|" + opponentID + "|" + scenarioID
}
