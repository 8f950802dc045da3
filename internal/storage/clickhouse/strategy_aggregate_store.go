package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

const aggregateColumns = `
	strategy_id, opponent_id, scenario_id,
	total_sessions, agreements, agreement_rate,
	utility_mean, utility_median, utility_p10, utility_p90,
	utility_min, utility_max, utility_stddev,
	advantage_mean, welfare_mean, nash_distance_mean,
	pareto_optimal_rate, steps_mean, estimate_error_mean`

// StrategyAggregateStore implements storage.StrategyAggregateStore using ClickHouse.
type StrategyAggregateStore struct {
	conn *Conn
}

// NewStrategyAggregateStore creates a new StrategyAggregateStore.
func NewStrategyAggregateStore(conn *Conn) *StrategyAggregateStore {
	return &StrategyAggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.StrategyAggregateStore = (*StrategyAggregateStore)(nil)

func aggregateArgs(a *domain.StrategyAggregate) []any {
	return []any{
		a.StrategyID, a.OpponentID, a.ScenarioID,
		uint32(a.TotalSessions), uint32(a.Agreements), a.AgreementRate,
		a.UtilityMean, a.UtilityMedian, a.UtilityP10, a.UtilityP90,
		a.UtilityMin, a.UtilityMax, a.UtilityStddev,
		a.AdvantageMean, a.WelfareMean, a.NashDistanceMean,
		a.ParetoOptimalRate, a.StepsMean, a.EstimateErrorMean,
	}
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if key exists.
func (s *StrategyAggregateStore) Insert(ctx context.Context, a *domain.StrategyAggregate) error {
	return s.InsertBulk(ctx, []*domain.StrategyAggregate{a})
}

// InsertBulk adds multiple aggregates atomically. Fails entire batch on any duplicate.
func (s *StrategyAggregateStore) InsertBulk(ctx context.Context, aggregates []*domain.StrategyAggregate) (err error) {
	if len(aggregates) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("insert_aggregates", start, err) }(time.Now())

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(aggregates))
	for _, a := range aggregates {
		if err := storage.ValidateAggregate(a); err != nil {
			return err
		}
		key := storage.AggregateKey(a.StrategyID, a.OpponentID, a.ScenarioID)
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	// ReplacingMergeTree would silently replace; keep append-only semantics
	for _, a := range aggregates {
		exists, err := s.exists(ctx, a.StrategyID, a.OpponentID, a.ScenarioID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO strategy_aggregates (`+aggregateColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range aggregates {
		if err = batch.Append(aggregateArgs(a)...); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByKey retrieves an aggregate by its composite key.
func (s *StrategyAggregateStore) GetByKey(ctx context.Context, strategyID, opponentID, scenarioID string) (*domain.StrategyAggregate, error) {
	query := `SELECT ` + aggregateColumns + `
		FROM strategy_aggregates FINAL
		WHERE strategy_id = ? AND opponent_id = ? AND scenario_id = ?
		LIMIT 1
	`

	a, err := scanStrategyAggregate(s.conn.QueryRow(ctx, query, strategyID, opponentID, scenarioID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get aggregate by key: %w", err)
	}
	return a, nil
}

// GetByStrategy retrieves all aggregates for a strategy.
func (s *StrategyAggregateStore) GetByStrategy(ctx context.Context, strategyID string) ([]*domain.StrategyAggregate, error) {
	query := `SELECT ` + aggregateColumns + `
		FROM strategy_aggregates FINAL
		WHERE strategy_id = ?
		ORDER BY scenario_id ASC, opponent_id ASC
	`

	rows, err := s.conn.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("query by strategy: %w", err)
	}
	defer rows.Close()

	return scanStrategyAggregates(rows)
}

// GetAll retrieves all aggregates.
func (s *StrategyAggregateStore) GetAll(ctx context.Context) ([]*domain.StrategyAggregate, error) {
	query := `SELECT ` + aggregateColumns + `
		FROM strategy_aggregates FINAL
		ORDER BY strategy_id ASC, scenario_id ASC, opponent_id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanStrategyAggregates(rows)
}

// exists checks if an aggregate with the given key exists.
func (s *StrategyAggregateStore) exists(ctx context.Context, strategyID, opponentID, scenarioID string) (bool, error) {
	query := `
		SELECT count(*) FROM strategy_aggregates FINAL
		WHERE strategy_id = ? AND opponent_id = ? AND scenario_id = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, strategyID, opponentID, scenarioID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStrategyAggregate(row rowScanner) (*domain.StrategyAggregate, error) {
	var a domain.StrategyAggregate
	var total, agreements uint32
	err := row.Scan(
		&a.StrategyID, &a.OpponentID, &a.ScenarioID,
		&total, &agreements, &a.AgreementRate,
		&a.UtilityMean, &a.UtilityMedian, &a.UtilityP10, &a.UtilityP90,
		&a.UtilityMin, &a.UtilityMax, &a.UtilityStddev,
		&a.AdvantageMean, &a.WelfareMean, &a.NashDistanceMean,
		&a.ParetoOptimalRate, &a.StepsMean, &a.EstimateErrorMean,
	)
	if err != nil {
		return nil, err
	}
	a.TotalSessions = int(total)
	a.Agreements = int(agreements)
	return &a, nil
}

func scanStrategyAggregates(rows chRows) ([]*domain.StrategyAggregate, error) {
	var aggregates []*domain.StrategyAggregate

	for rows.Next() {
		a, err := scanStrategyAggregate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		aggregates = append(aggregates, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}

	return aggregates, nil
}
