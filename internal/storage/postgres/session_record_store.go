package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

const sessionColumns = `
	session_id, run_id, scenario_id, strategy_id, opponent_id, seed,
	n_steps, steps_used,
	agreement, agreement_key, self_utility, opponent_utility,
	self_reserved, opponent_reserved,
	welfare, nash_distance, pareto_optimal,
	end_reason,
	estimated_opponent_rv, estimate_error, fit_attempts, fit_failures`

const insertSessionQuery = `
	INSERT INTO session_records (` + sessionColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8,
		$9, $10, $11, $12,
		$13, $14,
		$15, $16, $17,
		$18,
		$19, $20, $21, $22
	)
`

// SessionRecordStore implements storage.SessionRecordStore using PostgreSQL.
type SessionRecordStore struct {
	pool *Pool
}

// NewSessionRecordStore creates a new SessionRecordStore.
func NewSessionRecordStore(pool *Pool) *SessionRecordStore {
	return &SessionRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SessionRecordStore = (*SessionRecordStore)(nil)

func sessionArgs(r *domain.SessionRecord) []any {
	return []any{
		r.SessionID, r.RunID, r.ScenarioID, r.StrategyID, r.OpponentID, r.Seed,
		r.NSteps, r.StepsUsed,
		r.Agreement, r.AgreementKey, r.SelfUtility, r.OpponentUtility,
		r.SelfReserved, r.OpponentReserved,
		r.Welfare, r.NashDistance, r.ParetoOptimal,
		r.EndReason,
		r.EstimatedOpponentRV, r.EstimateError, r.FitAttempts, r.FitFailures,
	}
}

// Insert adds a new session. Returns ErrDuplicateKey if session_id exists.
func (s *SessionRecordStore) Insert(ctx context.Context, r *domain.SessionRecord) error {
	if err := storage.ValidateSessionRecord(r); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, insertSessionQuery, sessionArgs(r)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert session record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple sessions atomically. Fails entire batch on any duplicate.
func (s *SessionRecordStore) InsertBulk(ctx context.Context, records []*domain.SessionRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("insert_bulk", start, err) }(time.Now())

	for _, r := range records {
		if err := storage.ValidateSessionRecord(r); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if _, err = tx.Exec(ctx, insertSessionQuery, sessionArgs(r)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert session record in bulk: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its ID. Returns ErrNotFound if not exists.
func (s *SessionRecordStore) GetByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + `
		FROM session_records
		WHERE session_id = $1
	`

	r, err := scanSessionRecord(s.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get session record by id: %w", err)
	}
	return r, nil
}

// GetByStrategyOpponent retrieves all sessions of a strategy against one opponent.
func (s *SessionRecordStore) GetByStrategyOpponent(ctx context.Context, strategyID, opponentID string) ([]*domain.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + `
		FROM session_records
		WHERE strategy_id = $1 AND opponent_id = $2
		ORDER BY session_id ASC
	`

	rows, err := s.pool.Query(ctx, query, strategyID, opponentID)
	if err != nil {
		return nil, fmt.Errorf("get session records by strategy/opponent: %w", err)
	}
	defer rows.Close()

	return scanSessionRecords(rows)
}

// GetByStrategy retrieves all sessions of a strategy.
func (s *SessionRecordStore) GetByStrategy(ctx context.Context, strategyID string) ([]*domain.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + `
		FROM session_records
		WHERE strategy_id = $1
		ORDER BY session_id ASC
	`

	rows, err := s.pool.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("get session records by strategy: %w", err)
	}
	defer rows.Close()

	return scanSessionRecords(rows)
}

// GetByRunID retrieves all sessions of a tournament run.
func (s *SessionRecordStore) GetByRunID(ctx context.Context, runID string) ([]*domain.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + `
		FROM session_records
		WHERE run_id = $1
		ORDER BY session_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get session records by run id: %w", err)
	}
	defer rows.Close()

	return scanSessionRecords(rows)
}

// GetAll retrieves all sessions.
func (s *SessionRecordStore) GetAll(ctx context.Context) (_ []*domain.SessionRecord, err error) {
	defer func(start time.Time) { observe("get_all", start, err) }(time.Now())

	query := `SELECT ` + sessionColumns + `
		FROM session_records
		ORDER BY session_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all session records: %w", err)
	}
	defer rows.Close()

	return scanSessionRecords(rows)
}

func scanSessionRecord(row pgx.Row) (*domain.SessionRecord, error) {
	var r domain.SessionRecord
	err := row.Scan(
		&r.SessionID, &r.RunID, &r.ScenarioID, &r.StrategyID, &r.OpponentID, &r.Seed,
		&r.NSteps, &r.StepsUsed,
		&r.Agreement, &r.AgreementKey, &r.SelfUtility, &r.OpponentUtility,
		&r.SelfReserved, &r.OpponentReserved,
		&r.Welfare, &r.NashDistance, &r.ParetoOptimal,
		&r.EndReason,
		&r.EstimatedOpponentRV, &r.EstimateError, &r.FitAttempts, &r.FitFailures,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanSessionRecords(rows pgx.Rows) ([]*domain.SessionRecord, error) {
	var records []*domain.SessionRecord

	for rows.Next() {
		r, err := scanSessionRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session record row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session record rows: %w", err)
	}

	return records, nil
}
