package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// SessionRecordStore implements storage.SessionRecordStore on a local SQLite file.
type SessionRecordStore struct {
	db *DB
}

// NewSessionRecordStore creates a new SessionRecordStore.
func NewSessionRecordStore(db *DB) *SessionRecordStore {
	return &SessionRecordStore{db: db}
}

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

	if _, err := s.db.ExecContext(ctx, insertSessionQuery, sessionArgs(r)...); err != nil {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSessionQuery)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err = stmt.ExecContext(ctx, sessionArgs(r)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert session record in bulk: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a session by its ID. Returns ErrNotFound if not exists.
func (s *SessionRecordStore) GetByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM session_records WHERE session_id = ?`, sessionID)
	r, err := scanSessionRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get session record by id: %w", err)
	}
	return r, nil
}

// GetByStrategyOpponent retrieves all sessions of a strategy against one opponent.
func (s *SessionRecordStore) GetByStrategyOpponent(ctx context.Context, strategyID, opponentID string) ([]*domain.SessionRecord, error) {
	return s.query(ctx, "get session records by strategy/opponent",
		`WHERE strategy_id = ? AND opponent_id = ?`, strategyID, opponentID)
}

// GetByStrategy retrieves all sessions of a strategy.
func (s *SessionRecordStore) GetByStrategy(ctx context.Context, strategyID string) ([]*domain.SessionRecord, error) {
	return s.query(ctx, "get session records by strategy", `WHERE strategy_id = ?`, strategyID)
}

// GetByRunID retrieves all sessions of a tournament run.
func (s *SessionRecordStore) GetByRunID(ctx context.Context, runID string) ([]*domain.SessionRecord, error) {
	return s.query(ctx, "get session records by run id", `WHERE run_id = ?`, runID)
}

// GetAll retrieves all sessions.
func (s *SessionRecordStore) GetAll(ctx context.Context) ([]*domain.SessionRecord, error) {
	return s.query(ctx, "get all session records", ``)
}

// query runs a filtered select ordered by session_id.
func (s *SessionRecordStore) query(ctx context.Context, op, where string, args ...any) ([]*domain.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM session_records `+where+` ORDER BY session_id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

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

type scanner interface {
	Scan(dest ...any) error
}

func scanSessionRecord(row scanner) (*domain.SessionRecord, error) {
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
