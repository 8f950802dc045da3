package clickhouse

import (
	"context"
	"fmt"
	"time"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

// OfferTraceStore implements storage.OfferTraceStore using ClickHouse.
type OfferTraceStore struct {
	conn *Conn
}

// NewOfferTraceStore creates a new OfferTraceStore.
func NewOfferTraceStore(conn *Conn) *OfferTraceStore {
	return &OfferTraceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OfferTraceStore = (*OfferTraceStore)(nil)

type traceKey struct {
	sessionID string
	step      int
	proposer  string
}

// InsertBulk adds multiple points. Fails entire batch on duplicate (session_id, step, proposer).
func (s *OfferTraceStore) InsertBulk(ctx context.Context, points []*domain.OfferTracePoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("insert_traces", start, err) }(time.Now())

	// Check for intra-batch duplicates
	seen := make(map[traceKey]struct{}, len(points))
	sessions := make(map[string]struct{})
	for _, p := range points {
		if err := storage.ValidateTracePoint(p); err != nil {
			return err
		}
		k := traceKey{p.SessionID, p.Step, p.Proposer}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		sessions[p.SessionID] = struct{}{}
	}

	// MergeTree does not enforce keys; check existing rows per session
	for sessionID := range sessions {
		existing, err := s.GetBySessionID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, p := range existing {
			if _, dup := seen[traceKey{p.SessionID, p.Step, p.Proposer}]; dup {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO offer_traces (
			session_id, step, relative_time, proposer, offer_key, self_utility, opponent_utility
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.SessionID, uint32(p.Step), p.RelativeTime, p.Proposer,
			p.OfferKey, p.SelfUtility, p.OpponentUtility,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySessionID retrieves all points for a session, ordered by step ASC.
func (s *OfferTraceStore) GetBySessionID(ctx context.Context, sessionID string) ([]*domain.OfferTracePoint, error) {
	query := `
		SELECT session_id, step, relative_time, proposer, offer_key, self_utility, opponent_utility
		FROM offer_traces
		WHERE session_id = ?
		ORDER BY step ASC, proposer ASC
	`

	rows, err := s.conn.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query by session id: %w", err)
	}
	defer rows.Close()

	return scanOfferTraces(rows)
}

func scanOfferTraces(rows chRows) ([]*domain.OfferTracePoint, error) {
	var points []*domain.OfferTracePoint

	for rows.Next() {
		var p domain.OfferTracePoint
		var step uint32
		err := rows.Scan(
			&p.SessionID, &step, &p.RelativeTime, &p.Proposer,
			&p.OfferKey, &p.SelfUtility, &p.OpponentUtility,
		)
		if err != nil {
			return nil, fmt.Errorf("scan offer trace row: %w", err)
		}
		p.Step = int(step)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offer trace rows: %w", err)
	}

	return points, nil
}
