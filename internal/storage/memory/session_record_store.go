package memory

import (
	"context"
	"sort"
	"sync"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

// SessionRecordStore is an in-memory implementation of storage.SessionRecordStore.
type SessionRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SessionRecord // keyed by session_id
}

// NewSessionRecordStore creates a new in-memory session record store.
func NewSessionRecordStore() *SessionRecordStore {
	return &SessionRecordStore{
		data: make(map[string]*domain.SessionRecord),
	}
}

// Insert adds a new session. Returns ErrDuplicateKey if session_id exists.
func (s *SessionRecordStore) Insert(_ context.Context, r *domain.SessionRecord) error {
	if err := storage.ValidateSessionRecord(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.SessionID]; exists {
		return storage.ErrDuplicateKey
	}

	rec := *r
	s.data[r.SessionID] = &rec
	return nil
}

// InsertBulk adds multiple sessions atomically. Fails entire batch on any duplicate.
func (s *SessionRecordStore) InsertBulk(_ context.Context, records []*domain.SessionRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if err := storage.ValidateSessionRecord(r); err != nil {
			return err
		}
		if _, exists := s.data[r.SessionID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.SessionID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.SessionID] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		rec := *r
		s.data[r.SessionID] = &rec
	}

	return nil
}

// GetByID retrieves a session by its ID. Returns ErrNotFound if not exists.
func (s *SessionRecordStore) GetByID(_ context.Context, sessionID string) (*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[sessionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	rec := *r
	return &rec, nil
}

// GetByStrategyOpponent retrieves all sessions of a strategy against one opponent.
func (s *SessionRecordStore) GetByStrategyOpponent(_ context.Context, strategyID, opponentID string) ([]*domain.SessionRecord, error) {
	return s.filter(func(r *domain.SessionRecord) bool {
		return r.StrategyID == strategyID && r.OpponentID == opponentID
	}), nil
}

// GetByStrategy retrieves all sessions of a strategy.
func (s *SessionRecordStore) GetByStrategy(_ context.Context, strategyID string) ([]*domain.SessionRecord, error) {
	return s.filter(func(r *domain.SessionRecord) bool {
		return r.StrategyID == strategyID
	}), nil
}

// GetByRunID retrieves all sessions of a tournament run.
func (s *SessionRecordStore) GetByRunID(_ context.Context, runID string) ([]*domain.SessionRecord, error) {
	return s.filter(func(r *domain.SessionRecord) bool {
		return r.RunID == runID
	}), nil
}

// GetAll retrieves all sessions.
func (s *SessionRecordStore) GetAll(_ context.Context) ([]*domain.SessionRecord, error) {
	return s.filter(func(*domain.SessionRecord) bool { return true }), nil
}

// filter returns copies of matching records ordered by session_id ASC.
func (s *SessionRecordStore) filter(match func(*domain.SessionRecord) bool) []*domain.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SessionRecord
	for _, r := range s.data {
		if match(r) {
			rec := *r
			result = append(result, &rec)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SessionID < result[j].SessionID
	})

	return result
}

var _ storage.SessionRecordStore = (*SessionRecordStore)(nil)
