package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

// OfferTraceStore is an in-memory implementation of storage.OfferTraceStore.
type OfferTraceStore struct {
	mu   sync.RWMutex
	data map[string]*domain.OfferTracePoint // keyed by (session_id, step, proposer)
}

// NewOfferTraceStore creates a new in-memory offer trace store.
func NewOfferTraceStore() *OfferTraceStore {
	return &OfferTraceStore{
		data: make(map[string]*domain.OfferTracePoint),
	}
}

func traceKey(p *domain.OfferTracePoint) string {
	return fmt.Sprintf("%s|%d|%s", p.SessionID, p.Step, p.Proposer)
}

// InsertBulk adds multiple points atomically. Fails entire batch on any duplicate.
func (s *OfferTraceStore) InsertBulk(_ context.Context, points []*domain.OfferTracePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))
	for _, p := range points {
		if err := storage.ValidateTracePoint(p); err != nil {
			return err
		}
		key := traceKey(p)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		pt := *p
		s.data[traceKey(p)] = &pt
	}

	return nil
}

// GetBySessionID retrieves all points for a session, ordered by step ASC.
func (s *OfferTraceStore) GetBySessionID(_ context.Context, sessionID string) ([]*domain.OfferTracePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OfferTracePoint
	for _, p := range s.data {
		if p.SessionID == sessionID {
			pt := *p
			result = append(result, &pt)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Step != result[j].Step {
			return result[i].Step < result[j].Step
		}
		return result[i].Proposer < result[j].Proposer
	})

	return result, nil
}

var _ storage.OfferTraceStore = (*OfferTraceStore)(nil)
