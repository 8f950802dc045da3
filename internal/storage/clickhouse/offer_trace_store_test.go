package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

func tracePoint(sessionID string, step int, proposer string) *domain.OfferTracePoint {
	return &domain.OfferTracePoint{
		SessionID:       sessionID,
		Step:            step,
		RelativeTime:    float64(step) / 99,
		Proposer:        proposer,
		OfferKey:        "0,1,2",
		SelfUtility:     0.8,
		OpponentUtility: 0.3,
	}
}

func TestOfferTraceStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOfferTraceStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.OfferTracePoint{
		tracePoint("sess-1", 2, "Adaptive"),
		tracePoint("sess-1", 0, "Adaptive"),
		tracePoint("sess-1", 1, "Linear"),
		tracePoint("sess-2", 0, "Adaptive"),
	})
	require.NoError(t, err)

	got, err := store.GetBySessionID(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Step)
	assert.Equal(t, 1, got[1].Step)
	assert.Equal(t, "Linear", got[1].Proposer)
	assert.Equal(t, 2, got[2].Step)
	assert.Equal(t, tracePoint("sess-1", 2, "Adaptive"), got[2])
}

func TestOfferTraceStore_Duplicates(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOfferTraceStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.OfferTracePoint{
		tracePoint("sess-1", 0, "Adaptive"),
		tracePoint("sess-1", 0, "Adaptive"),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	require.NoError(t, store.InsertBulk(ctx, []*domain.OfferTracePoint{tracePoint("sess-1", 0, "Adaptive")}))

	err = store.InsertBulk(ctx, []*domain.OfferTracePoint{
		tracePoint("sess-1", 1, "Linear"),
		tracePoint("sess-1", 0, "Adaptive"),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetBySessionID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOfferTraceStore_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOfferTraceStore(conn)

	assert.NoError(t, store.InsertBulk(context.Background(), nil))

	got, err := store.GetBySessionID(context.Background(), "none")
	require.NoError(t, err)
	assert.Empty(t, got)
}
