package memory

import (
	"context"
	"errors"
	"testing"

	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

func TestOfferTraceStore_InsertAndGetOrdered(t *testing.T) {
	store := NewOfferTraceStore()
	ctx := context.Background()

	points := []*domain.OfferTracePoint{
		{SessionID: "s1", Step: 2, Proposer: "adaptive", OfferKey: "1,2"},
		{SessionID: "s1", Step: 0, Proposer: "adaptive", OfferKey: "0,0"},
		{SessionID: "s1", Step: 0, Proposer: "Boulware", OfferKey: "3,3"},
		{SessionID: "s2", Step: 0, Proposer: "adaptive", OfferKey: "0,1"},
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBySessionID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	if got[0].Proposer != "Boulware" || got[1].Proposer != "adaptive" || got[2].Step != 2 {
		t.Errorf("unexpected order: %+v %+v %+v", got[0], got[1], got[2])
	}
}

func TestOfferTraceStore_Duplicate(t *testing.T) {
	store := NewOfferTraceStore()
	ctx := context.Background()

	p := &domain.OfferTracePoint{SessionID: "s1", Step: 0, Proposer: "adaptive"}
	if err := store.InsertBulk(ctx, []*domain.OfferTracePoint{p}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.OfferTracePoint{p}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestOfferTraceStore_InvalidInput(t *testing.T) {
	store := NewOfferTraceStore()

	err := store.InsertBulk(context.Background(), []*domain.OfferTracePoint{{SessionID: "s1"}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
