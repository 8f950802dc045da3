package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"negotiation-lab/internal/config"
	"negotiation-lab/internal/domain"
	"negotiation-lab/internal/storage"
)

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{Backend: config.BackendMemory}, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.NotNil(t, s.Sessions)
	assert.NotNil(t, s.Traces)
	assert.NotNil(t, s.Aggregates)
	assert.False(t, s.PersistentAggregates)
}

func TestOpen_SQLitePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	cfg := config.StorageConfig{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "sessions.db"),
	}

	s, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.Sessions.Insert(ctx, &domain.SessionRecord{
		SessionID:  "s-1",
		RunID:      "run",
		ScenarioID: domain.ScenarioSmall,
		StrategyID: "adaptive",
		OpponentID: "Linear",
		EndReason:  domain.EndReasonTimeout,
	}))
	s.Close()

	s, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Sessions.GetByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Linear", got.OpponentID)

	err = s.Sessions.Insert(ctx, got)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOpen_SQLiteRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: config.BackendSQLite}, nil)
	assert.Error(t, err)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "redis"}, nil)
	assert.ErrorIs(t, err, config.ErrUnknownBackend)
}
