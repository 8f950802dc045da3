// Package backend opens the stores selected by config.StorageConfig.
package backend

import (
	"context"
	"fmt"
	"log"

	"negotiation-lab/internal/config"
	"negotiation-lab/internal/storage"
	chstore "negotiation-lab/internal/storage/clickhouse"
	"negotiation-lab/internal/storage/memory"
	"negotiation-lab/internal/storage/migrations"
	"negotiation-lab/internal/storage/postgres"
	"negotiation-lab/internal/storage/sqlite"
)

// Stores bundles the three stores used by a tournament run.
type Stores struct {
	Sessions   storage.SessionRecordStore
	Traces     storage.OfferTraceStore
	Aggregates storage.StrategyAggregateStore

	// PersistentAggregates reports whether Aggregates survives the process.
	// When false, callers recompute aggregates from Sessions.
	PersistentAggregates bool

	closers []func()
}

// Close releases every connection opened by Open. Safe to call once.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Open connects the configured backends and applies migrations.
// Sessions go to the configured backend. Traces and aggregates go to
// ClickHouse when ClickHouseDSN is set, otherwise they stay in memory.
func Open(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (*Stores, error) {
	s := &Stores{
		Traces:     memory.NewOfferTraceStore(),
		Aggregates: memory.NewStrategyAggregateStore(),
	}

	switch cfg.Backend {
	case config.BackendMemory, "":
		s.Sessions = memory.NewSessionRecordStore()

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		s.Sessions = postgres.NewSessionRecordStore(pool)
		logf(logger, "sessions: postgres")

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		s.Sessions = sqlite.NewSessionRecordStore(db)
		logf(logger, "sessions: sqlite %s", cfg.SQLitePath)

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		s.closers = append(s.closers, func() { _ = conn.Close() })
		s.Traces = chstore.NewOfferTraceStore(conn)
		s.Aggregates = chstore.NewStrategyAggregateStore(conn)
		s.PersistentAggregates = true
		logf(logger, "traces and aggregates: clickhouse")
	}

	return s, nil
}

func logf(logger *log.Logger, format string, args ...interface{}) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}
