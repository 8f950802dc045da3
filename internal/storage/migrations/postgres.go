package migrations

import (
	"context"
	"fmt"

	"negotiation-lab/internal/storage/postgres"
)

// RunPostgresMigrations creates the session_records table and its indexes.
// Every statement is idempotent, so reruns on an existing schema are no-ops.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := loadMigrations(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, f := range files {
		for _, stmt := range f.Statements {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply postgres migration %s (%s): %w", f.Name, f.Tables(), err)
			}
		}
	}
	return nil
}
