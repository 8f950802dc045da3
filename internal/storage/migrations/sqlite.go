package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// RunSQLiteMigrations creates the local session_records table,
// one statement at a time.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	files, err := loadMigrations(SQLiteFS, "sqlite")
	if err != nil {
		return err
	}

	for _, f := range files {
		for _, stmt := range f.Statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply sqlite migration %s (%s): %w", f.Name, f.Tables(), err)
			}
		}
	}
	return nil
}
