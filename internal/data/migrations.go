package data

import (
	"context"
	"database/sql"

	"github.com/target/pressqueue/internal/migrate"
)

// RunMigrations applies pending schema migrations and returns the versions applied.
func RunMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	return migrate.Run(ctx, db)
}

// PendingMigrations lists migrations that have not been applied yet.
func PendingMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	return migrate.Pending(ctx, db)
}
