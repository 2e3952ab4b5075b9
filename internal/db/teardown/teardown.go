// Package teardown drops every table by recreating the public schema.
package teardown

import (
	"context"
	"database/sql"
	"fmt"
)

// Statements run in order, one per round trip; serverless Postgres drivers reject
// multi-statement strings.
var Statements = []string{
	"DROP SCHEMA public CASCADE",
	"CREATE SCHEMA public",
	"GRANT ALL ON SCHEMA public TO postgres",
	"GRANT ALL ON SCHEMA public TO public",
}

// Execer is the subset of *sql.DB used by Run.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Run executes Statements against db and stops at the first failure.
func Run(ctx context.Context, db Execer) error {
	for _, stmt := range Statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("teardown: %s: %w", stmt, err)
		}
	}
	return nil
}
