// Package migrations embeds the SQL schema for the calls/leads/
// transcript_lines tables spec.md §6.5 requires and applies them via
// pressly/goose, the schema-migration tool named in the teacher's
// dependency pack but left unwired by any example repo — wired here
// for the one concern the pack commits to it for.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var files embed.FS

// Up applies every pending migration against db, which must be a
// *sql.DB opened with the pgx stdlib driver (database/sql, not
// pgxpool) since goose drives migrations through database/sql.
func Up(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(files)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
