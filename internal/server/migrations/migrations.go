// Package migrations embeds the gateway schema, one goose directory per SQL
// dialect, and applies it.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

// For returns the migration directory for d.
func For(d dbx.Dialect) (fs.FS, error) {
	return fs.Sub(Migrations, d.String())
}

func gooseDialect(d dbx.Dialect) goose.Dialect {
	if d == dbx.Postgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// Up applies every pending migration for d.
func Up(ctx context.Context, db *sql.DB, d dbx.Dialect) error {
	dir, err := For(d)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(gooseDialect(d), db, dir)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}
