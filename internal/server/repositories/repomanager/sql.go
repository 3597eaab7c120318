// Package repomanager provides the RepositoryManager for the gateway's SQL
// store, wiring repository constructors and goose migrations for the dialect
// picked from the DSN.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/filex"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/collections"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/images"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/notes"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/vaults"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

func NewSQLRepositoryManager(dialect dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: dialect}
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect { return m.dialect }

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Vaults(db dbx.DBTX) vaults.Repository {
	return vaults.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Collections(db dbx.DBTX) collections.Repository {
	return collections.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Notes(db dbx.DBTX) notes.Repository {
	return notes.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Images(db dbx.DBTX) images.Repository {
	return images.NewSQLRepository(db, m.dialect)
}

// migrateUp is a seam for tests.
var migrateUp = migrations.Up

func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, m.dialect)
}

// Open connects to dsn (a SQLite path or a postgres:// URL), applies the
// migrations and returns the handle together with a matching manager.
func Open(ctx context.Context, dsn string) (*sql.DB, *SQLRepositoryManager, error) {
	dialect := dbx.DialectFromDSN(dsn)
	if dialect == dbx.SQLite {
		if err := filex.EnsureParentDir(dsn); err != nil {
			return nil, nil, err
		}
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == dbx.SQLite {
		// one writer at a time; also keeps :memory: databases whole
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	m := NewSQLRepositoryManager(dialect)
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, m, nil
}
