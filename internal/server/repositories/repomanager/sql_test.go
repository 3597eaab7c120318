package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/collections"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/images"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/notes"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/vaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var m RepositoryManager = NewSQLRepositoryManager(dbx.Postgres)

	assert.IsType(t, &users.SQLRepository{}, m.Users(db))
	assert.IsType(t, &vaults.SQLRepository{}, m.Vaults(db))
	assert.IsType(t, &collections.SQLRepository{}, m.Collections(db))
	assert.IsType(t, &notes.SQLRepository{}, m.Notes(db))
	assert.IsType(t, &images.SQLRepository{}, m.Images(db))
}

func TestRunMigrations_UsesDialect(t *testing.T) {
	orig := migrateUp
	t.Cleanup(func() { migrateUp = orig })

	var got dbx.Dialect
	migrateUp = func(ctx context.Context, db *sql.DB, d dbx.Dialect) error {
		got = d
		return errors.New("boom")
	}

	err := NewSQLRepositoryManager(dbx.Postgres).RunMigrations(context.Background(), nil)
	require.EqualError(t, err, "boom")
	assert.Equal(t, dbx.Postgres, got)
}

func TestOpen_SQLiteFile(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "gw.db")

	db, m, err := Open(ctx, dsn)
	require.NoError(t, err)
	assert.Equal(t, dbx.SQLite, m.Dialect())

	_, err = m.Users(db).GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, db.Close())

	// reopening applies no new migrations
	db, _, err = Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
