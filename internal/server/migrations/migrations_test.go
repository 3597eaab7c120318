package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestFor_BothDialectsShipTheSameVersions(t *testing.T) {
	lite, err := For(dbx.SQLite)
	require.NoError(t, err)
	pg, err := For(dbx.Postgres)
	require.NoError(t, err)

	liteFiles, err := fs.Glob(lite, "*.sql")
	require.NoError(t, err)
	pgFiles, err := fs.Glob(pg, "*.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, liteFiles)
	assert.Equal(t, liteFiles, pgFiles)
}

func TestUp_SQLiteIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Up(ctx, db, dbx.SQLite))
	require.NoError(t, Up(ctx, db, dbx.SQLite))

	for _, table := range []string{"users", "vaults", "collections", "collection_vaults", "notes", "images"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}
