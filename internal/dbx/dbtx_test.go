package dbx

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// liteVaults opens a private in-memory SQLite database with a positions table
// shaped like the vault ordering columns.
func liteVaults(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE vaults (id TEXT PRIMARY KEY, position INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO vaults (id, position) VALUES ('a', 0), ('b', 1)`)
	require.NoError(t, err)
	return db
}

func positions(t *testing.T, db *sql.DB) map[string]int {
	t.Helper()
	rows, err := db.Query(`SELECT id, position FROM vaults`)
	require.NoError(t, err)
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var id string
		var pos int
		require.NoError(t, rows.Scan(&id, &pos))
		out[id] = pos
	}
	require.NoError(t, rows.Err())
	return out
}

func swap(ctx context.Context, tx DBTX) error {
	if _, err := tx.ExecContext(ctx, `UPDATE vaults SET position = 1 WHERE id = 'a'`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE vaults SET position = 0 WHERE id = 'b'`)
	return err
}

func TestWithTx_SQLite(t *testing.T) {
	errStop := errors.New("stop")

	tests := []struct {
		name    string
		fn      TxFunc
		wantErr error
		want    map[string]int
	}{
		{
			name: "reorder committed",
			fn:   swap,
			want: map[string]int{"a": 1, "b": 0},
		},
		{
			name: "second write fails and the first is undone",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := swap(ctx, tx); err != nil {
					return err
				}
				return errStop
			},
			wantErr: errStop,
			want:    map[string]int{"a": 0, "b": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := liteVaults(t)
			err := WithTx(context.Background(), db, nil, tt.fn)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, positions(t, db))
		})
	}
}

func TestWithTx_PanicRollsBack(t *testing.T) {
	db := liteVaults(t)

	assert.PanicsWithValue(t, "mid-reorder", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			_, err := tx.ExecContext(ctx, `UPDATE vaults SET position = 5 WHERE id = 'a'`)
			require.NoError(t, err)
			panic("mid-reorder")
		})
	})
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, positions(t, db))
}

func TestWithTx_BeginFails(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.ErrorContains(t, err, "begin tx: pool exhausted")
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitFails(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE vaults`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `UPDATE vaults SET position = 0 WHERE id = 'a'`)
		return err
	})
	require.ErrorContains(t, err, "commit tx: serialization failure")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackFailureIsJoined(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(errors.New("connection reset"))

	errStop := errors.New("stop")
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		return errStop
	})
	require.ErrorIs(t, err, errStop)
	assert.ErrorContains(t, err, "rollback: connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}
