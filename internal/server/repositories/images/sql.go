// Package images stores opaque image blobs in the gateway database. It backs
// the default image store when no object storage bucket is configured.
package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
)

// SQLRepository implements image storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// Put upserts the blob stored under key.
func (r *SQLRepository) Put(ctx context.Context, key string, data []byte) error {
	query := r.dialect.Rebind(`
		INSERT INTO images (key, data) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data`)
	if _, err := r.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT data FROM images WHERE key = ?`), key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return data, nil
}

// Delete is idempotent: a missing key is not an error.
func (r *SQLRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM images WHERE key = ?`), key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
