package collections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
)

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

const selectCollection = `SELECT id, user_id, name, position, created_at FROM collections`

func (r *SQLRepository) List(ctx context.Context, userID int64) ([]models.Collection, error) {
	rows, err := r.db.QueryContext(ctx,
		r.dialect.Rebind(selectCollection+` WHERE user_id = ? ORDER BY position, created_at`), userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Collection{}
	index := map[string]int{}
	for rows.Next() {
		c := models.Collection{VaultIDs: []string{}}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Position, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	members, err := r.db.QueryContext(ctx, r.dialect.Rebind(
		`SELECT cv.collection_id, cv.vault_id FROM collection_vaults cv
		 JOIN collections c ON c.id = cv.collection_id
		 WHERE c.user_id = ?
		 ORDER BY cv.collection_id, cv.position`), userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer members.Close()

	for members.Next() {
		var collectionID, vaultID string
		if err := members.Scan(&collectionID, &vaultID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if i, ok := index[collectionID]; ok {
			out[i].VaultIDs = append(out[i].VaultIDs, vaultID)
		}
	}
	if err := members.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) Get(ctx context.Context, userID int64, id string) (*models.Collection, error) {
	c := &models.Collection{VaultIDs: []string{}}
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(selectCollection+` WHERE id = ? AND user_id = ?`), id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Position, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		r.dialect.Rebind(`SELECT vault_id FROM collection_vaults WHERE collection_id = ? ORDER BY position`), id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var vaultID string
		if err := rows.Scan(&vaultID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.VaultIDs = append(c.VaultIDs, vaultID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) Create(ctx context.Context, c *models.Collection) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(
		`INSERT INTO collections (id, user_id, name, position, created_at) VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.UserID, c.Name, c.Position, c.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return r.SetMembers(ctx, c.ID, c.VaultIDs)
}

func (r *SQLRepository) Update(ctx context.Context, c *models.Collection) error {
	res, err := r.db.ExecContext(ctx,
		r.dialect.Rebind(`UPDATE collections SET name = ?, position = ? WHERE id = ? AND user_id = ?`),
		c.Name, c.Position, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) SetMembers(ctx context.Context, collectionID string, vaultIDs []string) error {
	if _, err := r.db.ExecContext(ctx,
		r.dialect.Rebind(`DELETE FROM collection_vaults WHERE collection_id = ?`), collectionID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	insert := r.dialect.Rebind(`INSERT INTO collection_vaults (collection_id, vault_id, position) VALUES (?, ?, ?)`)
	for i, vaultID := range vaultIDs {
		if _, err := r.db.ExecContext(ctx, insert, collectionID, vaultID, i); err != nil {
			if dbx.IsUniqueViolation(err) {
				return fmt.Errorf("vault %s already in a collection: %w", vaultID, common.ErrorAlreadyExists)
			}
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) RemoveVault(ctx context.Context, userID int64, vaultID string) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(
		`DELETE FROM collection_vaults
		 WHERE vault_id = ? AND collection_id IN (SELECT id FROM collections WHERE user_id = ?)`),
		vaultID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the collection and its membership rows; the vaults stay.
func (r *SQLRepository) Delete(ctx context.Context, userID int64, id string) error {
	res, err := r.db.ExecContext(ctx,
		r.dialect.Rebind(`DELETE FROM collections WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrorNotFound
	}
	return r.SetMembers(ctx, id, nil)
}

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(
		`DELETE FROM collection_vaults WHERE collection_id IN (SELECT id FROM collections WHERE user_id = ?)`), userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM collections WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) NextPosition(ctx context.Context, userID int64) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT COALESCE(MAX(position) + 1, 0) FROM collections WHERE user_id = ?`), userID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return next, nil
}
