package vaults

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

const selectVault = `SELECT id, user_id, name, color, has_image, position, created_at FROM vaults`

type scanner interface {
	Scan(dest ...any) error
}

func scanVault(row scanner) (models.Vault, error) {
	var v models.Vault
	err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.Color, &v.HasImage, &v.Position, &v.CreatedAt)
	return v, err
}

func (r *SQLRepository) List(ctx context.Context, userID int64) ([]models.Vault, error) {
	rows, err := r.db.QueryContext(ctx,
		r.dialect.Rebind(selectVault+` WHERE user_id = ? ORDER BY position, created_at`), userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Vault{}
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) Get(ctx context.Context, userID int64, id string) (*models.Vault, error) {
	v, err := scanVault(r.db.QueryRowContext(ctx,
		r.dialect.Rebind(selectVault+` WHERE id = ? AND user_id = ?`), id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &v, nil
}

func (r *SQLRepository) Create(ctx context.Context, v *models.Vault) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(
		`INSERT INTO vaults (id, user_id, name, color, has_image, position, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		v.ID, v.UserID, v.Name, v.Color, v.HasImage, v.Position, v.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Update writes name, color and the image flag.
func (r *SQLRepository) Update(ctx context.Context, v *models.Vault) error {
	return r.exec(ctx, `UPDATE vaults SET name = ?, color = ?, has_image = ? WHERE id = ? AND user_id = ?`,
		v.Name, v.Color, v.HasImage, v.ID, v.UserID)
}

func (r *SQLRepository) UpdatePosition(ctx context.Context, userID int64, id string, position int) error {
	return r.exec(ctx, `UPDATE vaults SET position = ? WHERE id = ? AND user_id = ?`, position, id, userID)
}

func (r *SQLRepository) Delete(ctx context.Context, userID int64, id string) error {
	return r.exec(ctx, `DELETE FROM vaults WHERE id = ? AND user_id = ?`, id, userID)
}

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM vaults WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// NextPosition is one past the user's highest vault position, 0 for none.
func (r *SQLRepository) NextPosition(ctx context.Context, userID int64) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT COALESCE(MAX(position) + 1, 0) FROM vaults WHERE user_id = ?`), userID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return next, nil
}
