package notes

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

const (
	noteColumns = `n.id, n.vault_id, n.title, n.content, n.position, n.created_at, n.updated_at`
	ownedBy     = `vault_id IN (SELECT id FROM vaults WHERE user_id = ?)`
)

func (r *SQLRepository) ListByVault(ctx context.Context, vaultID string) ([]models.Note, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(
		`SELECT `+noteColumns+` FROM notes n WHERE n.vault_id = ? ORDER BY n.position, n.created_at`), vaultID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.VaultID, &n.Title, &n.Content, &n.Position, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) Get(ctx context.Context, userID int64, id string) (*models.Note, error) {
	n := &models.Note{}
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(
		`SELECT `+noteColumns+` FROM notes n
		 JOIN vaults v ON v.id = n.vault_id
		 WHERE n.id = ? AND v.user_id = ?`), id, userID).
		Scan(&n.ID, &n.VaultID, &n.Title, &n.Content, &n.Position, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Create(ctx context.Context, n *models.Note) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(
		`INSERT INTO notes (id, vault_id, title, content, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		n.ID, n.VaultID, n.Title, n.Content, n.Position, n.CreatedAt, n.UpdatedAt)
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

func (r *SQLRepository) Update(ctx context.Context, userID int64, n *models.Note) error {
	return r.exec(ctx, `UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ? AND `+ownedBy,
		n.Title, n.Content, n.UpdatedAt, n.ID, userID)
}

func (r *SQLRepository) UpdatePosition(ctx context.Context, userID int64, id string, position int) error {
	return r.exec(ctx, `UPDATE notes SET position = ? WHERE id = ? AND `+ownedBy, position, id, userID)
}

func (r *SQLRepository) Delete(ctx context.Context, userID int64, id string) error {
	return r.exec(ctx, `DELETE FROM notes WHERE id = ? AND `+ownedBy, id, userID)
}

func (r *SQLRepository) DeleteByVault(ctx context.Context, vaultID string) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM notes WHERE vault_id = ?`), vaultID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM notes WHERE `+ownedBy), userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) NextPosition(ctx context.Context, vaultID string) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT COALESCE(MAX(position) + 1, 0) FROM notes WHERE vault_id = ?`), vaultID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return next, nil
}
