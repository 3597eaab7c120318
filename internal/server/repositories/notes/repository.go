// Package notes stores note rows. Ownership is checked through the parent
// vault's user_id.
package notes

import (
	"context"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
)

type Repository interface {
	ListByVault(ctx context.Context, vaultID string) ([]models.Note, error)
	Get(ctx context.Context, userID int64, id string) (*models.Note, error)
	Create(ctx context.Context, n *models.Note) error
	Update(ctx context.Context, userID int64, n *models.Note) error
	UpdatePosition(ctx context.Context, userID int64, id string, position int) error
	Delete(ctx context.Context, userID int64, id string) error
	DeleteByVault(ctx context.Context, vaultID string) error
	DeleteByUser(ctx context.Context, userID int64) error
	NextPosition(ctx context.Context, vaultID string) (int, error)
}
