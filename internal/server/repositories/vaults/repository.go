// Package vaults stores vault rows. Every query is scoped to the owning
// user, so a foreign vault id behaves like a missing one.
package vaults

import (
	"context"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID int64) ([]models.Vault, error)
	Get(ctx context.Context, userID int64, id string) (*models.Vault, error)
	Create(ctx context.Context, v *models.Vault) error
	Update(ctx context.Context, v *models.Vault) error
	UpdatePosition(ctx context.Context, userID int64, id string, position int) error
	Delete(ctx context.Context, userID int64, id string) error
	DeleteByUser(ctx context.Context, userID int64) error
	NextPosition(ctx context.Context, userID int64) (int, error)
}
