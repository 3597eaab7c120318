package users

import (
	"context"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
)

// Repository persists accounts. Lookups return common.ErrorNotFound for a
// missing row; Create returns common.ErrorAlreadyExists for a taken name.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateAvatar(ctx context.Context, id int64, avatar []byte) error
	Delete(ctx context.Context, id int64) error
}
