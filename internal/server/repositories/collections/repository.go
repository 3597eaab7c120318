// Package collections stores collections and their ordered vault membership.
package collections

import (
	"context"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID int64) ([]models.Collection, error)
	Get(ctx context.Context, userID int64, id string) (*models.Collection, error)
	Create(ctx context.Context, c *models.Collection) error
	// Update writes name and position; membership goes through SetMembers.
	Update(ctx context.Context, c *models.Collection) error
	// SetMembers replaces the member list of collectionID, in order.
	SetMembers(ctx context.Context, collectionID string, vaultIDs []string) error
	// RemoveVault drops vaultID from whichever of the user's collections lists it.
	RemoveVault(ctx context.Context, userID int64, vaultID string) error
	Delete(ctx context.Context, userID int64, id string) error
	DeleteByUser(ctx context.Context, userID int64) error
	NextPosition(ctx context.Context, userID int64) (int, error)
}
