package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type CollectionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	log         logging.Logger
	now         func() time.Time
}

func NewCollectionService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService, log logging.Logger) *CollectionService {
	return &CollectionService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		log:         log.With("service", "collections"),
		now:         time.Now,
	}
}

func (s *CollectionService) List(ctx context.Context, userID int64) ([]models.Collection, error) {
	sl, err := sealerFor(s.sessions, userID)
	if err != nil {
		return nil, err
	}
	defer sl.wipe()

	cs, err := s.repomanager.Collections(s.db).List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range cs {
		if cs[i].Name, err = sl.open(cs[i].Name); err != nil {
			return nil, fmt.Errorf("collection %s: %w", cs[i].ID, err)
		}
	}
	return cs, nil
}

// Create appends an empty collection after the user's last one.
func (s *CollectionService) Create(ctx context.Context, userID int64, name string) (*models.Collection, error) {
	sl, err := sealerFor(s.sessions, userID)
	if err != nil {
		return nil, err
	}
	defer sl.wipe()

	sealedName, err := sl.seal(name)
	if err != nil {
		return nil, err
	}

	c := &models.Collection{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      sealedName,
		VaultIDs:  []string{},
		CreatedAt: s.now().UnixMilli(),
	}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Collections(tx)
		pos, err := repo.NextPosition(ctx, userID)
		if err != nil {
			return err
		}
		c.Position = pos
		return repo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	c.Name = name
	return c, nil
}

// Update writes name, position and the full member list. Listed vaults must
// belong to the user; a vault listed by another collection moves here.
func (s *CollectionService) Update(ctx context.Context, userID int64, c models.Collection) error {
	sl, err := sealerFor(s.sessions, userID)
	if err != nil {
		return err
	}
	defer sl.wipe()

	seen := make(map[string]struct{}, len(c.VaultIDs))
	for _, id := range c.VaultIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: vault %s listed twice", common.ErrorValidation, id)
		}
		seen[id] = struct{}{}
	}

	sealedName, err := sl.seal(c.Name)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Collections(tx)
		if _, err := repo.Get(ctx, userID, c.ID); err != nil {
			return err
		}
		for _, id := range c.VaultIDs {
			if _, err := s.repomanager.Vaults(tx).Get(ctx, userID, id); err != nil {
				return fmt.Errorf("vault %s: %w", id, err)
			}
			if err := repo.RemoveVault(ctx, userID, id); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, &models.Collection{ID: c.ID, UserID: userID, Name: sealedName, Position: c.Position}); err != nil {
			return err
		}
		return repo.SetMembers(ctx, c.ID, c.VaultIDs)
	})
}

// Delete removes the collection; its vaults become unassigned.
func (s *CollectionService) Delete(ctx context.Context, userID int64, id string) error {
	if err := s.sessions.Require(userID); err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Collections(tx).Delete(ctx, userID, id)
	})
}
