package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/images"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	images      images.Store
	log         logging.Logger
	now         func() time.Time
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService, img images.Store, log logging.Logger) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		images:      img,
		log:         log.With("service", "vaults"),
		now:         time.Now,
	}
}

// List returns the user's vaults in position order with names decrypted and
// images attached as data URLs. An unreadable image is logged and skipped.
func (s *VaultService) List(ctx context.Context, userID int64) ([]models.Vault, error) {
	sl, err := sealerFor(s.sessions, userID)
	if err != nil {
		return nil, err
	}
	defer sl.wipe()

	vs, err := s.repomanager.Vaults(s.db).List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range vs {
		if vs[i].Name, err = sl.open(vs[i].Name); err != nil {
			return nil, fmt.Errorf("vault %s: %w", vs[i].ID, err)
		}
		if vs[i].HasImage {
			vs[i].Image = s.loadImage(ctx, sl, vs[i].ID)
		}
	}
	return vs, nil
}

func (s *VaultService) loadImage(ctx context.Context, sl sealer, vaultID string) *string {
	sealed, err := s.images.Get(ctx, images.VaultKey(vaultID))
	if err == nil {
		var raw []byte
		if raw, err = sl.openBytes(sealed); err == nil {
			url := images.DataURL(raw)
			return &url
		}
	}
	s.log.Warn(ctx, "vault image unavailable", "vault_id", vaultID, "error", err)
	return nil
}

// Create appends a vault after the user's last one.
func (s *VaultService) Create(ctx context.Context, userID int64, name, color string) (*models.Vault, error) {
	sl, err := sealerFor(s.sessions, userID)
	if err != nil {
		return nil, err
	}
	defer sl.wipe()

	sealedName, err := sl.seal(name)
	if err != nil {
		return nil, err
	}

	v := &models.Vault{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      sealedName,
		Color:     color,
		CreatedAt: s.now().UnixMilli(),
	}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Vaults(tx)
		pos, err := repo.NextPosition(ctx, userID)
		if err != nil {
			return err
		}
		v.Position = pos
		return repo.Create(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	v.Name = name
	s.log.Info(ctx, "vault created", "user_id", userID, "vault_id", v.ID)
	return v, nil
}

// Update renames and recolours the vault and applies the image change.
func (s *VaultService) Update(ctx context.Context, userID int64, id, name, color string, image models.ImageChange) error {
	sl, err := sealerFor(s.sessions, userID)
	if err != nil {
		return err
	}
	defer sl.wipe()

	repo := s.repomanager.Vaults(s.db)
	v, err := repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if v.Name, err = sl.seal(name); err != nil {
		return err
	}
	v.Color = color

	switch {
	case image.Set():
		sealed, err := sl.sealBytes(image.Data)
		if err != nil {
			return err
		}
		if err := s.images.Put(ctx, images.VaultKey(id), sealed); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		v.HasImage = true
	case image.Remove():
		if err := s.images.Delete(ctx, images.VaultKey(id)); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		v.HasImage = false
	}

	return repo.Update(ctx, v)
}

func (s *VaultService) UpdatePosition(ctx context.Context, userID int64, id string, position int) error {
	if err := s.sessions.Require(userID); err != nil {
		return err
	}
	return s.repomanager.Vaults(s.db).UpdatePosition(ctx, userID, id, position)
}

// Delete removes the vault together with its notes and its collection
// membership, then drops its image.
func (s *VaultService) Delete(ctx context.Context, userID int64, id string) error {
	if err := s.sessions.Require(userID); err != nil {
		return err
	}

	var hadImage bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		v, err := s.repomanager.Vaults(tx).Get(ctx, userID, id)
		if err != nil {
			return err
		}
		hadImage = v.HasImage
		if err := s.repomanager.Notes(tx).DeleteByVault(ctx, id); err != nil {
			return err
		}
		if err := s.repomanager.Collections(tx).RemoveVault(ctx, userID, id); err != nil {
			return err
		}
		return s.repomanager.Vaults(tx).Delete(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	if hadImage {
		if err := s.images.Delete(ctx, images.VaultKey(id)); err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "orphaned vault image", "vault_id", id, "error", err)
		}
	}
	s.log.Info(ctx, "vault deleted", "user_id", userID, "vault_id", id)
	return nil
}
