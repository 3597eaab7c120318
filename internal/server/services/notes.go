package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	log         logging.Logger
	now         func() time.Time
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService, log logging.Logger) *NoteService {
	return &NoteService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		log:         log.With("service", "notes"),
		now:         time.Now,
	}
}

// ListDecrypted returns the vault's notes in position order, decrypted.
func (s *NoteService) ListDecrypted(ctx context.Context, userID int64, vaultID string) ([]models.Note, error) {
	sl, err := sealerFor(s.sessions, userID)
	if err != nil {
		return nil, err
	}
	defer sl.wipe()

	if _, err := s.repomanager.Vaults(s.db).Get(ctx, userID, vaultID); err != nil {
		return nil, err
	}
	ns, err := s.repomanager.Notes(s.db).ListByVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	for i := range ns {
		if ns[i].Title, err = sl.open(ns[i].Title); err != nil {
			return nil, fmt.Errorf("note %s: %w", ns[i].ID, err)
		}
		if ns[i].Content, err = sl.open(ns[i].Content); err != nil {
			return nil, fmt.Errorf("note %s: %w", ns[i].ID, err)
		}
	}
	return ns, nil
}

func sealNote(sl sealer, title, content string) (string, string, error) {
	t, err := sl.seal(title)
	if err != nil {
		return "", "", err
	}
	c, err := sl.seal(content)
	if err != nil {
		return "", "", err
	}
	return t, c, nil
}

// Create appends a note after the vault's last one.
func (s *NoteService) Create(ctx context.Context, userID int64, vaultID, title, content string) (*models.Note, error) {
	sl, err := sealerFor(s.sessions, userID)
	if err != nil {
		return nil, err
	}
	defer sl.wipe()

	sealedTitle, sealedContent, err := sealNote(sl, title, content)
	if err != nil {
		return nil, err
	}

	now := s.now().UnixMilli()
	n := &models.Note{
		ID:        uuid.NewString(),
		VaultID:   vaultID,
		Title:     sealedTitle,
		Content:   sealedContent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Vaults(tx).Get(ctx, userID, vaultID); err != nil {
			return err
		}
		repo := s.repomanager.Notes(tx)
		pos, err := repo.NextPosition(ctx, vaultID)
		if err != nil {
			return err
		}
		n.Position = pos
		return repo.Create(ctx, n)
	})
	if err != nil {
		return nil, err
	}

	n.Title, n.Content = title, content
	return n, nil
}

func (s *NoteService) Update(ctx context.Context, userID int64, id, title, content string) error {
	sl, err := sealerFor(s.sessions, userID)
	if err != nil {
		return err
	}
	defer sl.wipe()

	sealedTitle, sealedContent, err := sealNote(sl, title, content)
	if err != nil {
		return err
	}
	return s.repomanager.Notes(s.db).Update(ctx, userID, &models.Note{
		ID:        id,
		Title:     sealedTitle,
		Content:   sealedContent,
		UpdatedAt: s.now().UnixMilli(),
	})
}

func (s *NoteService) UpdatePosition(ctx context.Context, userID int64, id string, position int) error {
	if err := s.sessions.Require(userID); err != nil {
		return err
	}
	return s.repomanager.Notes(s.db).UpdatePosition(ctx, userID, id, position)
}

func (s *NoteService) Delete(ctx context.Context, userID int64, id string) error {
	if err := s.sessions.Require(userID); err != nil {
		return err
	}
	return s.repomanager.Notes(s.db).Delete(ctx, userID, id)
}
