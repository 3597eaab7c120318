// Package services implements the gateway's command semantics on top of the
// repositories: accounts and sessions, vaults, collections and notes.
// Content fields are AES-GCM encrypted with the key cached for the session.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/auth"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/images"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/repomanager"
)

type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	sessions                    *SessionService
	images                      images.Store
	log                         logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	now                         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService, img images.Store, log logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		sessions:                    sessions,
		images:                      img,
		log:                         log.With("service", "users"),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		now:                         time.Now,
	}
}

func (s *UserService) generateAccessToken(userID int64) (string, error) {
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// UserIDFromToken resolves an access token to its user.
func (s *UserService) UserIDFromToken(token string) (int64, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

func profile(u *models.User) models.Profile {
	p := models.Profile{ID: u.ID, Username: u.Username}
	if len(u.Avatar) > 0 {
		url := images.DataURL(u.Avatar)
		p.Avatar = &url
	}
	return p
}

// Register creates the account and returns it with a fresh access token.
// The master secret is only kept as a hash; a new random salt binds the
// content key derived from it.
func (s *UserService) Register(ctx context.Context, username, password, masterKey string) (models.Profile, string, error) {
	user := &models.User{
		Username:      username,
		PasswordHash:  cryptox.HashSecret(password),
		MasterKeyHash: cryptox.HashSecret(masterKey),
		KeySalt:       common.GenerateRandByteArray(cryptox.SaltLength),
		CreatedAt:     s.now().UnixMilli(),
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return models.Profile{}, "", fmt.Errorf("register %q: %w", username, err)
	}

	token, err := s.generateAccessToken(user.ID)
	if err != nil {
		return models.Profile{}, "", err
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return profile(user), token, nil
}

func (s *UserService) checkSecret(secret, hash string) error {
	ok, err := cryptox.VerifySecret(secret, hash)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return common.ErrorUnauthorized
	}
	return nil
}

func (s *UserService) byUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// Login checks the password and, when given, the master secret. Unknown
// users and wrong secrets are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password, masterKey string) (models.Profile, string, error) {
	user, err := s.byUsername(ctx, username)
	if err != nil {
		return models.Profile{}, "", err
	}
	if err := s.checkSecret(password, user.PasswordHash); err != nil {
		return models.Profile{}, "", err
	}
	if masterKey != "" {
		if err := s.checkSecret(masterKey, user.MasterKeyHash); err != nil {
			return models.Profile{}, "", err
		}
	}

	token, err := s.generateAccessToken(user.ID)
	if err != nil {
		return models.Profile{}, "", err
	}
	return profile(user), token, nil
}

// InitSession verifies the master secret and caches the derived content key.
func (s *UserService) InitSession(ctx context.Context, userID int64, masterKey string) error {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.checkSecret(masterKey, user.MasterKeyHash); err != nil {
		return err
	}

	key := cryptox.DeriveKey(masterKey, user.KeySalt)
	s.sessions.Open(userID, key)
	common.WipeByteArray(key)

	s.log.Debug(ctx, "session initialized", "user_id", userID)
	return nil
}

func (s *UserService) Logout(ctx context.Context, userID int64) {
	s.sessions.Close(userID)
	s.log.Debug(ctx, "session closed", "user_id", userID)
}

// RecoverPassword sets a new password for a user proving the master secret.
func (s *UserService) RecoverPassword(ctx context.Context, username, masterKey, newPassword string) error {
	user, err := s.byUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.checkSecret(masterKey, user.MasterKeyHash); err != nil {
		return err
	}
	return s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, cryptox.HashSecret(newPassword))
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, masterKey, newPassword string) error {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.checkSecret(masterKey, user.MasterKeyHash); err != nil {
		return err
	}
	return s.repomanager.Users(s.db).UpdatePassword(ctx, userID, cryptox.HashSecret(newPassword))
}

// Delete removes the account and everything it owns, then closes its session.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	var withImages []string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		vs, err := s.repomanager.Vaults(tx).List(ctx, userID)
		if err != nil {
			return err
		}
		for _, v := range vs {
			if v.HasImage {
				withImages = append(withImages, v.ID)
			}
		}
		if err := s.repomanager.Notes(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.repomanager.Collections(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := s.repomanager.Vaults(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	for _, id := range withImages {
		if err := s.images.Delete(ctx, images.VaultKey(id)); err != nil {
			s.log.Warn(ctx, "orphaned vault image", "vault_id", id, "error", err)
		}
	}
	s.sessions.Close(userID)
	s.log.Info(ctx, "user deleted", "user_id", userID)
	return nil
}

// Avatar returns the avatar as a data URL, nil when unset.
func (s *UserService) Avatar(ctx context.Context, userID int64) (*string, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile(user).Avatar, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, change models.ImageChange) error {
	if !change.Present {
		return nil
	}
	return s.repomanager.Users(s.db).UpdateAvatar(ctx, userID, change.Data)
}
