package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/credstore"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
)

// SessionManager is the part of session.Manager the identity service drives.
type SessionManager interface {
	Open(ctx context.Context, userID int64, masterSecret string) error
	Close(ctx context.Context, userID int64)
}

// Remembrance persists a signed-in user between runs.
type Remembrance interface {
	Save(ctx context.Context, user models.User, token, masterSecret string) error
	Load(ctx context.Context) (credstore.Remembered, bool, error)
	Forget(ctx context.Context, userID int64) error
}

// Hook is run on lock or logout; it must not call back into the Service.
type Hook func(ctx context.Context)

// Service holds the current user and drives the account commands. It
// implements Provider for the stores.
type Service struct {
	gw       gateway.Gateway
	sessions SessionManager
	creds    Remembrance
	log      logging.Logger

	mu          sync.RWMutex
	user        *models.User
	lockHooks   []Hook
	logoutHooks []Hook
}

func NewService(gw gateway.Gateway, sessions SessionManager, creds Remembrance, log logging.Logger) *Service {
	return &Service{
		gw:       gw,
		sessions: sessions,
		creds:    creds,
		log:      log.With("component", "identity"),
	}
}

// OnLock registers a hook run after the session is closed by Lock or Logout.
func (s *Service) OnLock(h Hook) {
	s.mu.Lock()
	s.lockHooks = append(s.lockHooks, h)
	s.mu.Unlock()
}

// OnLogout registers a hook run on Logout after the lock hooks.
func (s *Service) OnLogout(h Hook) {
	s.mu.Lock()
	s.logoutHooks = append(s.logoutHooks, h)
	s.mu.Unlock()
}

func (s *Service) UserID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return 0, false
	}
	return s.user.ID, true
}

func (s *Service) Current() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Service) setUser(u *models.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func (s *Service) requireUser() (models.User, error) {
	u, ok := s.Current()
	if !ok {
		return models.User{}, fmt.Errorf("%w: not signed in", gateway.ErrAuthFailure)
	}
	return u, nil
}

type credentials struct {
	Username  string `json:"username" validate:"required,max=64"`
	Password  string `json:"password" validate:"required"`
	MasterKey string `json:"masterKey" validate:"required"`
}

// Login signs in, opens the decryption session and, if remember is set,
// keeps the user signed in for the next run. A rejected master secret
// leaves nobody signed in.
func (s *Service) Login(ctx context.Context, username, password, masterSecret string, remember bool) (models.User, error) {
	u, err := s.authenticate(ctx, common.CmdLogin, credentials{Username: username, Password: password, MasterKey: masterSecret})
	if err != nil {
		return models.User{}, err
	}

	if remember {
		if err := s.creds.Save(ctx, u, s.token(), masterSecret); err != nil {
			s.log.Warn(ctx, "session not remembered", "error", err)
		}
	}
	return u, nil
}

// Register creates the account and signs it in.
func (s *Service) Register(ctx context.Context, username, password, masterSecret string) (models.User, error) {
	return s.authenticate(ctx, common.CmdRegister, credentials{Username: username, Password: password, MasterKey: masterSecret})
}

// authenticate signs out whoever is signed in before asking the gateway, so
// the previous user's mirrors are cleared by the logout hooks.
func (s *Service) authenticate(ctx context.Context, command string, c credentials) (models.User, error) {
	if err := models.Validate(c); err != nil {
		return models.User{}, fmt.Errorf("%s: %w: %v", command, gateway.ErrValidation, err)
	}

	if prev, ok := s.Current(); ok {
		s.log.Info(ctx, "switching user", "user_id", prev.ID)
		s.Logout(ctx)
	}

	var u models.User
	if err := s.gw.Call(ctx, command, c, &u); err != nil {
		return models.User{}, err
	}

	if err := s.sessions.Open(ctx, u.ID, c.MasterKey); err != nil {
		s.setToken("")
		return models.User{}, err
	}
	u.Avatar = nil
	s.setUser(&u)

	s.log.Info(ctx, "signed in", "user_id", u.ID)
	return u, nil
}

// Restore signs in the remembered user, if any. The returned bool reports
// whether a user was restored; locked is true when the session could not be
// opened and Unlock must be called with the master secret.
func (s *Service) Restore(ctx context.Context) (u models.User, restored, locked bool, err error) {
	rec, ok, err := s.creds.Load(ctx)
	if err != nil || !ok {
		return models.User{}, false, false, err
	}

	s.setToken(rec.Token)
	s.setUser(&rec.User)

	if rec.MasterSecret == "" {
		return rec.User, true, true, nil
	}
	if err := s.sessions.Open(ctx, rec.User.ID, rec.MasterSecret); err != nil {
		s.log.Warn(ctx, "remembered secret rejected", "user_id", rec.User.ID, "error", err)
		return rec.User, true, true, nil
	}
	return rec.User, true, false, nil
}

// Unlock opens a session for the current user, e.g. after Restore or Lock.
func (s *Service) Unlock(ctx context.Context, masterSecret string) error {
	u, err := s.requireUser()
	if err != nil {
		return err
	}
	return s.sessions.Open(ctx, u.ID, masterSecret)
}

// Lock closes the session but keeps the user signed in.
func (s *Service) Lock(ctx context.Context) {
	u, ok := s.Current()
	if !ok {
		return
	}
	s.sessions.Close(ctx, u.ID)
	s.runHooks(ctx, false)
	s.log.Info(ctx, "locked", "user_id", u.ID)
}

// Logout closes the session, clears the stores through the registered hooks
// and forgets the remembered session. It always succeeds.
func (s *Service) Logout(ctx context.Context) {
	u, ok := s.Current()
	if !ok {
		return
	}

	s.sessions.Close(ctx, u.ID)
	s.setUser(nil)
	s.runHooks(ctx, true)

	if err := s.creds.Forget(ctx, u.ID); err != nil {
		s.log.Warn(ctx, "remembered session not removed", "error", err)
	}
	s.setToken("")
	s.log.Info(ctx, "signed out", "user_id", u.ID)
}

func (s *Service) runHooks(ctx context.Context, logout bool) {
	s.mu.RLock()
	hooks := append([]Hook(nil), s.lockHooks...)
	if logout {
		hooks = append(hooks, s.logoutHooks...)
	}
	s.mu.RUnlock()

	for _, h := range hooks {
		h(ctx)
	}
}

type recoverParams struct {
	Username    string `json:"username" validate:"required"`
	MasterKey   string `json:"masterKey" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// RecoverPassword sets a new password for username, proven by the master
// secret. Nobody needs to be signed in.
func (s *Service) RecoverPassword(ctx context.Context, username, masterSecret, newPassword string) error {
	p := recoverParams{Username: username, MasterKey: masterSecret, NewPassword: newPassword}
	if err := models.Validate(p); err != nil {
		return fmt.Errorf("recover password: %w: %v", gateway.ErrValidation, err)
	}
	return s.gw.Call(ctx, common.CmdRecoverPassword, p, nil)
}

type changePasswordParams struct {
	UserID      int64  `json:"userId"`
	MasterKey   string `json:"masterKey" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (s *Service) ChangePassword(ctx context.Context, masterSecret, newPassword string) error {
	u, err := s.requireUser()
	if err != nil {
		return err
	}
	p := changePasswordParams{UserID: u.ID, MasterKey: masterSecret, NewPassword: newPassword}
	if err := models.Validate(p); err != nil {
		return fmt.Errorf("change password: %w: %v", gateway.ErrValidation, err)
	}
	return s.gw.Call(ctx, common.CmdChangePassword, p, nil)
}

type userParams struct {
	UserID int64 `json:"userId"`
}

// DeleteAccount deletes the current user on the gateway and logs out.
func (s *Service) DeleteAccount(ctx context.Context) error {
	u, err := s.requireUser()
	if err != nil {
		return err
	}
	if err := s.gw.Call(ctx, common.CmdDeleteUser, userParams{UserID: u.ID}, nil); err != nil {
		return err
	}
	s.Logout(ctx)
	return nil
}

// UpdateAvatar persists the avatar change and then applies it locally.
func (s *Service) UpdateAvatar(ctx context.Context, avatar models.ImageUpdate) error {
	u, err := s.requireUser()
	if err != nil {
		return err
	}
	if avatar.IsUnchanged() {
		return nil
	}

	params := map[string]any{"userId": u.ID}
	if err := avatar.AddTo(params, "avatar"); err != nil {
		return fmt.Errorf("update avatar: %w: %v", gateway.ErrValidation, err)
	}
	if err := s.gw.Call(ctx, common.CmdUpdateAvatar, params, nil); err != nil {
		return err
	}

	s.mu.Lock()
	if s.user != nil && s.user.ID == u.ID {
		s.user.Avatar = avatar.Apply(s.user.Avatar)
	}
	s.mu.Unlock()
	return nil
}

// LoadAvatar fetches the avatar data URL (nil when unset) and caches it on
// the current user.
func (s *Service) LoadAvatar(ctx context.Context) (*string, error) {
	u, err := s.requireUser()
	if err != nil {
		return nil, err
	}

	var avatar *string
	if err := s.gw.Call(ctx, common.CmdGetUserAvatar, userParams{UserID: u.ID}, &avatar); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.user != nil && s.user.ID == u.ID {
		s.user.Avatar = avatar
	}
	s.mu.Unlock()
	return avatar, nil
}

func (s *Service) token() string {
	if th, ok := s.gw.(gateway.TokenHolder); ok {
		return th.AccessToken()
	}
	return ""
}

func (s *Service) setToken(token string) {
	if th, ok := s.gw.(gateway.TokenHolder); ok {
		th.SetAccessToken(token)
	}
}
