// Package session owns the lifecycle of the gateway-side decryption session
// that binds a user's master secret to the running client.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
)

// ErrNotOpen is returned by RequireOpen when no session is open for the user.
var ErrNotOpen = errors.New("session not open")

// Session describes the open session. The master secret itself is never kept.
type Session struct {
	UserID              int64
	MasterSecretPresent bool
}

// Guard is consulted before any decrypting read.
type Guard interface {
	RequireOpen(userID int64) error
}

type Manager struct {
	gw  gateway.Gateway
	log logging.Logger

	mu      sync.RWMutex
	current *Session
}

func NewManager(gw gateway.Gateway, log logging.Logger) *Manager {
	return &Manager{gw: gw, log: log.With("component", "session")}
}

type initSessionParams struct {
	UserID    int64  `json:"userId"`
	MasterKey string `json:"masterKey"`
}

type logoutParams struct {
	UserID int64 `json:"userId"`
}

// Open binds masterSecret to userID on the gateway. Any previously open
// session is dropped first, so a failed Open leaves no session at all.
// Failures are not retried.
func (m *Manager) Open(ctx context.Context, userID int64, masterSecret string) error {
	if masterSecret == "" {
		return fmt.Errorf("open session: %w: empty master secret", gateway.ErrValidation)
	}

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	err := m.gw.Call(ctx, common.CmdInitSession, initSessionParams{UserID: userID, MasterKey: masterSecret}, nil)
	if err != nil {
		m.log.Warn(ctx, "session rejected", "user_id", userID, "error", err)
		return fmt.Errorf("open session: %w", err)
	}

	m.mu.Lock()
	m.current = &Session{UserID: userID, MasterSecretPresent: true}
	m.mu.Unlock()

	m.log.Info(ctx, "session opened", "user_id", userID)
	return nil
}

// Close invalidates the gateway-side session. It always succeeds from the
// caller's point of view; gateway errors are only logged.
func (m *Manager) Close(ctx context.Context, userID int64) {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.gw.Call(ctx, common.CmdLogout, logoutParams{UserID: userID}, nil); err != nil {
		m.log.Warn(ctx, "logout failed", "user_id", userID, "error", err)
		return
	}
	m.log.Info(ctx, "session closed", "user_id", userID)
}

func (m *Manager) IsOpen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

func (m *Manager) RequireOpen(userID int64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || m.current.UserID != userID {
		return ErrNotOpen
	}
	return nil
}
