// Package credstore remembers a signed-in user between runs of the client.
// The record (user, access token) lives in the local metadata table with an
// expiry; the master secret, if kept at all, goes to a SecretStore.
package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
)

const recordKey = "remembered_session"

type Remembered struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	// MasterSecret is filled from the SecretStore on Load, never serialized.
	MasterSecret string `json:"-"`
}

type Store struct {
	meta    metadata.Repository
	secrets SecretStore
	log     logging.Logger
	ttl     time.Duration
	now     func() time.Time
}

func New(meta metadata.Repository, secrets SecretStore, log logging.Logger) *Store {
	if secrets == nil {
		secrets = None{}
	}
	return &Store{
		meta:    meta,
		secrets: secrets,
		log:     log.With("component", "credstore"),
		ttl:     common.RememberedSessionTTL,
		now:     time.Now,
	}
}

func account(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Save remembers user and token for the configured TTL.
func (s *Store) Save(ctx context.Context, user models.User, token, masterSecret string) error {
	rec := Remembered{User: user, Token: token, ExpiresAt: s.now().Add(s.ttl)}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("remember session: %w", err)
	}
	if err := s.meta.SetWithExpiry(ctx, recordKey, b, rec.ExpiresAt); err != nil {
		return fmt.Errorf("remember session: %w", err)
	}
	if err := s.secrets.Put(account(user.ID), masterSecret); err != nil {
		s.log.Warn(ctx, "master secret not stored", "error", err)
	}
	return nil
}

// Load returns the remembered session. ok is false when there is none, it
// has expired or it cannot be read; unreadable records are deleted.
func (s *Store) Load(ctx context.Context) (Remembered, bool, error) {
	b, err := s.meta.Get(ctx, recordKey)
	if err != nil {
		return Remembered{}, false, fmt.Errorf("restore session: %w", err)
	}
	if b == nil {
		return Remembered{}, false, nil
	}

	var rec Remembered
	if err := json.Unmarshal(b, &rec); err != nil || rec.User.ID == 0 || rec.Token == "" {
		s.log.Warn(ctx, "dropping unreadable remembered session")
		return Remembered{}, false, s.meta.Delete(ctx, recordKey)
	}
	if !rec.ExpiresAt.After(s.now()) {
		return Remembered{}, false, s.Forget(ctx, rec.User.ID)
	}

	secret, err := s.secrets.Get(account(rec.User.ID))
	if err == nil {
		rec.MasterSecret = secret
	}
	return rec, true, nil
}

// Forget removes the record and any stored secret of userID.
func (s *Store) Forget(ctx context.Context, userID int64) error {
	if err := s.meta.Delete(ctx, recordKey); err != nil {
		return fmt.Errorf("forget session: %w", err)
	}
	if userID != 0 {
		if err := s.secrets.Delete(account(userID)); err != nil {
			return fmt.Errorf("forget session: %w", err)
		}
	}
	return nil
}
