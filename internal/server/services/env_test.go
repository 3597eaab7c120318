package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/images"
	imagerepo "github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/images"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/repotest"
	"github.com/stretchr/testify/require"
)

type env struct {
	db          *sql.DB
	sessions    *SessionService
	images      images.Store
	users       *UserService
	vaults      *VaultService
	collections *CollectionService
	notes       *NoteService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := repotest.OpenSQLite(t)
	rm := repomanager.NewSQLRepositoryManager(dbx.SQLite)
	log := logging.NewNopLogger()
	sessions := NewSessionService(time.Hour)
	img := images.NewDBStore(db, func(db *sql.DB) imagerepo.Repository { return rm.Images(db) })
	cfg := &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour}

	return &env{
		db:          db,
		sessions:    sessions,
		images:      img,
		users:       NewUserService(db, rm, sessions, img, log, cfg),
		vaults:      NewVaultService(db, rm, sessions, img, log),
		collections: NewCollectionService(db, rm, sessions, log),
		notes:       NewNoteService(db, rm, sessions, log),
	}
}

// signIn registers a user and opens its session.
func (e *env) signIn(t *testing.T, username string) int64 {
	t.Helper()
	ctx := context.Background()

	p, _, err := e.users.Register(ctx, username, "pw", "master")
	require.NoError(t, err)
	require.NoError(t, e.users.InitSession(ctx, p.ID, "master"))
	return p.ID
}
