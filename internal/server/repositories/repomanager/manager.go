package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/collections"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/images"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/notes"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/vaults"
)

// RepositoryManager vends repositories bound to a *sql.DB or *sql.Tx, so
// services can run several of them inside one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Vaults(db dbx.DBTX) vaults.Repository
	Collections(db dbx.DBTX) collections.Repository
	Notes(db dbx.DBTX) notes.Repository
	Images(db dbx.DBTX) images.Repository
}
