package vaults

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway/gatewaytest"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/identity"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/notes"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alwaysOpen struct{}

func (alwaysOpen) RequireOpen(int64) error { return nil }

func TestDeleteSelectedVault_ClearsNoteStore(t *testing.T) {
	gw := gatewaytest.New().
		Return(common.CmdGetNotesDecrypted, []models.Note{{ID: "n1", VaultID: "v1"}, {ID: "n2", VaultID: "v1"}}, nil)
	user := identity.StaticProvider(1)
	log := logging.NewNopLogger()

	ns := notes.NewStore(gw, user, alwaysOpen{}, log)
	vs := NewStore(gw, user, ns, log)
	vs.vaults = []models.Vault{{ID: "v1"}, {ID: "v2"}}
	vs.collections = []models.Collection{{ID: "c", Name: "C", VaultIDs: []string{"v1", "v2"}}}
	ctx := context.Background()

	require.NoError(t, ns.SelectVault(ctx, "v1"))
	require.Len(t, ns.Notes(), 2)

	// a failed delete changes neither store
	gw.Return(common.CmdDeleteVault, nil, gateway.ErrBackendUnavailable)
	require.Error(t, vs.DeleteVault(ctx, "v1"))
	assert.Equal(t, "v1", ns.SelectedVaultID())
	assert.Len(t, ns.Notes(), 2)

	gw.Return(common.CmdDeleteVault, nil, nil)
	require.NoError(t, vs.DeleteVault(ctx, "v1"))

	assert.Equal(t, "", ns.SelectedVaultID())
	assert.Empty(t, ns.Notes())
	assert.Empty(t, ns.LockedIDs())
	assert.Equal(t, []string{"v2"}, vs.Collections()[0].VaultIDs)
}
