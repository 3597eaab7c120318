package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/images"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultService_RequiresSession(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.signIn(t, "alice")
	e.users.Logout(ctx, id)

	_, err := e.vaults.List(ctx, id)
	assert.ErrorIs(t, err, common.ErrSessionNotInitialized)
	_, err = e.vaults.Create(ctx, id, "Work", "info")
	assert.ErrorIs(t, err, common.ErrSessionNotInitialized)
	assert.ErrorIs(t, e.vaults.Update(ctx, id, "v", "n", "info", models.ImageChange{}), common.ErrSessionNotInitialized)
	assert.ErrorIs(t, e.vaults.UpdatePosition(ctx, id, "v", 1), common.ErrSessionNotInitialized)
	assert.ErrorIs(t, e.vaults.Delete(ctx, id, "v"), common.ErrSessionNotInitialized)
}

func TestVaultService_CreateListEncryptsNames(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.signIn(t, "alice")

	a, err := e.vaults.Create(ctx, id, "Personal", "pink")
	require.NoError(t, err)
	b, err := e.vaults.Create(ctx, id, "Work", "info")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Position)
	assert.Equal(t, 1, b.Position)
	assert.Equal(t, "Work", b.Name)
	assert.NotZero(t, b.CreatedAt)

	var stored string
	require.NoError(t, e.db.QueryRow(`SELECT name FROM vaults WHERE id = ?`, a.ID).Scan(&stored))
	assert.NotContains(t, stored, "Personal")

	require.NoError(t, e.vaults.UpdatePosition(ctx, id, a.ID, 2))

	list, err := e.vaults.List(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Work", list[0].Name)
	assert.Equal(t, "Personal", list[1].Name)
	assert.Equal(t, 2, list[1].Position)

	// another user sees nothing and cannot touch the vault
	other := e.signIn(t, "bob")
	theirs, err := e.vaults.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, theirs)
	assert.ErrorIs(t, e.vaults.UpdatePosition(ctx, other, a.ID, 0), common.ErrorNotFound)
	assert.ErrorIs(t, e.vaults.Delete(ctx, other, a.ID), common.ErrorNotFound)
}

func TestVaultService_UpdateImage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.signIn(t, "alice")

	v, err := e.vaults.Create(ctx, id, "Work", "info")
	require.NoError(t, err)

	require.NoError(t, e.vaults.Update(ctx, id, v.ID, "Office", "orange", models.ImageChange{Present: true, Data: []byte{1, 2, 3}}))

	sealed, err := e.images.Get(ctx, images.VaultKey(v.ID))
	require.NoError(t, err)
	assert.NotEqual(t, []byte{1, 2, 3}, sealed, "images are encrypted at rest")

	list, err := e.vaults.List(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, list[0].Image)
	assert.Equal(t, "data:image/webp;base64,AQID", *list[0].Image)
	assert.Equal(t, "Office", list[0].Name)
	assert.Equal(t, "orange", list[0].Color)

	// unchanged keeps the image
	require.NoError(t, e.vaults.Update(ctx, id, v.ID, "Office", "orange", models.ImageChange{}))
	list, err = e.vaults.List(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, list[0].Image)

	require.NoError(t, e.vaults.Update(ctx, id, v.ID, "Office", "orange", models.ImageChange{Present: true}))
	list, err = e.vaults.List(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, list[0].Image)
	_, err = e.images.Get(ctx, images.VaultKey(v.ID))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, e.vaults.Update(ctx, id, "missing", "x", "info", models.ImageChange{}), common.ErrorNotFound)
}

func TestVaultService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.signIn(t, "alice")

	v, err := e.vaults.Create(ctx, id, "Work", "info")
	require.NoError(t, err)
	keep, err := e.vaults.Create(ctx, id, "Home", "pink")
	require.NoError(t, err)
	require.NoError(t, e.vaults.Update(ctx, id, v.ID, "Work", "info", models.ImageChange{Present: true, Data: []byte{9}}))

	_, err = e.notes.Create(ctx, id, v.ID, "a", "1")
	require.NoError(t, err)
	kept, err := e.notes.Create(ctx, id, keep.ID, "b", "2")
	require.NoError(t, err)

	c, err := e.collections.Create(ctx, id, "Group")
	require.NoError(t, err)
	c.VaultIDs = []string{v.ID, keep.ID}
	require.NoError(t, e.collections.Update(ctx, id, *c))

	require.NoError(t, e.vaults.Delete(ctx, id, v.ID))

	vs, err := e.vaults.List(ctx, id)
	require.NoError(t, err)
	require.Len(t, vs, 1)

	_, err = e.notes.ListDecrypted(ctx, id, v.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	ns, err := e.notes.ListDecrypted(ctx, id, keep.ID)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, kept.ID, ns[0].ID)

	var orphans int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM notes WHERE vault_id = ?`, v.ID).Scan(&orphans))
	assert.Zero(t, orphans)

	cs, err := e.collections.List(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, cs[0].VaultIDs)

	_, err = e.images.Get(ctx, images.VaultKey(v.ID))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, e.vaults.Delete(ctx, id, v.ID), common.ErrorNotFound)
}

func TestVaultService_UnicodeNames(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	id := e.signIn(t, "alice")

	name := strings.Repeat("ключ ", 10)
	_, err := e.vaults.Create(ctx, id, name, "info")
	require.NoError(t, err)

	list, err := e.vaults.List(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, name, list[0].Name)
}
