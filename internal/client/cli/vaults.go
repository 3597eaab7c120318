package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/gateway"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/ordering"
)

func (a *App) loadVaults(ctx context.Context) {
	id, ok := a.identity.UserID()
	if !ok || !a.isUnlocked() {
		return
	}
	if err := a.vaults.LoadAll(ctx, id); err != nil {
		a.reportError(err)
		return
	}
	a.printf("%d vault(s) loaded. Type 'vaults' to list them.\n", len(a.vaults.Vaults()))
}

// vaultList returns vaults in display order: collection members first, in
// collection order, then unassigned vaults.
func (a *App) vaultList() []models.Vault {
	var out []models.Vault
	for _, c := range a.vaults.Collections() {
		out = append(out, a.vaults.VaultsIn(c.ID)...)
	}
	return append(out, a.vaults.UnassignedVaults()...)
}

// index parses a 1-based list number into a 0-based index below n.
func index(arg string, n int) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("%w: no item #%s", gateway.ErrValidation, arg)
	}
	return i - 1, nil
}

func (a *App) vaultArg(args []string, pos int) (models.Vault, error) {
	if len(args) <= pos {
		return models.Vault{}, errUsage
	}
	list := a.vaultList()
	i, err := index(args[pos], len(list))
	if err != nil {
		return models.Vault{}, err
	}
	return list[i], nil
}

func (a *App) collectionArg(args []string, pos int) (models.Collection, error) {
	if len(args) <= pos {
		return models.Collection{}, errUsage
	}
	list := a.vaults.Collections()
	i, err := index(args[pos], len(list))
	if err != nil {
		return models.Collection{}, err
	}
	return list[i], nil
}

func (a *App) ListVaults(_ context.Context, _ []string) error {
	n := 0
	printVault := func(v models.Vault) {
		n++
		extra := ""
		if v.Image != nil {
			extra = " " + Muted.Sprint("image")
		}
		a.printf("    %d. %s%s\n", n, VaultName(v.Name, v.Color), extra)
	}

	cols := a.vaults.Collections()
	for i, c := range cols {
		a.printf("[%d] %s\n", i+1, Info.Sprint(c.Name))
		for _, v := range a.vaults.VaultsIn(c.ID) {
			printVault(v)
		}
	}
	unassigned := a.vaults.UnassignedVaults()
	if len(cols) > 0 && len(unassigned) > 0 {
		a.println(Muted.Sprint("unassigned"))
	}
	for _, v := range unassigned {
		printVault(v)
	}
	if n == 0 && len(cols) == 0 {
		a.println("No vaults yet. Use 'vault-add' to create one.")
	}
	if a.vaults.Dirty() {
		a.println(Warning.Sprint("Order was not fully saved; 'reload' to see what the gateway has."))
	}
	return nil
}

func (a *App) Reload(ctx context.Context, _ []string) error {
	id, _ := a.identity.UserID()
	if err := a.vaults.LoadAll(ctx, id); err != nil {
		return err
	}
	if vid := a.notes.SelectedVaultID(); vid != "" {
		if err := a.notes.LoadNotes(ctx, vid); err != nil {
			return err
		}
	}
	return a.ListVaults(ctx, nil)
}

func (a *App) AddVault(ctx context.Context, _ []string) error {
	name, err := a.ask("Vault name")
	if err != nil {
		return err
	}
	colour, err := a.ask("Colour (" + strings.Join(models.Colors, ", ") + ") [" + models.DefaultColor + "]")
	if err != nil {
		return err
	}
	if colour == "" {
		colour = models.DefaultColor
	}
	collection, err := a.ask("Collection (empty for none)")
	if err != nil {
		return err
	}

	v, err := a.vaults.CreateVault(ctx, name, colour, collection)
	if err != nil && v.ID == "" {
		return err
	}
	a.printf("Vault %s created.\n", VaultName(v.Name, v.Color))
	return err
}

func (a *App) EditVault(ctx context.Context, args []string) error {
	v, err := a.vaultArg(args, 0)
	if err != nil {
		return err
	}
	name, err := a.ask(fmt.Sprintf("Name [%s]", v.Name))
	if err != nil {
		return err
	}
	colour, err := a.ask(fmt.Sprintf("Colour [%s]", v.Color))
	if err != nil {
		return err
	}
	if name != "" {
		v.Name = name
	}
	if colour != "" {
		v.Color = colour
	}
	return a.vaults.UpdateVault(ctx, v, models.ImageUnchanged)
}

func (a *App) VaultImage(ctx context.Context, args []string) error {
	v, err := a.vaultArg(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errUsage
	}
	update, err := imageArg(args[1])
	if err != nil {
		return err
	}
	return a.vaults.UpdateVault(ctx, v, update)
}

func (a *App) DeleteVault(ctx context.Context, args []string) error {
	v, err := a.vaultArg(args, 0)
	if err != nil {
		return err
	}
	if !Confirm(a.reader, fmt.Sprintf("Delete vault %q and all its notes?", v.Name), a.out) {
		return nil
	}
	if err := a.vaults.DeleteVault(ctx, v.ID); err != nil {
		return err
	}
	a.println("Vault deleted.")
	return nil
}

// MoveVault moves a vault within its group: inside its collection, or among
// the unassigned vaults. to# counts within that group.
func (a *App) MoveVault(ctx context.Context, args []string) error {
	v, err := a.vaultArg(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errUsage
	}

	if c, ok := a.vaults.CollectionOf(v.ID); ok {
		to, err := index(args[1], len(c.VaultIDs))
		if err != nil {
			return err
		}
		from := indexOf(c.VaultIDs, v.ID)
		ids, err := ordering.Move(c.VaultIDs, from, to)
		if err != nil {
			return fmt.Errorf("%w: %v", gateway.ErrValidation, err)
		}
		return a.vaults.ReorderVaultsInCollection(ctx, c.ID, ids)
	}

	group := a.vaults.UnassignedVaults()
	to, err := index(args[1], len(group))
	if err != nil {
		return err
	}
	moved, err := ordering.Move(group, indexOf(ordering.IDs(group), v.ID), to)
	if err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrValidation, err)
	}
	return a.vaults.ReorderVaults(ctx, moved)
}

func indexOf(ids []string, id string) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}
	return -1
}

// AssignVault files a vault into a collection, or with "-" unassigns it.
func (a *App) AssignVault(ctx context.Context, args []string) error {
	v, err := a.vaultArg(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errUsage
	}
	collectionID := ""
	if args[1] != "-" {
		c, err := a.collectionArg(args, 1)
		if err != nil {
			return err
		}
		collectionID = c.ID
	}
	return a.vaults.MoveVaultToCollection(ctx, v.ID, collectionID)
}

func (a *App) AddCollection(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	c, err := a.vaults.CreateCollection(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	a.printf("Collection %s created.\n", Highlight.Sprint(c.Name))
	return nil
}

func (a *App) RenameCollection(ctx context.Context, args []string) error {
	c, err := a.collectionArg(args, 0)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errUsage
	}
	c.Name = strings.Join(args[1:], " ")
	return a.vaults.UpdateCollection(ctx, c)
}

func (a *App) DeleteCollection(ctx context.Context, args []string) error {
	c, err := a.collectionArg(args, 0)
	if err != nil {
		return err
	}
	if !Confirm(a.reader, fmt.Sprintf("Delete collection %q? Its vaults are kept.", c.Name), a.out) {
		return nil
	}
	return a.vaults.DeleteCollection(ctx, c.ID)
}

func (a *App) MoveCollection(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	cols := a.vaults.Collections()
	from, err := index(args[0], len(cols))
	if err != nil {
		return err
	}
	to, err := index(args[1], len(cols))
	if err != nil {
		return err
	}
	moved, err := ordering.Move(cols, from, to)
	if err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrValidation, err)
	}
	return a.vaults.ReorderCollections(ctx, moved)
}
