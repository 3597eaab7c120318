package cli

func (a *App) commands() []command {
	return []command{
		{name: "register", usage: "register", access: anonymous, run: a.Register},
		{name: "login", usage: "login", access: anonymous, run: a.Login},
		{name: "recover", usage: "recover", access: anonymous, run: a.RecoverPassword},

		{name: "unlock", usage: "unlock", access: signedIn, run: a.Unlock},
		{name: "lock", usage: "lock", access: unlocked, run: a.Lock},
		{name: "logout", usage: "logout", access: signedIn, run: a.Logout},
		{name: "whoami", usage: "whoami", access: signedIn, run: a.WhoAmI},
		{name: "passwd", usage: "passwd", access: signedIn, run: a.ChangePassword},
		{name: "avatar", usage: "avatar [<image file> | -]", access: signedIn, run: a.Avatar},
		{name: "delete-account", usage: "delete-account", access: signedIn, run: a.DeleteAccount},

		{name: "vaults", aliases: []string{"v"}, usage: "vaults", access: unlocked, run: a.ListVaults},
		{name: "reload", usage: "reload", access: unlocked, run: a.Reload},
		{name: "vault-add", usage: "vault-add", access: unlocked, run: a.AddVault},
		{name: "vault-edit", usage: "vault-edit <vault#>", access: unlocked, run: a.EditVault},
		{name: "vault-image", usage: "vault-image <vault#> <image file | ->", access: unlocked, run: a.VaultImage},
		{name: "vault-delete", usage: "vault-delete <vault#>", access: unlocked, run: a.DeleteVault},
		{name: "vault-move", usage: "vault-move <vault#> <to#>", access: unlocked, run: a.MoveVault},
		{name: "assign", usage: "assign <vault#> <collection# | ->", access: unlocked, run: a.AssignVault},

		{name: "col-add", usage: "col-add <name>", access: unlocked, run: a.AddCollection},
		{name: "col-rename", usage: "col-rename <collection#> <name>", access: unlocked, run: a.RenameCollection},
		{name: "col-delete", usage: "col-delete <collection#>", access: unlocked, run: a.DeleteCollection},
		{name: "col-move", usage: "col-move <collection#> <to#>", access: unlocked, run: a.MoveCollection},

		{name: "open", usage: "open <vault#>", access: unlocked, run: a.OpenVault},
		{name: "close", usage: "close", access: unlocked, run: a.CloseVault},
		{name: "notes", aliases: []string{"n", "l", "list"}, usage: "notes", access: unlocked, run: a.ListNotes},
		{name: "note-add", usage: "note-add [access]", access: unlocked, run: a.AddNote},
		{name: "note-edit", usage: "note-edit <note#>", access: unlocked, run: a.EditNote},
		{name: "note-delete", usage: "note-delete <note#>", access: unlocked, run: a.DeleteNote},
		{name: "note-move", usage: "note-move <note#> <to#>", access: unlocked, run: a.MoveNote},
		{name: "show", usage: "show <note#>", access: unlocked, run: a.ShowNote},
		{name: "hide", usage: "hide [<note#>]", access: unlocked, run: a.HideNote},
	}
}
