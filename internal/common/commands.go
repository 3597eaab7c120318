package common

// Command names understood by the backend gateway. Parameters are passed
// as a JSON object with camelCase keys.
const (
	CmdPing            = "ping"
	CmdLogin           = "login"
	CmdRegister        = "register"
	CmdRecoverPassword = "recover_password"
	CmdChangePassword  = "change_password"
	CmdDeleteUser      = "delete_user"

	CmdInitSession = "init_session"
	CmdLogout      = "logout"

	CmdGetUserAvatar = "get_user_avatar"
	CmdUpdateAvatar  = "update_avatar"

	CmdGetVaults           = "get_vaults"
	CmdCreateVault         = "create_vault"
	CmdUpdateVault         = "update_vault"
	CmdUpdateVaultPosition = "update_vault_position"
	CmdDeleteVault         = "delete_vault"

	CmdGetCollections   = "get_collections"
	CmdCreateCollection = "create_collection"
	CmdUpdateCollection = "update_collection"
	CmdDeleteCollection = "delete_collection"

	CmdGetNotesDecrypted  = "get_notes_decrypted"
	CmdCreateNote         = "create_note"
	CmdUpdateNote         = "update_note"
	CmdUpdateNotePosition = "update_note_position"
	CmdDeleteNote         = "delete_note"
)

// PublicCommands can be invoked without an access token.
var PublicCommands = map[string]struct{}{
	CmdPing:            {},
	CmdLogin:           {},
	CmdRegister:        {},
	CmdRecoverPassword: {},
}

// IsPublicCommand reports whether cmd may be called anonymously.
func IsPublicCommand(cmd string) bool {
	_, ok := PublicCommands[cmd]
	return ok
}
