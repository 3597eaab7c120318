// Package cli provides the interactive VaultKeeper command-line client.
//
// NewApp is the composition root: it opens the local database, the gateway
// connection and the secret store, and wires the session manager, identity
// service, vault store and note store together. Run restores a remembered
// login, starts the connectivity watcher and blocks in the REPL until the
// user exits.
//
// Vaults, collections and notes are addressed by the 1-based numbers shown
// by the "vaults" and "notes" listings.
package cli
