// Package models defines the client-side domain records mirrored from the
// Backend Gateway (users, vaults, collections, notes) together with the
// small value types shared by the stores: wire timestamps, the image update
// tri-state and the Access-Note codec.
package models
