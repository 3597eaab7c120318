// Package gateway is the client side of the Backend Gateway command boundary.
//
// Every read or write the client performs is a named command with a JSON
// params object and an optional JSON result:
//
//	var vaults []models.Vault
//	err := gw.Call(ctx, common.CmdGetVaults, map[string]any{"userId": id}, &vaults)
//
// Errors are normalised into four sentinels (ErrAuthFailure, ErrNotFound,
// ErrBackendUnavailable, ErrValidation) and wrapped with the command name,
// so callers match them with errors.Is.
//
// GRPCGateway is the production transport. Tests use gatewaytest.Recorder.
package gateway
