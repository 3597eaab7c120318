// Package common contains shared constants and sentinel errors used across
// VaultKeeper components.
package common

import "time"

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// GatewayInvokeMethod is the full gRPC method name of the command endpoint.
const GatewayInvokeMethod = "/vaultkeeper.gateway.v1.Gateway/Invoke"

// RememberedSessionTTL is how long a "remember me" login stays valid.
const RememberedSessionTTL = 7 * 24 * time.Hour

// DefaultIdleTimeout marks a user inactive after this much time without input.
const DefaultIdleTimeout = 60 * time.Minute
