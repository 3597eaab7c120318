package gateway

import (
	"context"
	"errors"
)

var (
	ErrAuthFailure        = errors.New("authentication failed")
	ErrNotFound           = errors.New("not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrValidation         = errors.New("validation failed")
)

// Gateway invokes a backend command. params must encode to a JSON object (or
// be nil); the result is decoded into out unless out is nil.
type Gateway interface {
	Call(ctx context.Context, command string, params any, out any) error
}

// TokenHolder is implemented by transports that carry an access token issued
// by login/register, so that a remembered session can be restored later.
type TokenHolder interface {
	AccessToken() string
	SetAccessToken(token string)
}
