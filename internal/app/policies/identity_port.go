package policies

import (
	"context"
	"errors"
)

var ErrUnauthenticated = errors.New("identity: no caller identity")

// Caller is the identity supplied by the external session collaborator.
type Caller struct {
	UserID string
	Email  string
}

// IdentityPort resolves an opaque bearer token to a caller.
type IdentityPort interface {
	Resolve(ctx context.Context, token string) (Caller, error)
}
