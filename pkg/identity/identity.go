package identity

import (
	"context"
	"errors"
)

// Identity is an authenticated user's stable reference plus display name.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"username"`
	Email       string `json:"email"`
}

// Source exposes the identity of the active session. The sync adapters hold
// a Source at construction and read it at delivery time; nothing downstream
// of a Source ever mutates the identity.
type Source interface {
	Current() (Identity, bool)
}

// Provider authenticates credentials and tracks the active session.
type Provider interface {
	Source
	SignUp(ctx context.Context, email, password, displayName string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
}

var (
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrEmailTaken         = errors.New("identity: email already registered")
	ErrMissingFields      = errors.New("identity: email and password are required")
	ErrNotSignedIn        = errors.New("identity: not signed in")
)

// Static is a fixed identity Source for tests and tooling.
type Static struct {
	Identity Identity
}

func (s Static) Current() (Identity, bool) {
	return s.Identity, s.Identity.ID != ""
}
