package identity

import (
	"context"
	"errors"
)

// Native provider errors. The auth service maps these onto the
// application error taxonomy at its boundary.
var (
	ErrEmailInUse    = errors.New("identity: email already in use")
	ErrInvalidEmail  = errors.New("identity: invalid email")
	ErrWeakPassword  = errors.New("identity: weak password")
	ErrNotFound      = errors.New("identity: credential not found")
	ErrWrongPassword = errors.New("identity: wrong password")
)

// Provider is the identity collaborator the core depends on: credential
// creation and verification plus out-of-band password reset delivery.
// Session issuance and invalidation live in the session store.
type Provider interface {
	// CreateCredential registers a credential and returns the stable
	// identity identifier.
	CreateCredential(ctx context.Context, email, password string) (string, error)
	// VerifyCredential validates a login attempt and returns the
	// identity identifier on success.
	VerifyCredential(ctx context.Context, email, password string) (string, error)
	// SendResetEmail triggers the provider's out-of-band reset email.
	SendResetEmail(ctx context.Context, email string) error
}
