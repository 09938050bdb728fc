package domain

import "errors"

var (
	// ErrInvalidCredentials covers every authentication failure: unknown
	// user, unknown tenant, wrong password, bad or expired token. Callers
	// must not be able to tell which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserDisabled means the credentials were valid but the account is
	// disabled. This is deliberately distinguishable from
	// ErrInvalidCredentials.
	ErrUserDisabled = errors.New("inactive user")

	// ErrNotFound is returned by administrative reads and deletes when the
	// addressed tenant, user or role does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by administrative creates on a name
	// collision.
	ErrAlreadyExists = errors.New("already exists")
)
