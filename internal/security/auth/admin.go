package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"
)

// AdminGate checks HTTP Basic credentials against the single configured
// administrator pair. It is a static shared-secret check, independent of
// tenants and of the token subsystem.
type AdminGate struct {
	usernameHash [32]byte
	passwordHash [32]byte
}

// NewAdminGate builds the gate from the configured credentials. Empty
// credentials are a configuration error; running without an admin gate
// is never an option.
func NewAdminGate(username, password string) (*AdminGate, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, errors.New("admin username and password must not be empty")
	}
	return &AdminGate{
		usernameHash: sha256.Sum256([]byte(username)),
		passwordHash: sha256.Sum256([]byte(password)),
	}, nil
}

// Check reports whether the supplied credentials match the configured
// pair. Both fields are compared in constant time over fixed-length
// digests, and the results are combined without short-circuiting, so
// response timing does not reveal which field was wrong.
func (g *AdminGate) Check(username, password string) bool {
	suppliedUser := sha256.Sum256([]byte(username))
	suppliedPass := sha256.Sum256([]byte(password))
	userOK := subtle.ConstantTimeCompare(g.usernameHash[:], suppliedUser[:])
	passOK := subtle.ConstantTimeCompare(g.passwordHash[:], suppliedPass[:])
	return userOK&passOK == 1
}
