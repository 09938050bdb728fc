package domain

import (
	"context"
	"time"
)

// Tenant is the isolation boundary. Every user and role belongs to exactly
// one tenant, and the tenant name is the stable external key.
type Tenant struct {
	ID        string // UUID
	Name      string // Unique tenant name
	CreatedAt time.Time
}

// Role groups permission scopes within a tenant.
type Role struct {
	ID        string // UUID
	Name      string // Unique within tenant
	Scopes    []string
	Tenant    string // Owning tenant name
	CreatedAt time.Time
}

// User represents an account within a tenant. Username is the login
// identifier; tenant name plus username form the real identity key.
type User struct {
	ID           string // UUID
	Username     string // Unique within tenant
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string // Bcrypt hashed password (never returned in API)
	Disabled     bool
	Tenant       Tenant
	Roles        []Role
	CreatedAt    time.Time
}

// LookupField selects which user attribute a directory lookup matches on.
type LookupField string

const (
	ByUsername LookupField = "username"
	ByEmail    LookupField = "email"
)

// UserDirectory is the read side of the user store consumed by the
// authentication core. FindUser returns (nil, nil) when no user matches;
// implementations must never return a user from a different tenant than
// the one requested.
type UserDirectory interface {
	FindUser(ctx context.Context, tenant, key string, by LookupField) (*User, error)
}

// DirectoryAdmin is the write counterpart of UserDirectory, used by the
// administrative endpoints.
type DirectoryAdmin interface {
	CreateTenant(ctx context.Context, name string) (*Tenant, error)
	GetTenant(ctx context.Context, name string) (*Tenant, error)
	ListTenants(ctx context.Context) ([]*Tenant, error)
	RenameTenant(ctx context.Context, name, newName string) error
	DeleteTenant(ctx context.Context, name string) error

	CreateUser(ctx context.Context, user *User, roleNames []string) error
	GetUser(ctx context.Context, tenant, username string) (*User, error)
	ListUsers(ctx context.Context, tenant string) ([]*User, error)
	DeleteUser(ctx context.Context, tenant, username string) error

	CreateRole(ctx context.Context, tenant, name string, scopes []string) (*Role, error)
	GetRole(ctx context.Context, tenant, name string) (*Role, error)
	ListRoles(ctx context.Context, tenant string) ([]*Role, error)
	DeleteRole(ctx context.Context, tenant, name string) error
}
