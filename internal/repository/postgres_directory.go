package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/yourorg/authgate/internal/domain"
)

// PostgresDirectory implements domain.UserDirectory and
// domain.DirectoryAdmin over PostgreSQL. Tenant name is the external key:
// every user and role statement joins through tenants by name, so a
// lookup can never cross tenants.
type PostgresDirectory struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresDirectory creates a new directory backed by the given pool.
func NewPostgresDirectory(db *sql.DB, logger *slog.Logger) *PostgresDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDirectory{db: db, logger: logger}
}

// FindUser looks up a user by username or email within a tenant. Returns
// (nil, nil) when no user matches; a missing tenant and a missing user
// are indistinguishable here on purpose.
func (r *PostgresDirectory) FindUser(ctx context.Context, tenant, key string, by domain.LookupField) (*domain.User, error) {
	column := "u.username"
	switch by {
	case domain.ByUsername:
	case domain.ByEmail:
		column = "u.email"
	default:
		return nil, fmt.Errorf("unsupported lookup field %q", by)
	}

	query := fmt.Sprintf(`
		SELECT u.id, u.username, u.email, u.first_name, u.last_name,
		       u.password_hash, u.disabled, u.created_at,
		       t.id, t.name, t.created_at
		FROM users u
		JOIN tenants t ON t.id = u.tenant_id
		WHERE t.name = $1 AND %s = $2
	`, column)

	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, tenant, key).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Disabled,
		&user.CreatedAt,
		&user.Tenant.ID,
		&user.Tenant.Name,
		&user.Tenant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	roles, err := r.rolesForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return user, nil
}

// rolesForUser loads the roles attached to a user, ordered by name for
// stable output.
func (r *PostgresDirectory) rolesForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	query := `
		SELECT r.id, r.name, r.scopes, t.name, r.created_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		JOIN tenants t ON t.id = r.tenant_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role := domain.Role{}
		if err := rows.Scan(&role.ID, &role.Name, pq.Array(&role.Scopes), &role.Tenant, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
