package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/yourorg/authgate/internal/domain"
)

// CreateRole creates a role with its scope set under a tenant.
func (r *PostgresDirectory) CreateRole(ctx context.Context, tenant, name string, scopes []string) (*domain.Role, error) {
	role := &domain.Role{
		ID:     uuid.New().String(),
		Name:   name,
		Scopes: scopes,
		Tenant: tenant,
	}
	if role.Scopes == nil {
		role.Scopes = []string{}
	}
	query := `
		INSERT INTO roles (id, tenant_id, name, scopes)
		SELECT $1, t.id, $2, $3
		FROM tenants t
		WHERE t.name = $4
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, role.ID, role.Name, pq.Array(role.Scopes), tenant).Scan(&role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// INSERT ... SELECT matched no tenant row.
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create role: %w", err)
	}
	return role, nil
}

// GetRole retrieves a role by (tenant, name).
func (r *PostgresDirectory) GetRole(ctx context.Context, tenant, name string) (*domain.Role, error) {
	role := &domain.Role{}
	query := `
		SELECT r.id, r.name, r.scopes, t.name, r.created_at
		FROM roles r
		JOIN tenants t ON t.id = r.tenant_id
		WHERE t.name = $1 AND r.name = $2
	`
	err := r.db.QueryRowContext(ctx, query, tenant, name).Scan(
		&role.ID, &role.Name, pq.Array(&role.Scopes), &role.Tenant, &role.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// ListRoles returns all roles of a tenant.
func (r *PostgresDirectory) ListRoles(ctx context.Context, tenant string) ([]*domain.Role, error) {
	query := `
		SELECT r.id, r.name, r.scopes, t.name, r.created_at
		FROM roles r
		JOIN tenants t ON t.id = r.tenant_id
		WHERE t.name = $1
		ORDER BY r.name
	`
	rows, err := r.db.QueryContext(ctx, query, tenant)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var out []*domain.Role
	for rows.Next() {
		role := &domain.Role{}
		if err := rows.Scan(&role.ID, &role.Name, pq.Array(&role.Scopes), &role.Tenant, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// DeleteRole removes a role addressed by (tenant, name). Assignments in
// user_roles are removed with it at the schema level.
func (r *PostgresDirectory) DeleteRole(ctx context.Context, tenant, name string) error {
	query := `
		DELETE FROM roles r
		USING tenants t
		WHERE r.tenant_id = t.id AND t.name = $1 AND r.name = $2
	`
	res, err := r.db.ExecContext(ctx, query, tenant, name)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
