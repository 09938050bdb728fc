package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yourorg/authgate/internal/domain"
)

// CreateTenant creates a new tenant addressed by name.
func (r *PostgresDirectory) CreateTenant(ctx context.Context, name string) (*domain.Tenant, error) {
	tenant := &domain.Tenant{ID: uuid.New().String(), Name: name}
	query := `
		INSERT INTO tenants (id, name)
		VALUES ($1, $2)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, tenant.ID, tenant.Name).Scan(&tenant.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("failed to create tenant",
			slog.String("tenant", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return tenant, nil
}

// GetTenant retrieves a tenant by name.
func (r *PostgresDirectory) GetTenant(ctx context.Context, name string) (*domain.Tenant, error) {
	tenant := &domain.Tenant{}
	query := `
		SELECT id, name, created_at
		FROM tenants
		WHERE name = $1
	`
	err := r.db.QueryRowContext(ctx, query, name).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return tenant, nil
}

// ListTenants returns all tenants.
func (r *PostgresDirectory) ListTenants(ctx context.Context) ([]*domain.Tenant, error) {
	query := `
		SELECT id, name, created_at
		FROM tenants
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []*domain.Tenant
	for rows.Next() {
		t := &domain.Tenant{}
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RenameTenant changes a tenant's name. Users and roles follow
// automatically since they reference the tenant by id.
func (r *PostgresDirectory) RenameTenant(ctx context.Context, name, newName string) error {
	query := `
		UPDATE tenants SET name = $2 WHERE name = $1
	`
	res, err := r.db.ExecContext(ctx, query, name, newName)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("rename tenant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename tenant: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteTenant removes a tenant. Its users and roles are deleted with it
// at the schema level.
func (r *PostgresDirectory) DeleteTenant(ctx context.Context, name string) error {
	query := `
		DELETE FROM tenants WHERE name = $1
	`
	res, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("tenant deleted", slog.String("tenant", name))
	return nil
}
