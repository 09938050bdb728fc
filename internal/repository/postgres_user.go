package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/yourorg/authgate/internal/domain"
)

// CreateUser creates a user under user.Tenant.Name and attaches the named
// roles. Role names that do not exist in that tenant are skipped, never
// borrowed from another tenant.
func (r *PostgresDirectory) CreateUser(ctx context.Context, user *domain.User, roleNames []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	defer tx.Rollback()

	var tenantID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM tenants WHERE name = $1`, user.Tenant.Name).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("create user: resolve tenant: %w", err)
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (id, tenant_id, username, email, first_name, last_name, password_hash, disabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		user.ID,
		tenantID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Disabled,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		r.logger.Error("failed to create user",
			slog.String("tenant", user.Tenant.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("create user: %w", err)
	}

	if len(roleNames) > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, r.id
			FROM roles r
			WHERE r.tenant_id = $2 AND r.name = ANY($3)
		`, user.ID, tenantID, pq.Array(roleNames))
		if err != nil {
			return fmt.Errorf("create user: attach roles: %w", err)
		}
	}

	return tx.Commit()
}

// GetUser retrieves a user for administrative reads. Unlike FindUser it
// reports absence as domain.ErrNotFound, since the admin surface is
// allowed to say so.
func (r *PostgresDirectory) GetUser(ctx context.Context, tenant, username string) (*domain.User, error) {
	user, err := r.FindUser(ctx, tenant, username, domain.ByUsername)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// ListUsers returns all users of a tenant with their roles.
func (r *PostgresDirectory) ListUsers(ctx context.Context, tenant string) ([]*domain.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name,
		       u.password_hash, u.disabled, u.created_at,
		       t.id, t.name, t.created_at
		FROM users u
		JOIN tenants t ON t.id = u.tenant_id
		WHERE t.name = $1
		ORDER BY u.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, tenant)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		err := rows.Scan(
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
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, user := range users {
		roles, err := r.rolesForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
	}
	return users, nil
}

// DeleteUser removes a user addressed by (tenant, username).
func (r *PostgresDirectory) DeleteUser(ctx context.Context, tenant, username string) error {
	query := `
		DELETE FROM users u
		USING tenants t
		WHERE u.tenant_id = t.id AND t.name = $1 AND u.username = $2
	`
	res, err := r.db.ExecContext(ctx, query, tenant, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("user deleted",
		slog.String("tenant", tenant),
		slog.String("username", username),
	)
	return nil
}
