package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/authgate/internal/domain"
	"github.com/yourorg/authgate/internal/security/auth"
)

type memDirectory struct {
	users map[string]map[string]*domain.User // tenant -> username -> user
	err   error
}

func newMemDirectory() *memDirectory {
	return &memDirectory{users: map[string]map[string]*domain.User{}}
}

func (m *memDirectory) add(u *domain.User) {
	tenant := u.Tenant.Name
	if m.users[tenant] == nil {
		m.users[tenant] = map[string]*domain.User{}
	}
	m.users[tenant][u.Username] = u
}

func (m *memDirectory) FindUser(ctx context.Context, tenant, key string, by domain.LookupField) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	byName, ok := m.users[tenant]
	if !ok {
		return nil, nil
	}
	if by == domain.ByEmail {
		for _, u := range byName {
			if u.Email == key {
				return u, nil
			}
		}
		return nil, nil
	}
	return byName[key], nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return hash
}

func testService(t *testing.T, dir *memDirectory) *AuthService {
	t.Helper()
	tm, err := auth.NewTokenManager("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	return NewAuthService(dir, tm, nil)
}

func TestLoginAndValidate(t *testing.T) {
	dir := newMemDirectory()
	dir.add(&domain.User{
		Username:     "buffy",
		Email:        "buffy@sunnydale.example",
		PasswordHash: mustHash(t, "Stake123"),
		Tenant:       domain.Tenant{Name: "sunnydale"},
		Roles: []domain.Role{
			{Name: "slayer", Scopes: []string{"patrol", "slay"}},
		},
	})
	s := testService(t, dir)
	ctx := context.Background()

	token, err := s.Login(ctx, "buffy", "Stake123", "sunnydale")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}

	user, err := s.ValidateBearer(ctx, token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if user.Username != "buffy" || user.Tenant.Name != "sunnydale" {
		t.Fatalf("unexpected user %q in tenant %q", user.Username, user.Tenant.Name)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	dir := newMemDirectory()
	dir.add(&domain.User{
		Username:     "buffy",
		PasswordHash: mustHash(t, "Stake123"),
		Tenant:       domain.Tenant{Name: "sunnydale"},
	})
	s := testService(t, dir)

	if _, err := s.Login(context.Background(), "buffy", "wrong", "sunnydale"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUserAndTenantLookAlike(t *testing.T) {
	dir := newMemDirectory()
	dir.add(&domain.User{
		Username:     "buffy",
		PasswordHash: mustHash(t, "Stake123"),
		Tenant:       domain.Tenant{Name: "sunnydale"},
	})
	s := testService(t, dir)
	ctx := context.Background()

	// Unknown user and unknown tenant must be indistinguishable from a
	// wrong password.
	_, errUser := s.Login(ctx, "ghost", "Stake123", "sunnydale")
	_, errTenant := s.Login(ctx, "buffy", "Stake123", "hellmouth")
	if !errors.Is(errUser, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", errUser)
	}
	if !errors.Is(errTenant, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown tenant: expected ErrInvalidCredentials, got %v", errTenant)
	}
	if errUser.Error() != errTenant.Error() {
		t.Fatalf("errors must not leak which part was wrong: %q vs %q", errUser, errTenant)
	}
}

func TestCrossTenantIsolation(t *testing.T) {
	dir := newMemDirectory()
	dir.add(&domain.User{
		Username:     "aldi",
		PasswordHash: mustHash(t, "Checkout1"),
		Tenant:       domain.Tenant{Name: "north"},
	})
	dir.add(&domain.User{
		Username:     "aldi",
		PasswordHash: mustHash(t, "Checkout2"),
		Tenant:       domain.Tenant{Name: "sued"},
	})
	s := testService(t, dir)
	ctx := context.Background()

	// Same username, different tenants: each password only works in its
	// own tenant.
	if _, err := s.Login(ctx, "aldi", "Checkout1", "north"); err != nil {
		t.Fatalf("login north failed: %v", err)
	}
	if _, err := s.Login(ctx, "aldi", "Checkout1", "sued"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials across tenants, got %v", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	dir := newMemDirectory()
	user := &domain.User{
		Username:     "buffy",
		PasswordHash: mustHash(t, "Stake123"),
		Tenant:       domain.Tenant{Name: "sunnydale"},
	}
	dir.add(user)

	tm, err := auth.NewTokenManager("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	s := NewAuthService(dir, tm, nil)

	// Issued two hours ago with a one hour lifetime.
	token, err := tm.Issue(user, time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := s.ValidateBearer(context.Background(), token); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for expired token, got %v", err)
	}
}

func TestValidateDeletedUser(t *testing.T) {
	dir := newMemDirectory()
	user := &domain.User{
		Username:     "buffy",
		PasswordHash: mustHash(t, "Stake123"),
		Tenant:       domain.Tenant{Name: "sunnydale"},
	}
	dir.add(user)
	s := testService(t, dir)
	ctx := context.Background()

	token, err := s.Login(ctx, "buffy", "Stake123", "sunnydale")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// User removed from the directory after issuance: the token is still
	// cryptographically valid but must be rejected.
	delete(dir.users["sunnydale"], "buffy")
	if _, err := s.ValidateBearer(ctx, token); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for deleted user, got %v", err)
	}
}

func TestValidateDisabledUser(t *testing.T) {
	dir := newMemDirectory()
	user := &domain.User{
		Username:     "buffy",
		PasswordHash: mustHash(t, "Stake123"),
		Tenant:       domain.Tenant{Name: "sunnydale"},
	}
	dir.add(user)
	s := testService(t, dir)
	ctx := context.Background()

	token, err := s.Login(ctx, "buffy", "Stake123", "sunnydale")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Disabled after issuance: validation still resolves the user, the
	// active gate rejects separately.
	user.Disabled = true
	resolved, err := s.ValidateBearer(ctx, token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if _, err := EnsureActive(resolved); !errors.Is(err, domain.ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestDirectoryErrorIsNotInvalidCredentials(t *testing.T) {
	dir := newMemDirectory()
	dir.err = errors.New("connection refused")
	s := testService(t, dir)

	_, err := s.Login(context.Background(), "buffy", "Stake123", "sunnydale")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("directory failure must not masquerade as bad credentials, got %v", err)
	}
}
