package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/authgate/internal/domain"
	"github.com/yourorg/authgate/internal/security/audit"
	"github.com/yourorg/authgate/internal/security/auth"
	"github.com/yourorg/authgate/internal/service"
)

type memDirectory struct {
	users map[string]map[string]*domain.User
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

func okHandler(sawUser **domain.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sawUser != nil {
			*sawUser = GetUserFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminAuthMiddleware(t *testing.T) {
	gate, err := auth.NewAdminGate("root", "hunter2")
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	mw := AdminAuthMiddleware(gate, audit.NewLogger(slog.Default()), slog.Default())
	h := mw(okHandler(nil))

	// No credentials.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tenants", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="authgate"` {
		t.Fatalf("unexpected challenge %q", got)
	}

	// Wrong password.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tenants", nil)
	req.SetBasicAuth("root", "wrong")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}

	// Correct credentials.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/tenants", nil)
	req.SetBasicAuth("root", "hunter2")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for correct credentials, got %d", rec.Code)
	}
}

func TestBearerAuthMiddleware(t *testing.T) {
	dir := newMemDirectory()
	hash, err := auth.HashPassword("Stake123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	user := &domain.User{
		Username:     "buffy",
		PasswordHash: hash,
		Tenant:       domain.Tenant{Name: "sunnydale"},
	}
	dir.add(user)

	tm, err := auth.NewTokenManager("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	authService := service.NewAuthService(dir, tm, nil)
	token, err := authService.Login(context.Background(), "buffy", "Stake123", "sunnydale")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	var sawUser *domain.User
	h := BearerAuthMiddleware(authService, slog.Default())(okHandler(&sawUser))

	// Valid token: handler runs with the resolved user in context.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sawUser == nil || sawUser.Username != "buffy" {
		t.Fatalf("expected resolved user in context, got %+v", sawUser)
	}

	// Missing and malformed headers.
	for _, header := range []string{"", "Bearer not-a-token", "Basic abc"} {
		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("header %q: expected Bearer challenge", header)
		}
	}

	// Disabled after issuance: token still verifies, gate rejects.
	user.Disabled = true
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for disabled user, got %d", rec.Code)
	}
	user.Disabled = false

	// Deleted after issuance.
	delete(dir.users["sunnydale"], "buffy")
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", rec.Code)
	}
}
