package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
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

func newTestAuthService(t *testing.T, dir *memDirectory) *service.AuthService {
	t.Helper()
	tm, err := auth.NewTokenManager("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	return service.NewAuthService(dir, tm, nil)
}

func newTestTokenHandler(t *testing.T, dir *memDirectory) *TokenHandler {
	t.Helper()
	return NewTokenHandler(newTestAuthService(t, dir), nil, audit.NewLogger(slog.Default()), nil)
}

func loginForm(username, password, tenant string) *http.Request {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("tenant", tenant)
	req := httptest.NewRequest(http.MethodPost, "/tokens", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestTokenEndpointIssuesToken(t *testing.T) {
	dir := newMemDirectory()
	hash, err := auth.HashPassword("Stake123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	dir.add(&domain.User{
		Username:     "buffy",
		PasswordHash: hash,
		Tenant:       domain.Tenant{Name: "sunnydale"},
	})
	h := newTestTokenHandler(t, dir)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, loginForm("buffy", "Stake123", "sunnydale"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected a token")
	}
	if resp.TokenType != "bearer" {
		t.Fatalf("expected token_type bearer, got %q", resp.TokenType)
	}
	if resp.ExpiresIn != 3600 {
		t.Fatalf("expected expires_in 3600, got %d", resp.ExpiresIn)
	}
}

func TestTokenEndpointRejectsBadCredentials(t *testing.T) {
	dir := newMemDirectory()
	hash, _ := auth.HashPassword("Stake123")
	dir.add(&domain.User{
		Username:     "buffy",
		PasswordHash: hash,
		Tenant:       domain.Tenant{Name: "sunnydale"},
	})
	h := newTestTokenHandler(t, dir)

	for _, form := range []*http.Request{
		loginForm("buffy", "wrong", "sunnydale"),
		loginForm("ghost", "Stake123", "sunnydale"),
		loginForm("buffy", "Stake123", "hellmouth"),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, form)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Fatalf("expected a WWW-Authenticate challenge")
		}
		var resp ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if resp.Error != "incorrect username or password" {
			t.Fatalf("unexpected error message %q", resp.Error)
		}
	}
}

func TestTokenEndpointRequiresAllFields(t *testing.T) {
	h := newTestTokenHandler(t, newMemDirectory())

	for _, form := range []*http.Request{
		loginForm("", "Stake123", "sunnydale"),
		loginForm("buffy", "", "sunnydale"),
		loginForm("buffy", "Stake123", ""),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, form)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	}
}
