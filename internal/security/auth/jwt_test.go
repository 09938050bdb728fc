package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yourorg/authgate/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		Username: "buffy",
		Email:    "buffy@sunnydale.example",
		Tenant:   domain.Tenant{Name: "sunnydale"},
		Roles: []domain.Role{
			{Name: "slayer", Scopes: []string{"patrol", "slay"}},
			{Name: "student", Scopes: []string{"library", "patrol"}},
		},
	}
}

func TestIssueAndValidate(t *testing.T) {
	tm, err := NewTokenManager("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	now := time.Now()
	token, err := tm.Issue(testUser(), now)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := tm.Validate(token, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Subject != "buffy" || claims.Tenant != "sunnydale" {
		t.Fatalf("unexpected claims: subject=%q tenant=%q", claims.Subject, claims.Tenant)
	}
	// Scopes flatten in role order, duplicates included.
	want := []string{"patrol", "slay", "library", "patrol"}
	if len(claims.Scopes) != len(want) {
		t.Fatalf("expected %d scopes, got %v", len(want), claims.Scopes)
	}
	for i, s := range want {
		if claims.Scopes[i] != s {
			t.Fatalf("scope %d: expected %q, got %q", i, s, claims.Scopes[i])
		}
	}
}

func TestValidateExpired(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", "HS256", time.Hour)

	now := time.Now()
	token, err := tm.Issue(testUser(), now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := tm.Validate(token, now); err == nil {
		t.Fatalf("expected expired token to fail validation")
	}
}

func TestValidateWrongSecret(t *testing.T) {
	issuer, _ := NewTokenManager("secret-a", "HS256", time.Hour)
	verifier, _ := NewTokenManager("secret-b", "HS256", time.Hour)

	now := time.Now()
	token, err := issuer.Issue(testUser(), now)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := verifier.Validate(token, now); err == nil {
		t.Fatalf("expected signature mismatch to fail validation")
	}
}

func TestValidateAlgorithmMismatch(t *testing.T) {
	issuer, _ := NewTokenManager("test-secret", "HS512", time.Hour)
	verifier, _ := NewTokenManager("test-secret", "HS256", time.Hour)

	now := time.Now()
	token, err := issuer.Issue(testUser(), now)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := verifier.Validate(token, now); err == nil {
		t.Fatalf("expected algorithm mismatch to fail validation")
	}
}

func TestValidateMissingTenantClaim(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", "HS256", time.Hour)

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "buffy",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := tm.Validate(token, now); err == nil {
		t.Fatalf("expected token without tenant claim to fail validation")
	}
}

func TestNewTokenManagerRejectsBadConfig(t *testing.T) {
	if _, err := NewTokenManager("", "HS256", time.Hour); err == nil {
		t.Fatalf("expected empty secret to be rejected")
	}
	if _, err := NewTokenManager("   ", "HS256", time.Hour); err == nil {
		t.Fatalf("expected blank secret to be rejected")
	}
	if _, err := NewTokenManager("test-secret", "RS256", time.Hour); err == nil {
		t.Fatalf("expected non-HMAC algorithm to be rejected")
	}
	if _, err := NewTokenManager("test-secret", "HS256", 0); err == nil {
		t.Fatalf("expected zero lifetime to be rejected")
	}
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc.def.ghi")
	if err != nil || token != "abc.def.ghi" {
		t.Fatalf("expected token, got %q err %v", token, err)
	}
	for _, header := range []string{"", "abc.def.ghi", "Basic abc", "Bearer a b", "Bearer"} {
		if _, err := ExtractToken(header); err == nil {
			t.Fatalf("expected header %q to be rejected", header)
		}
	}
}
