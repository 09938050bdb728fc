package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yourorg/authgate/internal/domain"
)

// Claims is the payload of an issued bearer token. The non-registered
// fields are a point-in-time snapshot of the user at issuance; validation
// re-resolves the user from the directory, so they are hints, never
// authoritative.
type Claims struct {
	Tenant   string   `json:"tenant"`
	Email    string   `json:"email"`
	Disabled bool     `json:"disabled"`
	Scopes   []string `json:"scopes"`
	jwt.RegisteredClaims
}

// hmacMethods is the set of signing algorithms the gateway accepts.
// Anything else is a configuration error, caught at construction time.
var hmacMethods = map[string]*jwt.SigningMethodHMAC{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// TokenManager issues and validates signed bearer tokens.
type TokenManager struct {
	secret   []byte
	method   *jwt.SigningMethodHMAC
	lifetime time.Duration
}

// NewTokenManager builds a TokenManager from the configured secret,
// algorithm name and token lifetime. An empty secret or a non-HMAC
// algorithm is rejected so the process fails at startup instead of
// signing with an insecure configuration.
func NewTokenManager(secret, algorithm string, lifetime time.Duration) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("signing secret must not be empty")
	}
	method, ok := hmacMethods[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}
	return &TokenManager{
		secret:   []byte(secret),
		method:   method,
		lifetime: lifetime,
	}, nil
}

// Lifetime returns the configured token lifetime.
func (tm *TokenManager) Lifetime() time.Duration {
	return tm.lifetime
}

// Issue signs a token for the user with expiry now+lifetime. Scopes are
// flattened from the user's roles at this moment; later role changes are
// not reflected until the next issuance.
func (tm *TokenManager) Issue(user *domain.User, now time.Time) (string, error) {
	claims := Claims{
		Tenant:   user.Tenant.Name,
		Email:    user.Email,
		Disabled: user.Disabled,
		Scopes:   FlattenScopes(user.Roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.lifetime)),
		},
	}
	token := jwt.NewWithClaims(tm.method, claims)
	return token.SignedString(tm.secret)
}

// Validate verifies the token's signature and expiry against now and
// returns its claims. The subject and tenant claims must be present and
// non-empty; a token without them never validates.
func (tm *TokenManager) Validate(tokenString string, now time.Time) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return tm.secret, nil
		},
		jwt.WithValidMethods([]string{tm.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" || claims.Tenant == "" {
		return nil, errors.New("token missing subject or tenant claim")
	}
	return claims, nil
}

// ExtractToken pulls the bearer token out of an Authorization header.
func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
