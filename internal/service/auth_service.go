package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/authgate/internal/domain"
	"github.com/yourorg/authgate/internal/featureflags"
	"github.com/yourorg/authgate/internal/observability/metrics"
	"github.com/yourorg/authgate/internal/security/auth"
)

// AuthService is the credential-and-token core: it verifies passwords,
// issues bearer tokens and validates them against current directory
// state.
type AuthService struct {
	directory domain.UserDirectory
	tokens    *auth.TokenManager
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(directory domain.UserDirectory, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		directory: directory,
		tokens:    tokens,
		logger:    logger,
	}
}

// TokenLifetime returns the configured lifetime of issued tokens.
func (s *AuthService) TokenLifetime() time.Duration {
	return s.tokens.Lifetime()
}

// Authenticate resolves (username, tenant) in the directory and checks
// the password. An unknown tenant, an unknown user and a wrong password
// all return domain.ErrInvalidCredentials; the caller cannot tell which,
// so neither usernames nor tenants can be enumerated.
func (s *AuthService) Authenticate(ctx context.Context, username, password, tenant string) (*domain.User, error) {
	user, err := s.directory.FindUser(ctx, tenant, username, loginLookupField(username))
	if err != nil {
		s.logger.Error("directory lookup failed",
			slog.String("tenant", tenant),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// loginLookupField lets users log in with their email address instead of
// the username when the email_login flag is on. Tokens always carry the
// username as subject, so bearer validation is unaffected.
func loginLookupField(identifier string) domain.LookupField {
	if featureflags.Enabled("email_login") && strings.Contains(identifier, "@") {
		return domain.ByEmail
	}
	return domain.ByUsername
}

// Login authenticates the user and issues a signed bearer token.
func (s *AuthService) Login(ctx context.Context, username, password, tenant string) (string, error) {
	user, err := s.Authenticate(ctx, username, password, tenant)
	if err != nil {
		if err == domain.ErrInvalidCredentials {
			metrics.ObserveLogin("invalid_credentials")
			s.logger.Info("login rejected", slog.String("tenant", tenant))
		} else {
			metrics.ObserveLogin("error")
		}
		return "", err
	}

	token, err := s.tokens.Issue(user, time.Now())
	if err != nil {
		// Signing only fails on a broken secret/algorithm pair, which
		// NewTokenManager already rules out at startup.
		metrics.ObserveLogin("error")
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return "", fmt.Errorf("sign token: %w", err)
	}

	metrics.ObserveLogin("success")
	s.logger.Info("user logged in",
		slog.String("username", user.Username),
		slog.String("tenant", user.Tenant.Name),
	)
	return token, nil
}

// ValidateBearer verifies a bearer token and re-resolves its subject in
// the directory. The re-resolution is deliberate: a user deleted, moved
// or disabled after issuance is caught here, even though the token is
// still cryptographically valid. Every validation failure collapses to
// domain.ErrInvalidCredentials.
func (s *AuthService) ValidateBearer(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.tokens.Validate(tokenString, time.Now())
	if err != nil {
		metrics.ObserveTokenValidation("invalid")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.directory.FindUser(ctx, claims.Tenant, claims.Subject, domain.ByUsername)
	if err != nil {
		metrics.ObserveTokenValidation("error")
		s.logger.Error("directory lookup failed",
			slog.String("tenant", claims.Tenant),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("validate bearer: %w", err)
	}
	if user == nil {
		metrics.ObserveTokenValidation("invalid")
		return nil, domain.ErrInvalidCredentials
	}

	metrics.ObserveTokenValidation("success")
	return user, nil
}

// EnsureActive rejects a disabled user with domain.ErrUserDisabled. This
// is the one check whose failure is deliberately distinguishable from
// invalid credentials.
func EnsureActive(user *domain.User) (*domain.User, error) {
	if user.Disabled {
		metrics.ObserveTokenValidation("disabled")
		return nil, domain.ErrUserDisabled
	}
	return user, nil
}
