package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/authgate/internal/domain"
	"github.com/yourorg/authgate/internal/observability/metrics"
	"github.com/yourorg/authgate/internal/security/audit"
	"github.com/yourorg/authgate/internal/security/auth"
	"github.com/yourorg/authgate/internal/service"
)

type AdminContextKey struct{}
type UserContextKey struct{}

// AdminAuthMiddleware protects administrative routes with the static
// credential pair. Any mismatch yields the same 401 with a Basic
// challenge, regardless of which field was wrong.
func AdminAuthMiddleware(gate *auth.AdminGate, auditLog *audit.Logger, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || !gate.Check(username, password) {
				metrics.ObserveAdminAuth("denied")
				auditLog.LogDenied(r.Context(), "admin credentials rejected")
				w.Header().Set("WWW-Authenticate", `Basic realm="authgate"`)
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			metrics.ObserveAdminAuth("success")
			ctx := context.WithValue(r.Context(), AdminContextKey{}, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerAuthMiddleware validates the bearer token, re-resolves the user
// from the directory and enforces the active-user gate before the
// handler runs. The resolved user, not the token snapshot, goes into the
// request context.
func BearerAuthMiddleware(authService *service.AuthService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := authService.ValidateBearer(r.Context(), tokenString)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentials) {
					unauthorized(w)
					return
				}
				log.Error("bearer validation failed", slog.String("error", err.Error()))
				http.Error(w, `{"error":"directory unavailable"}`, http.StatusServiceUnavailable)
				return
			}

			user, err = service.EnsureActive(user)
			if err != nil {
				http.Error(w, `{"error":"inactive user"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
}

// GetUserFromContext returns the authenticated user, or nil outside the
// bearer middleware.
func GetUserFromContext(ctx context.Context) *domain.User {
	if u := ctx.Value(UserContextKey{}); u != nil {
		return u.(*domain.User)
	}
	return nil
}

// GetAdminFromContext returns the admin principal name, or "" outside
// the admin middleware.
func GetAdminFromContext(ctx context.Context) string {
	if a := ctx.Value(AdminContextKey{}); a != nil {
		return a.(string)
	}
	return ""
}
