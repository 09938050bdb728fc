package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/authgate/internal/domain"
	"github.com/yourorg/authgate/internal/observability/metrics"
	"github.com/yourorg/authgate/internal/security/audit"
	"github.com/yourorg/authgate/internal/security/ratelimit"
	"github.com/yourorg/authgate/internal/service"
)

// TokenResponse is the password grant response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// TokenHandler handles the password grant endpoint.
type TokenHandler struct {
	authService *service.AuthService
	limiter     *ratelimit.LoginLimiter
	auditLog    *audit.Logger
	logger      *slog.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(authService *service.AuthService, limiter *ratelimit.LoginLimiter, auditLog *audit.Logger, logger *slog.Logger) *TokenHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenHandler{
		authService: authService,
		limiter:     limiter,
		auditLog:    auditLog,
		logger:      logger,
	}
}

// ServeHTTP handles POST /tokens. Credentials arrive form-encoded as in
// the OAuth2 password grant, plus a tenant field.
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	tenant := r.PostFormValue("tenant")
	if username == "" || password == "" || tenant == "" {
		writeError(w, http.StatusBadRequest, "username, password and tenant are required")
		return
	}

	if h.limiter != nil && !h.limiter.Allow(r.Context(), tenant+":"+username) {
		metrics.ObserveLoginRateLimited()
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	token, err := h.authService.Login(r.Context(), username, password, tenant)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.auditLog.LogLogin(r.Context(), tenant, username, "denied")
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "incorrect username or password")
			return
		}
		h.logger.Error("login failed", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "directory unavailable")
		return
	}

	h.auditLog.LogLogin(r.Context(), tenant, username, "success")
	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.authService.TokenLifetime().Seconds()),
	})
}
