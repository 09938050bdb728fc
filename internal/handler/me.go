package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/authgate/internal/domain"
	"github.com/yourorg/authgate/internal/security/middleware"
)

// RoleResponse is the API view of a role.
type RoleResponse struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// UserResponse is the API view of a user. The password hash never leaves
// the service.
type UserResponse struct {
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Disabled  bool           `json:"disabled"`
	Tenant    string         `json:"tenant"`
	Roles     []RoleResponse `json:"roles"`
}

func toUserResponse(user *domain.User) UserResponse {
	roles := make([]RoleResponse, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, RoleResponse{Name: role.Name, Scopes: role.Scopes})
	}
	return UserResponse{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Disabled:  user.Disabled,
		Tenant:    user.Tenant.Name,
		Roles:     roles,
	}
}

// MeHandler returns the identity behind a bearer token. Validation and
// the active-user gate run in the bearer middleware; by the time this
// handler executes the user in the context is fresh and active.
type MeHandler struct {
	logger *slog.Logger
}

// NewMeHandler creates a new me handler
func NewMeHandler(logger *slog.Logger) *MeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeHandler{logger: logger}
}

// ServeHTTP handles GET /users/me
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
