package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/authgate/internal/domain"
	"github.com/yourorg/authgate/internal/security/audit"
)

// CreateUserRequest represents a user creation request. The password
// arrives pre-hashed; the server never sees admin-created plaintext
// passwords. Use the CLI to produce a hash.
type CreateUserRequest struct {
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	PasswordHash string   `json:"password_hash"`
	TenantName   string   `json:"tenant_name"`
	Roles        []string `json:"roles"`
}

// UserHandler handles administrative user operations.
type UserHandler struct {
	admin    domain.DirectoryAdmin
	auditLog *audit.Logger
	logger   *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(admin domain.DirectoryAdmin, auditLog *audit.Logger, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		admin:    admin,
		auditLog: auditLog,
		logger:   logger,
	}
}

// Create handles POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Username == "" || req.PasswordHash == "" || req.TenantName == "" {
		writeError(w, http.StatusBadRequest, "username, password_hash and tenant_name are required")
		return
	}

	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: req.PasswordHash,
		Tenant:       domain.Tenant{Name: req.TenantName},
	}

	if err := h.admin.CreateUser(r.Context(), user, req.Roles); err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditLog.LogAdminMutation(r.Context(), "create", "user", req.TenantName+"/"+req.Username, "ok")
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Get handles GET /tenants/{tenant}/users/{username}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := r.PathValue("tenant")
	username := r.PathValue("username")

	user, err := h.admin.GetUser(r.Context(), tenant, username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// List handles GET /tenants/{tenant}/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.PathValue("tenant")

	users, err := h.admin.ListUsers(r.Context(), tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /tenants/{tenant}/users/{username}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.PathValue("tenant")
	username := r.PathValue("username")

	if err := h.admin.DeleteUser(r.Context(), tenant, username); err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditLog.LogAdminMutation(r.Context(), "delete", "user", tenant+"/"+username, "ok")
	w.WriteHeader(http.StatusNoContent)
}
