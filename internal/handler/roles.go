package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/authgate/internal/domain"
	"github.com/yourorg/authgate/internal/security/audit"
)

// RoleDetailResponse is the API view of a role on the admin surface.
type RoleDetailResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Scopes    []string  `json:"scopes"`
	Tenant    string    `json:"tenant"`
	CreatedAt time.Time `json:"created_at"`
}

func toRoleDetailResponse(role *domain.Role) RoleDetailResponse {
	return RoleDetailResponse{
		ID:        role.ID,
		Name:      role.Name,
		Scopes:    role.Scopes,
		Tenant:    role.Tenant,
		CreatedAt: role.CreatedAt,
	}
}

// CreateRoleRequest represents a role creation request
type CreateRoleRequest struct {
	Tenant string   `json:"tenant"`
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// RoleHandler handles administrative role operations.
type RoleHandler struct {
	admin    domain.DirectoryAdmin
	auditLog *audit.Logger
	logger   *slog.Logger
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(admin domain.DirectoryAdmin, auditLog *audit.Logger, logger *slog.Logger) *RoleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleHandler{
		admin:    admin,
		auditLog: auditLog,
		logger:   logger,
	}
}

// Create handles POST /roles
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Tenant == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "tenant and name are required")
		return
	}

	role, err := h.admin.CreateRole(r.Context(), req.Tenant, req.Name, req.Scopes)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditLog.LogAdminMutation(r.Context(), "create", "role", req.Tenant+"/"+req.Name, "ok")
	writeJSON(w, http.StatusCreated, toRoleDetailResponse(role))
}

// Get handles GET /tenants/{tenant}/roles/{name}
func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := r.PathValue("tenant")
	name := r.PathValue("name")

	role, err := h.admin.GetRole(r.Context(), tenant, name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleDetailResponse(role))
}

// List handles GET /tenants/{tenant}/roles
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.PathValue("tenant")

	roles, err := h.admin.ListRoles(r.Context(), tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]RoleDetailResponse, 0, len(roles))
	for _, role := range roles {
		resp = append(resp, toRoleDetailResponse(role))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /tenants/{tenant}/roles/{name}
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := r.PathValue("tenant")
	name := r.PathValue("name")

	if err := h.admin.DeleteRole(r.Context(), tenant, name); err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditLog.LogAdminMutation(r.Context(), "delete", "role", tenant+"/"+name, "ok")
	w.WriteHeader(http.StatusNoContent)
}
