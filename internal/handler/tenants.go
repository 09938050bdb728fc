package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/authgate/internal/domain"
	"github.com/yourorg/authgate/internal/security/audit"
	"github.com/yourorg/authgate/pkg/cache"
)

const tenantCacheTTL = 30 * time.Second

// TenantResponse is the API view of a tenant.
type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toTenantResponse(t *domain.Tenant) TenantResponse {
	return TenantResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

// CreateTenantRequest represents a tenant creation request
type CreateTenantRequest struct {
	Tenant string `json:"tenant"`
}

// RenameTenantRequest represents a tenant rename request
type RenameTenantRequest struct {
	Tenant string `json:"tenant"`
}

// TenantHandler handles administrative tenant operations.
type TenantHandler struct {
	admin    domain.DirectoryAdmin
	cache    *cache.Cache
	auditLog *audit.Logger
	logger   *slog.Logger
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(admin domain.DirectoryAdmin, c *cache.Cache, auditLog *audit.Logger, logger *slog.Logger) *TenantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantHandler{
		admin:    admin,
		cache:    c,
		auditLog: auditLog,
		logger:   logger,
	}
}

// Create handles POST /tenants
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Tenant == "" {
		writeError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	tenant, err := h.admin.CreateTenant(r.Context(), req.Tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.cache.Invalidate("tenants")
	h.auditLog.LogAdminMutation(r.Context(), "create", "tenant", tenant.Name, "ok")
	writeJSON(w, http.StatusCreated, toTenantResponse(tenant))
}

// Get handles GET /tenants/{name}
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if v, ok := h.cache.Get("tenants:" + name); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	tenant, err := h.admin.GetTenant(r.Context(), name)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := toTenantResponse(tenant)
	h.cache.Set("tenants:"+name, resp, tenantCacheTTL)
	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /tenants
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	if v, ok := h.cache.Get("tenants:all"); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	tenants, err := h.admin.ListTenants(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		resp = append(resp, toTenantResponse(t))
	}
	h.cache.Set("tenants:all", resp, tenantCacheTTL)
	writeJSON(w, http.StatusOK, resp)
}

// Rename handles PUT /tenants/{name}
func (h *TenantHandler) Rename(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req RenameTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Tenant == "" {
		writeError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	if err := h.admin.RenameTenant(r.Context(), name, req.Tenant); err != nil {
		writeDomainError(w, err)
		return
	}

	h.cache.Invalidate("tenants")
	h.auditLog.LogAdminMutation(r.Context(), "rename", "tenant", name, "ok")
	writeJSON(w, http.StatusOK, map[string]string{"message": "tenant renamed"})
}

// Delete handles DELETE /tenants/{name}
func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.admin.DeleteTenant(r.Context(), name); err != nil {
		writeDomainError(w, err)
		return
	}

	h.cache.Invalidate("tenants")
	h.auditLog.LogAdminMutation(r.Context(), "delete", "tenant", name, "ok")
	w.WriteHeader(http.StatusNoContent)
}
