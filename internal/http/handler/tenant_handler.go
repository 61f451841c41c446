package handler

import (
	"net/http"

	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/service"
	"go.uber.org/zap"
)

type TenantHandler struct {
	tenantService *service.TenantService
	logger        *zap.Logger
}

func NewTenantHandler(tenantService *service.TenantService, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
		logger:        logger,
	}
}

// List godoc
// @Summary List tenants
// @Description Owners only see tenants with a current lease on one of their properties
// @Tags Tenants
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by name, email or national id"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.TenantDTO}
// @Security BearerAuth
// @Router /tenants [get]
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	result, err := h.tenantService.List(r.Context(), r.URL.Query().Get("search"), page, pageSize)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get tenant
// @Tags Tenants
// @Produce json
// @Param id path string true "Tenant ID" format(uuid)
// @Success 200 {object} domain.TenantDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /tenants/{id} [get]
func (h *TenantHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "tenant")
	if !ok {
		return
	}
	tenant, err := h.tenantService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tenant)
}

// Create godoc
// @Summary Create tenant
// @Tags Tenants
// @Accept json
// @Produce json
// @Param request body domain.CreateTenantRequest true "Tenant data"
// @Success 201 {object} domain.TenantDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /tenants [post]
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTenantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	tenant, err := h.tenantService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/tenants/"+tenant.ID.String())
	respondJSON(w, http.StatusCreated, tenant)
}

// Update godoc
// @Summary Update tenant contact details
// @Tags Tenants
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID" format(uuid)
// @Param request body domain.UpdateTenantRequest true "Tenant data"
// @Success 200 {object} domain.TenantDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /tenants/{id} [put]
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "tenant")
	if !ok {
		return
	}
	var req domain.UpdateTenantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	tenant, err := h.tenantService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tenant)
}

// Delete godoc
// @Summary Delete tenant
// @Description Tenants with any contract history are kept
// @Tags Tenants
// @Param id path string true "Tenant ID" format(uuid)
// @Success 204
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /tenants/{id} [delete]
func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "tenant")
	if !ok {
		return
	}
	if err := h.tenantService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
