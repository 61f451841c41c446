package handler

import (
	"net/http"

	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/service"
	"go.uber.org/zap"
)

// PortalHandler serves the tenant portal. Every route is scoped to the
// contract carried by the portal token.
type PortalHandler struct {
	contractService    *service.ContractService
	maintenanceService *service.MaintenanceService
	logger             *zap.Logger
}

func NewPortalHandler(contractService *service.ContractService, maintenanceService *service.MaintenanceService, logger *zap.Logger) *PortalHandler {
	return &PortalHandler{
		contractService:    contractService,
		maintenanceService: maintenanceService,
		logger:             logger,
	}
}

// ListContracts godoc
// @Summary Portal: my contract
// @Tags Tenant Portal
// @Produce json
// @Param token query string false "Portal token, if not sent as a bearer header"
// @Success 200 {array} domain.ContractDTO
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security PortalAuth
// @Router /tenant-portal/contracts [get]
func (h *PortalHandler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.contractService.PortalList(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, contracts)
}

// GetContract godoc
// @Summary Portal: get contract
// @Tags Tenant Portal
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Success 200 {object} domain.ContractDTO
// @Failure 403 {object} domain.APIError
// @Security PortalAuth
// @Router /tenant-portal/contracts/{id} [get]
func (h *PortalHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contract")
	if !ok {
		return
	}
	contract, err := h.contractService.PortalGetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, contract)
}

// ContractDocument godoc
// @Summary Portal: download contract document
// @Tags Tenant Portal
// @Produce html
// @Param id path string true "Contract ID" format(uuid)
// @Success 200 {file} file
// @Failure 403 {object} domain.APIError
// @Security PortalAuth
// @Router /tenant-portal/contracts/{id}/document [get]
func (h *PortalHandler) ContractDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contract")
	if !ok {
		return
	}
	body, contentType, err := h.contractService.PortalGetDocument(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	streamDocument(w, h.logger, body, contentType, id.String())
}

// ListMaintenance godoc
// @Summary Portal: my maintenance requests
// @Tags Tenant Portal
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.MaintenanceRequestDTO}
// @Security PortalAuth
// @Router /tenant-portal/maintenance [get]
func (h *PortalHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	result, err := h.maintenanceService.PortalList(r.Context(), page, pageSize)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetMaintenance godoc
// @Summary Portal: get maintenance request
// @Tags Tenant Portal
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Success 200 {object} domain.MaintenanceRequestDTO
// @Failure 404 {object} domain.APIError
// @Security PortalAuth
// @Router /tenant-portal/maintenance/{id} [get]
func (h *PortalHandler) GetMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "maintenance request")
	if !ok {
		return
	}
	request, err := h.maintenanceService.PortalGetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// CreateMaintenance godoc
// @Summary Portal: report a maintenance issue
// @Tags Tenant Portal
// @Accept json
// @Produce json
// @Param request body domain.PortalCreateMaintenanceRequest true "Issue"
// @Success 201 {object} domain.MaintenanceRequestDTO
// @Failure 400 {object} domain.APIError "Contract is no longer active"
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security PortalAuth
// @Router /tenant-portal/maintenance [post]
func (h *PortalHandler) CreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var req domain.PortalCreateMaintenanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	request, err := h.maintenanceService.PortalCreate(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, request)
}

// UpdateMaintenance godoc
// @Summary Portal: cancel a maintenance request
// @Description Tenants may only move their own requests to CANCELLED
// @Tags Tenant Portal
// @Accept json
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Param request body domain.PortalUpdateMaintenanceRequest true "New status"
// @Success 200 {object} domain.MaintenanceRequestDTO
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security PortalAuth
// @Router /tenant-portal/maintenance/{id} [patch]
func (h *PortalHandler) UpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "maintenance request")
	if !ok {
		return
	}
	var req domain.PortalUpdateMaintenanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	request, err := h.maintenanceService.PortalUpdate(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}
