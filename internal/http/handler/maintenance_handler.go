package handler

import (
	"net/http"

	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/service"
	"go.uber.org/zap"
)

type MaintenanceHandler struct {
	maintenanceService *service.MaintenanceService
	logger             *zap.Logger
}

func NewMaintenanceHandler(maintenanceService *service.MaintenanceService, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
		logger:             logger,
	}
}

// List godoc
// @Summary List maintenance requests
// @Tags Maintenance
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(PENDING, IN_PROGRESS, COMPLETED, CANCELLED)
// @Param priority query string false "Filter by priority" Enums(LOW, MEDIUM, HIGH, URGENT)
// @Param contractId query string false "Filter by contract" format(uuid)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.MaintenanceRequestDTO}
// @Security BearerAuth
// @Router /maintenance [get]
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	var filter repository.MaintenanceFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.MaintenanceStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("priority"); raw != "" {
		priority := domain.MaintenancePriority(raw)
		filter.Priority = &priority
	}
	contractID, err := parseOptionalUUID(r, "contractId")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	filter.ContractID = contractID

	result, err := h.maintenanceService.List(r.Context(), filter, page, pageSize)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get maintenance request
// @Tags Maintenance
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Success 200 {object} domain.MaintenanceRequestDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /maintenance/{id} [get]
func (h *MaintenanceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "maintenance request")
	if !ok {
		return
	}
	request, err := h.maintenanceService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// Create godoc
// @Summary Raise maintenance request
// @Description Raise a request on behalf of the tenant of an active contract
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param request body domain.CreateMaintenanceRequest true "Request data"
// @Success 201 {object} domain.MaintenanceRequestDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /maintenance [post]
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMaintenanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	request, err := h.maintenanceService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/maintenance/"+request.ID.String())
	respondJSON(w, http.StatusCreated, request)
}

// Update godoc
// @Summary Update maintenance request
// @Description Change status and/or internal notes. Allowed moves: PENDING to IN_PROGRESS or CANCELLED, IN_PROGRESS to COMPLETED or CANCELLED.
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Param request body domain.UpdateMaintenanceRequest true "Changes"
// @Success 200 {object} domain.MaintenanceRequestDTO
// @Failure 400 {object} domain.APIError "Invalid transition"
// @Failure 409 {object} domain.APIError "Already in the requested state"
// @Security BearerAuth
// @Router /maintenance/{id} [patch]
func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "maintenance request")
	if !ok {
		return
	}
	var req domain.UpdateMaintenanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	request, err := h.maintenanceService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}
