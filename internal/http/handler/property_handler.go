package handler

import (
	"net/http"

	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/service"
	"go.uber.org/zap"
)

type PropertyHandler struct {
	propertyService *service.PropertyService
	logger          *zap.Logger
}

func NewPropertyHandler(propertyService *service.PropertyService, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		logger:          logger,
	}
}

// List godoc
// @Summary List properties
// @Description Properties visible to the caller's role
// @Tags Properties
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(AVAILABLE, RENTED, RESERVED)
// @Param estateId query string false "Filter by estate" format(uuid)
// @Param search query string false "Search title, address or city"
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, title, monthlyRent, city)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PropertyDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /properties [get]
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filter := repository.PropertyFilter{Search: r.URL.Query().Get("search")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.PropertyStatus(raw)
		filter.Status = &status
	}
	estateID, err := parseOptionalUUID(r, "estateId")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	filter.EstateID = estateID

	result, err := h.propertyService.List(r.Context(), filter, parseSort(r), page, pageSize)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get property
// @Tags Properties
// @Produce json
// @Param id path string true "Property ID" format(uuid)
// @Success 200 {object} domain.PropertyDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /properties/{id} [get]
func (h *PropertyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "property")
	if !ok {
		return
	}
	property, err := h.propertyService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

// Create godoc
// @Summary Create property
// @Description New properties start AVAILABLE. A manager creating a property becomes its manager.
// @Tags Properties
// @Accept json
// @Produce json
// @Param request body domain.CreatePropertyRequest true "Property data"
// @Success 201 {object} domain.PropertyDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /properties [post]
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePropertyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	property, err := h.propertyService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/properties/"+property.ID.String())
	respondJSON(w, http.StatusCreated, property)
}

// Update godoc
// @Summary Update property
// @Description Status may be set to AVAILABLE or RESERVED while no contract is active. RENTED follows contracts.
// @Tags Properties
// @Accept json
// @Produce json
// @Param id path string true "Property ID" format(uuid)
// @Param request body domain.UpdatePropertyRequest true "Property data"
// @Success 200 {object} domain.PropertyDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /properties/{id} [put]
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "property")
	if !ok {
		return
	}
	var req domain.UpdatePropertyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	property, err := h.propertyService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

// Delete godoc
// @Summary Delete property
// @Description Properties referenced by any contract cannot be deleted
// @Tags Properties
// @Param id path string true "Property ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /properties/{id} [delete]
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "property")
	if !ok {
		return
	}
	if err := h.propertyService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
