package handler

import (
	"net/http"

	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/service"
	"go.uber.org/zap"
)

type EstateHandler struct {
	estateService *service.EstateService
	logger        *zap.Logger
}

func NewEstateHandler(estateService *service.EstateService, logger *zap.Logger) *EstateHandler {
	return &EstateHandler{
		estateService: estateService,
		logger:        logger,
	}
}

// List godoc
// @Summary List estates
// @Description Estates visible to the caller. Managers see their own, owners those they own.
// @Tags Estates
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by name or address"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.EstateDTO}
// @Security BearerAuth
// @Router /estates [get]
func (h *EstateHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	result, err := h.estateService.List(r.Context(), r.URL.Query().Get("search"), page, pageSize)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get estate
// @Tags Estates
// @Produce json
// @Param id path string true "Estate ID" format(uuid)
// @Success 200 {object} domain.EstateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /estates/{id} [get]
func (h *EstateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "estate")
	if !ok {
		return
	}
	estate, err := h.estateService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, estate)
}

// Create godoc
// @Summary Create estate
// @Tags Estates
// @Accept json
// @Produce json
// @Param request body domain.CreateEstateRequest true "Estate data"
// @Success 201 {object} domain.EstateDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /estates [post]
func (h *EstateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEstateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	estate, err := h.estateService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/estates/"+estate.ID.String())
	respondJSON(w, http.StatusCreated, estate)
}

// Update godoc
// @Summary Update estate
// @Tags Estates
// @Accept json
// @Produce json
// @Param id path string true "Estate ID" format(uuid)
// @Param request body domain.UpdateEstateRequest true "Estate data"
// @Success 200 {object} domain.EstateDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /estates/{id} [put]
func (h *EstateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "estate")
	if !ok {
		return
	}
	var req domain.UpdateEstateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	estate, err := h.estateService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, estate)
}

// Delete godoc
// @Summary Delete estate
// @Description Only estates without properties can be deleted
// @Tags Estates
// @Param id path string true "Estate ID" format(uuid)
// @Success 204
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /estates/{id} [delete]
func (h *EstateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "estate")
	if !ok {
		return
	}
	if err := h.estateService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
