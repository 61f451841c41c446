package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/service"
	"go.uber.org/zap"
)

type ContractHandler struct {
	contractService *service.ContractService
	logger          *zap.Logger
}

func NewContractHandler(contractService *service.ContractService, logger *zap.Logger) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		logger:          logger,
	}
}

// List godoc
// @Summary List contracts
// @Description Contracts visible to the caller's role. Portal tokens are only included for admins and managers.
// @Tags Contracts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param propertyId query string false "Filter by property" format(uuid)
// @Param tenantId query string false "Filter by tenant" format(uuid)
// @Param active query bool false "Only contracts that have not ended"
// @Param sortBy query string false "Sort field" Enums(createdAt, startDate, endDate, price)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ContractDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /contracts [get]
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	var filter repository.ContractFilter
	var err error
	if filter.PropertyID, err = parseOptionalUUID(r, "propertyId"); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if filter.TenantID, err = parseOptionalUUID(r, "tenantId"); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if r.URL.Query().Get("active") == "true" {
		now := time.Now().UTC()
		filter.ActiveAt = &now
	}

	result, err := h.contractService.List(r.Context(), filter, parseSort(r), page, pageSize)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get contract
// @Tags Contracts
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Success 200 {object} domain.ContractDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /contracts/{id} [get]
func (h *ContractHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contract")
	if !ok {
		return
	}
	contract, err := h.contractService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, contract)
}

// Create godoc
// @Summary Create contract
// @Description Creates a contract, issues the tenant portal link and generates the contract document.
// @Description The property becomes RENTED when the contract is active.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param request body domain.CreateContractRequest true "Contract data"
// @Success 201 {object} domain.ContractDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Property already has an active contract"
// @Security BearerAuth
// @Router /contracts [post]
func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContractRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	contract, err := h.contractService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/contracts/"+contract.ID.String())
	respondJSON(w, http.StatusCreated, contract)
}

// Update godoc
// @Summary Update contract
// @Description Partial update. The tenant cannot be changed. Property status is recomputed for every property involved.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Param request body domain.UpdateContractRequest true "Fields to change"
// @Success 200 {object} domain.ContractDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /contracts/{id} [put]
func (h *ContractHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contract")
	if !ok {
		return
	}
	var req domain.UpdateContractRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	contract, err := h.contractService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, contract)
}

// Delete godoc
// @Summary Delete contract
// @Description Deletes the contract and its maintenance requests, and releases the property if nothing else is active
// @Tags Contracts
// @Param id path string true "Contract ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /contracts/{id} [delete]
func (h *ContractHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contract")
	if !ok {
		return
	}
	if err := h.contractService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Document godoc
// @Summary Download contract document
// @Tags Contracts
// @Produce html
// @Param id path string true "Contract ID" format(uuid)
// @Success 200 {file} file
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /contracts/{id}/document [get]
func (h *ContractHandler) Document(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contract")
	if !ok {
		return
	}
	body, contentType, err := h.contractService.GetDocument(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	streamDocument(w, h.logger, body, contentType, id.String())
}

// RotatePortalToken godoc
// @Summary Rotate tenant portal link
// @Description Issues a new portal token. Previously issued links stop working.
// @Tags Contracts
// @Produce json
// @Param id path string true "Contract ID" format(uuid)
// @Success 200 {object} domain.PortalTokenResponse
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /contracts/{id}/portal-token/rotate [post]
func (h *ContractHandler) RotatePortalToken(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "contract")
	if !ok {
		return
	}
	resp, err := h.contractService.RotatePortalToken(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// streamDocument copies a stored contract document to the response
func streamDocument(w http.ResponseWriter, logger *zap.Logger, body io.ReadCloser, contentType, contractID string) {
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `inline; filename="contract-`+contractID+`.html"`)
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		logger.Warn("failed to stream contract document",
			zap.String("contract_id", contractID),
			zap.Error(err))
	}
}
