package handler

import (
	"net/http"
	"time"

	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles audit log related HTTP requests
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit logs
// @Description Returns a paginated list of audit log entries, newest first
// @Tags Audit
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param actorId query string false "Filter by actor (user id or portal:<contract id>)"
// @Param action query string false "Filter by action" Enums(create, update, delete, login, read)
// @Param entityType query string false "Filter by entity type"
// @Param entityId query string false "Filter by entity ID" format(uuid)
// @Param startTime query string false "Filter by start time (RFC3339)"
// @Param endTime query string false "Filter by end time (RFC3339)"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.AuditLogDTO}
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	q := r.URL.Query()

	filter := &repository.AuditLogFilter{
		ActorID:    q.Get("actorId"),
		EntityType: q.Get("entityType"),
	}
	if raw := q.Get("action"); raw != "" {
		action := domain.AuditAction(raw)
		filter.Action = &action
	}

	var err error
	if filter.EntityID, err = parseOptionalUUID(r, "entityId"); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if filter.StartTime, err = parseOptionalTime(r, "startTime"); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if filter.EndTime, err = parseOptionalTime(r, "endTime"); err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.auditService.List(r.Context(), filter, page, pageSize)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func parseOptionalTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewError(domain.KindValidation, name+" must be an RFC3339 timestamp")
	}
	return &t, nil
}
