package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/service"
	"go.uber.org/zap"
)

// maxAuditBody caps how much of a request body is copied into the audit trail
const maxAuditBody = 64 << 10

// AuditConfig holds configuration for audit middleware
type AuditConfig struct {
	// SkipPaths contains path prefixes that are never audited
	SkipPaths []string
	// AuditReads enables auditing of GET requests
	AuditReads bool
}

// DefaultAuditConfig returns default audit configuration
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{
			"/health",
			"/swagger",
			"/api/v1/auth/login",
		},
	}
}

// auditEntities maps route segments to audited entity types
var auditEntities = map[string]string{
	"users":        "user",
	"estates":      "estate",
	"properties":   "property",
	"tenants":      "tenant",
	"contracts":    "contract",
	"maintenance":  "maintenance_request",
	"portal-token": "portal_token",
}

// sensitiveFields are dropped from recorded request bodies
var sensitiveFields = []string{"password", "token", "tenantPortalToken", "secret"}

// AuditMiddleware records successful writes to the audit trail. Writes are
// asynchronous and best-effort.
type AuditMiddleware struct {
	auditService *service.AuditLogService
	config       *AuditConfig
	logger       *zap.Logger
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(auditService *service.AuditLogService, config *AuditConfig, logger *zap.Logger) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	return &AuditMiddleware{
		auditService: auditService,
		config:       config,
		logger:       logger,
	}
}

// Audit logs state-changing requests once they complete with a 2xx status
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := methodToAction(r.Method, m.config.AuditReads)
		if action == "" || m.auditService == nil || m.skipped(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		var body []byte
		if r.Body != nil && r.Method != http.MethodDelete {
			body, _ = io.ReadAll(io.LimitReader(r.Body, maxAuditBody))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
		}

		rw := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode < 200 || rw.statusCode >= 300 {
			return
		}

		entityType, entityID := extractEntityInfo(r)
		m.auditService.LogAsync(r.Context(), r, service.LogEntry{
			Action:     action,
			EntityType: entityType,
			EntityID:   entityID,
			NewValues:  sanitizeBody(body),
		})
	})
}

func (m *AuditMiddleware) skipped(path string) bool {
	for _, prefix := range m.config.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func methodToAction(method string, auditReads bool) domain.AuditAction {
	switch method {
	case http.MethodPost:
		return domain.AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return domain.AuditActionUpdate
	case http.MethodDelete:
		return domain.AuditActionDelete
	case http.MethodGet:
		if auditReads {
			return domain.AuditActionRead
		}
	}
	return ""
}

// extractEntityInfo takes the entity from the last known route segment, so
// /contracts/{id}/portal-token/rotate is recorded as a portal_token change
func extractEntityInfo(r *http.Request) (string, *uuid.UUID) {
	path := r.URL.Path
	var entityID *uuid.UUID
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			path = pattern
		}
		if id, err := uuid.Parse(rctx.URLParam("id")); err == nil {
			entityID = &id
		}
	}

	entityType := "unknown"
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if t, ok := auditEntities[part]; ok {
			entityType = t
		}
	}
	return entityType, entityID
}

func sanitizeBody(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var parsed map[string]interface{}
	if json.Unmarshal(body, &parsed) != nil {
		return nil
	}
	for _, field := range sensitiveFields {
		delete(parsed, field)
	}
	return parsed
}

// responseCapture wraps ResponseWriter to capture the status code
type responseCapture struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseCapture) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
