package service

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"go.uber.org/zap"
)

// AuditLogService writes the append-only audit trail. Writes are best-effort.
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LogEntry represents the input for creating an audit log entry
type LogEntry struct {
	Action     domain.AuditAction
	EntityType string
	EntityID   *uuid.UUID
	NewValues  interface{}
}

// Log creates an audit log entry from context and request
func (s *AuditLogService) Log(ctx context.Context, r *http.Request, entry LogEntry) error {
	auditLog := &domain.AuditLog{
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		NewValues:   "null",
		PerformedAt: time.Now().UTC(),
	}

	if actor, ok := auth.FromContext(ctx); ok {
		auditLog.ActorID = actor.UserID.String()
		auditLog.ActorEmail = actor.Email
		auditLog.ActorRole = string(actor.Role)
	} else if portal, ok := auth.PortalFromContext(ctx); ok {
		auditLog.ActorID = "portal:" + portal.ContractID.String()
		auditLog.ActorRole = "TENANT_PORTAL"
	}

	if r != nil {
		auditLog.IPAddress = clientIP(r)
		auditLog.UserAgent = r.UserAgent()
		auditLog.RequestID = r.Header.Get("X-Request-ID")
	}

	if entry.NewValues != nil {
		if newJSON, err := json.Marshal(entry.NewValues); err == nil {
			auditLog.NewValues = string(newJSON)
		}
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.logger.Error("failed to create audit log",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
		return err
	}
	return nil
}

// LogAsync writes the entry in the background, detached from the request's cancellation
func (s *AuditLogService) LogAsync(ctx context.Context, r *http.Request, entry LogEntry) {
	detached := context.WithoutCancel(ctx)
	go func() {
		_ = s.Log(detached, r, entry)
	}()
}

// List returns audit entries, newest first
func (s *AuditLogService) List(ctx context.Context, filter *repository.AuditLogFilter, page, pageSize int) (*domain.PaginatedResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	p := repository.NewPage(page, pageSize)
	logs, total, err := s.auditRepo.List(ctx, filter, p)
	if err != nil {
		return nil, internalError("list audit logs", err)
	}

	dtos := make([]domain.AuditLogDTO, len(logs))
	for i := range logs {
		dtos[i] = toAuditLogDTO(&logs[i])
	}
	return domain.NewPaginatedResponse(dtos, total, p.Number, p.Size), nil
}

// PurgeOlderThan applies the retention policy
func (s *AuditLogService) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	deleted, err := s.auditRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, internalError("purge audit logs", err)
	}
	return deleted, nil
}

func toAuditLogDTO(l *domain.AuditLog) domain.AuditLogDTO {
	return domain.AuditLogDTO{
		ID:          l.ID,
		Action:      l.Action,
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		ActorID:     l.ActorID,
		ActorEmail:  l.ActorEmail,
		ActorRole:   l.ActorRole,
		IPAddress:   l.IPAddress,
		RequestID:   l.RequestID,
		NewValues:   json.RawMessage(l.NewValues),
		PerformedAt: l.PerformedAt.UTC().Format(time.RFC3339),
	}
}

// clientIP extracts the client IP, preferring proxy headers
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
