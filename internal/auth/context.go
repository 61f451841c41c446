package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
)

// ActorContext holds the authenticated staff principal
type ActorContext struct {
	UserID uuid.UUID
	Email  string
	Role   domain.UserRole
}

// PortalContext holds the capability carried by a verified tenant portal token
type PortalContext struct {
	ContractID       uuid.UUID
	TenantNationalID string
	Version          int
}

type contextKey string

const (
	actorContextKey  contextKey = "actorContext"
	portalContextKey contextKey = "portalContext"
)

// WithActor adds the staff actor to the context
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// FromContext extracts the staff actor from the context
func FromContext(ctx context.Context) (*ActorContext, bool) {
	actor, ok := ctx.Value(actorContextKey).(*ActorContext)
	return actor, ok && actor != nil
}

// WithPortal adds the portal capability to the context
func WithPortal(ctx context.Context, portal *PortalContext) context.Context {
	return context.WithValue(ctx, portalContextKey, portal)
}

// PortalFromContext extracts the portal capability from the context
func PortalFromContext(ctx context.Context) (*PortalContext, bool) {
	portal, ok := ctx.Value(portalContextKey).(*PortalContext)
	return portal, ok && portal != nil
}

// HasAnyRole checks if the actor has one of the given roles
func (a *ActorContext) HasAnyRole(roles ...domain.UserRole) bool {
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor is a platform admin
func (a *ActorContext) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}
