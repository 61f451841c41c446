package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/scope"
)

// Common service errors
var (
	// ErrPropertyAlreadyRented is returned when a property already has an active contract
	ErrPropertyAlreadyRented = domain.NewError(domain.KindConflict, "Property already has an active contract")

	// ErrInvalidDateRange is returned when a contract does not end after it starts
	ErrInvalidDateRange = domain.NewError(domain.KindValidation, "End date must be after start date")

	// ErrNotAuthenticated is returned when no staff actor is present on the context
	ErrNotAuthenticated = domain.NewError(domain.KindAccessDenied, "Authentication required")

	// ErrPortalNotAuthenticated is returned when no portal capability is present on the context
	ErrPortalNotAuthenticated = domain.NewError(domain.KindInvalidToken, "Portal token required")
)

// utcNow is the default service clock
func utcNow() time.Time {
	return time.Now().UTC()
}

// actorFromContext returns the authenticated staff actor
func actorFromContext(ctx context.Context) (*auth.ActorContext, error) {
	actor, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return actor, nil
}

// requireRole rejects actors without one of the roles
func requireRole(actor *auth.ActorContext, roles ...domain.UserRole) error {
	if !actor.HasAnyRole(roles...) {
		return domain.NewError(domain.KindAccessDenied, "Insufficient permissions")
	}
	return nil
}

// predicateFor resolves the access predicate for the actor on an entity kind
func predicateFor(resolver *scope.Resolver, kind scope.EntityKind, actor *auth.ActorContext) scope.Predicate {
	return resolver.Filter(kind, actor.Role, actor.UserID)
}

// internalError wraps an infrastructure failure
func internalError(op string, err error) error {
	return domain.WrapError(domain.KindInternal, fmt.Sprintf("failed to %s", op), err)
}

// lookupError translates a repository read failure. Typed domain errors pass through.
func lookupError(entity string, err error) error {
	if repository.IsNotFound(err) {
		return domain.NotFoundError(entity)
	}
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return internalError("load "+entity, err)
}

// existsFunc reports whether a record exists regardless of scope
type existsFunc func(ctx context.Context, id uuid.UUID) (bool, error)

// scopeMiss explains a scoped lookup that found nothing: AccessDenied if the record
// exists outside the actor's scope, NotFound otherwise
func scopeMiss(ctx context.Context, exists existsFunc, id uuid.UUID, entity string) error {
	found, err := exists(ctx, id)
	if err != nil {
		return internalError("check "+entity, err)
	}
	if found {
		return domain.NewError(domain.KindAccessDenied, "You do not have access to this "+entity)
	}
	return domain.NotFoundError(entity)
}

// mutationLookupError is lookupError for reads that precede a mutation
func mutationLookupError(ctx context.Context, exists existsFunc, id uuid.UUID, entity string, err error) error {
	if repository.IsNotFound(err) {
		return scopeMiss(ctx, exists, id, entity)
	}
	return lookupError(entity, err)
}
