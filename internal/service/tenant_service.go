package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/mapper"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/scope"
	"go.uber.org/zap"
)

// ErrDuplicateNationalID is returned when a tenant with the national id already exists
var ErrDuplicateNationalID = domain.NewError(domain.KindConflict, "A tenant with this national id already exists")

// TenantService handles business logic for tenants
type TenantService struct {
	tenantRepo *repository.TenantRepository
	resolver   *scope.Resolver
	logger     *zap.Logger
	now        func() time.Time
}

// NewTenantService creates a new tenant service
func NewTenantService(tenantRepo *repository.TenantRepository, resolver *scope.Resolver, logger *zap.Logger) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		resolver:   resolver,
		logger:     logger,
		now:        utcNow,
	}
}

// Create registers a tenant. A manager creating one becomes its manager.
func (s *TenantService) Create(ctx context.Context, req *domain.CreateTenantRequest) (*domain.TenantDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}

	nationalID := strings.TrimSpace(req.NationalID)
	if _, err := s.tenantRepo.GetByNationalID(ctx, nationalID); err == nil {
		return nil, ErrDuplicateNationalID
	} else if !repository.IsNotFound(err) {
		return nil, internalError("check national id", err)
	}

	tenant := &domain.Tenant{
		NationalID: nationalID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
	}
	if actor.Role == domain.RolePropertyManager {
		tenant.ManagerID = &actor.UserID
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, internalError("create tenant", err)
	}

	s.logger.Info("Tenant created", zap.String("tenant_id", tenant.ID.String()))
	dto := mapper.ToTenantDTO(tenant)
	return &dto, nil
}

// GetByID returns a tenant within the actor's scope
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*domain.TenantDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenantRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindTenant, actor))
	if err != nil {
		return nil, lookupError("Tenant", err)
	}
	dto := mapper.ToTenantDTO(tenant)
	return &dto, nil
}

// List returns tenants within the actor's scope. Owners only see tenants with an
// active lease on one of their properties.
func (s *TenantService) List(ctx context.Context, search string, page, pageSize int) (*domain.PaginatedResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p := repository.NewPage(page, pageSize)
	tenants, total, err := s.tenantRepo.List(ctx, predicateFor(s.resolver, scope.KindTenant, actor), search, p)
	if err != nil {
		return nil, internalError("list tenants", err)
	}

	dtos := make([]domain.TenantDTO, len(tenants))
	for i := range tenants {
		dtos[i] = mapper.ToTenantDTO(&tenants[i])
	}
	return domain.NewPaginatedResponse(dtos, total, p.Number, p.Size), nil
}

// Update changes a tenant's contact details. The national id is immutable.
func (s *TenantService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTenantRequest) (*domain.TenantDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}

	tenant, err := s.tenantRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindTenant, actor))
	if err != nil {
		return nil, mutationLookupError(ctx, s.tenantRepo.Exists, id, "Tenant", err)
	}

	tenant.FirstName = req.FirstName
	tenant.LastName = req.LastName
	tenant.Email = req.Email
	tenant.Phone = req.Phone

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, internalError("update tenant", err)
	}
	dto := mapper.ToTenantDTO(tenant)
	return &dto, nil
}

// Delete removes a tenant. Tenants referenced by an active contract, or by any
// contract history, are kept.
func (s *TenantService) Delete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return err
	}

	tenant, err := s.tenantRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindTenant, actor))
	if err != nil {
		return mutationLookupError(ctx, s.tenantRepo.Exists, id, "Tenant", err)
	}

	active, err := s.tenantRepo.CountActiveContracts(ctx, tenant.ID, s.now())
	if err != nil {
		return internalError("count active contracts", err)
	}
	if active > 0 {
		return domain.NewError(domain.KindConflict, "Tenant has an active contract")
	}
	total, err := s.tenantRepo.CountContracts(ctx, tenant.ID)
	if err != nil {
		return internalError("count contracts", err)
	}
	if total > 0 {
		return domain.NewError(domain.KindConflict, "Tenant has contract history and cannot be deleted")
	}

	if err := s.tenantRepo.Delete(ctx, tenant.ID); err != nil {
		return internalError("delete tenant", err)
	}
	s.logger.Info("Tenant deleted", zap.String("tenant_id", tenant.ID.String()))
	return nil
}
