package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/mapper"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/scope"
	"go.uber.org/zap"
)

// EstateService handles business logic for estates
type EstateService struct {
	estateRepo *repository.EstateRepository
	userRepo   *repository.UserRepository
	resolver   *scope.Resolver
	logger     *zap.Logger
}

// NewEstateService creates a new estate service
func NewEstateService(
	estateRepo *repository.EstateRepository,
	userRepo *repository.UserRepository,
	resolver *scope.Resolver,
	logger *zap.Logger,
) *EstateService {
	return &EstateService{
		estateRepo: estateRepo,
		userRepo:   userRepo,
		resolver:   resolver,
		logger:     logger,
	}
}

// Create creates an estate. A manager creating one becomes its manager.
func (s *EstateService) Create(ctx context.Context, req *domain.CreateEstateRequest) (*domain.EstateDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}

	managerID := req.ManagerID
	if actor.Role == domain.RolePropertyManager {
		managerID = &actor.UserID
	} else if managerID != nil {
		if err := checkUserRole(ctx, s.userRepo, *managerID, domain.RolePropertyManager, "managerId"); err != nil {
			return nil, err
		}
	}
	if req.OwnerID != nil {
		if err := checkUserRole(ctx, s.userRepo, *req.OwnerID, domain.RolePropertyOwner, "ownerId"); err != nil {
			return nil, err
		}
	}

	estate := &domain.Estate{
		Name:       req.Name,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		ManagerID:  managerID,
		OwnerID:    req.OwnerID,
	}
	if err := s.estateRepo.Create(ctx, estate); err != nil {
		return nil, internalError("create estate", err)
	}

	s.logger.Info("Estate created", zap.String("estate_id", estate.ID.String()))
	dto := mapper.ToEstateDTO(estate, 0)
	return &dto, nil
}

// GetByID returns an estate within the actor's scope
func (s *EstateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.EstateDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	estate, err := s.estateRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindEstate, actor))
	if err != nil {
		return nil, lookupError("Estate", err)
	}
	count, err := s.estateRepo.CountProperties(ctx, estate.ID)
	if err != nil {
		return nil, internalError("count properties", err)
	}
	dto := mapper.ToEstateDTO(estate, count)
	return &dto, nil
}

// List returns estates within the actor's scope
func (s *EstateService) List(ctx context.Context, search string, page, pageSize int) (*domain.PaginatedResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p := repository.NewPage(page, pageSize)
	estates, total, err := s.estateRepo.List(ctx, predicateFor(s.resolver, scope.KindEstate, actor), search, p)
	if err != nil {
		return nil, internalError("list estates", err)
	}

	dtos := make([]domain.EstateDTO, len(estates))
	for i := range estates {
		count, err := s.estateRepo.CountProperties(ctx, estates[i].ID)
		if err != nil {
			return nil, internalError("count properties", err)
		}
		dtos[i] = mapper.ToEstateDTO(&estates[i], count)
	}
	return domain.NewPaginatedResponse(dtos, total, p.Number, p.Size), nil
}

// Update changes an estate within the actor's scope
func (s *EstateService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateEstateRequest) (*domain.EstateDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}

	estate, err := s.estateRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindEstate, actor))
	if err != nil {
		return nil, mutationLookupError(ctx, s.estateRepo.Exists, id, "Estate", err)
	}
	if req.OwnerID != nil {
		if err := checkUserRole(ctx, s.userRepo, *req.OwnerID, domain.RolePropertyOwner, "ownerId"); err != nil {
			return nil, err
		}
	}

	estate.Name = req.Name
	estate.Address = req.Address
	estate.City = req.City
	estate.PostalCode = req.PostalCode
	estate.OwnerID = req.OwnerID

	if err := s.estateRepo.Update(ctx, estate); err != nil {
		return nil, internalError("update estate", err)
	}

	count, err := s.estateRepo.CountProperties(ctx, estate.ID)
	if err != nil {
		return nil, internalError("count properties", err)
	}
	dto := mapper.ToEstateDTO(estate, count)
	return &dto, nil
}

// Delete removes an estate that no property references
func (s *EstateService) Delete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return err
	}

	estate, err := s.estateRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindEstate, actor))
	if err != nil {
		return mutationLookupError(ctx, s.estateRepo.Exists, id, "Estate", err)
	}

	count, err := s.estateRepo.CountProperties(ctx, estate.ID)
	if err != nil {
		return internalError("count properties", err)
	}
	if count > 0 {
		return domain.NewError(domain.KindConflict, "Estate still has properties")
	}

	if err := s.estateRepo.Delete(ctx, estate.ID); err != nil {
		return internalError("delete estate", err)
	}
	s.logger.Info("Estate deleted", zap.String("estate_id", estate.ID.String()))
	return nil
}
