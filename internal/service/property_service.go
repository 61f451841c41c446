package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/mapper"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/scope"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PropertyService handles business logic for properties
type PropertyService struct {
	db           *gorm.DB
	propertyRepo *repository.PropertyRepository
	estateRepo   *repository.EstateRepository
	contractRepo *repository.ContractRepository
	userRepo     *repository.UserRepository
	resolver     *scope.Resolver
	logger       *zap.Logger
	now          func() time.Time
}

// NewPropertyService creates a new property service
func NewPropertyService(
	db *gorm.DB,
	propertyRepo *repository.PropertyRepository,
	estateRepo *repository.EstateRepository,
	contractRepo *repository.ContractRepository,
	userRepo *repository.UserRepository,
	resolver *scope.Resolver,
	logger *zap.Logger,
) *PropertyService {
	return &PropertyService{
		db:           db,
		propertyRepo: propertyRepo,
		estateRepo:   estateRepo,
		contractRepo: contractRepo,
		userRepo:     userRepo,
		resolver:     resolver,
		logger:       logger,
		now:          utcNow,
	}
}

// Create registers a property. New properties start AVAILABLE.
func (s *PropertyService) Create(ctx context.Context, req *domain.CreatePropertyRequest) (*domain.PropertyDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}

	if err := checkUserRole(ctx, s.userRepo, req.OwnerID, domain.RolePropertyOwner, "ownerId"); err != nil {
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

	if req.EstateID != nil {
		if err := s.checkEstate(ctx, actor.Role, actor.UserID, *req.EstateID); err != nil {
			return nil, err
		}
	}

	property := &domain.Property{
		EstateID:    req.EstateID,
		OwnerID:     req.OwnerID,
		ManagerID:   managerID,
		Title:       req.Title,
		Address:     req.Address,
		City:        req.City,
		UnitNumber:  req.UnitNumber,
		AreaSqm:     req.AreaSqm,
		Rooms:       req.Rooms,
		MonthlyRent: req.MonthlyRent,
		Status:      domain.PropertyStatusAvailable,
		Description: req.Description,
	}
	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, internalError("create property", err)
	}

	s.logger.Info("Property created",
		zap.String("property_id", property.ID.String()),
		zap.String("owner_id", property.OwnerID.String()),
	)
	dto := mapper.ToPropertyDTO(property)
	return &dto, nil
}

// GetByID returns a property within the actor's scope
func (s *PropertyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PropertyDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	property, err := s.propertyRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindProperty, actor))
	if err != nil {
		return nil, lookupError("Property", err)
	}
	dto := mapper.ToPropertyDTO(property)
	return &dto, nil
}

// List returns properties within the actor's scope
func (s *PropertyService) List(ctx context.Context, filter repository.PropertyFilter, sort repository.SortConfig, page, pageSize int) (*domain.PaginatedResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p := repository.NewPage(page, pageSize)
	properties, total, err := s.propertyRepo.List(ctx, predicateFor(s.resolver, scope.KindProperty, actor), filter, sort, p)
	if err != nil {
		return nil, internalError("list properties", err)
	}

	dtos := make([]domain.PropertyDTO, len(properties))
	for i := range properties {
		dtos[i] = mapper.ToPropertyDTO(&properties[i])
	}
	return domain.NewPaginatedResponse(dtos, total, p.Number, p.Size), nil
}

// Update changes a property within the actor's scope. Staff may set AVAILABLE or
// RESERVED; RENTED is derived from contracts and cannot be set or left while an
// active contract exists.
func (s *PropertyService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePropertyRequest) (*domain.PropertyDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}

	pred := predicateFor(s.resolver, scope.KindProperty, actor)
	if _, err := s.propertyRepo.GetByID(ctx, id, pred); err != nil {
		return nil, mutationLookupError(ctx, s.propertyRepo.Exists, id, "Property", err)
	}

	if req.EstateID != nil {
		if err := s.checkEstate(ctx, actor.Role, actor.UserID, *req.EstateID); err != nil {
			return nil, err
		}
	}

	var updated *domain.Property
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := s.propertyRepo.WithTx(tx).LockByID(ctx, id)
		if err != nil {
			return lookupError("Property", err)
		}

		if req.Status != "" && req.Status != property.Status {
			if req.Status == domain.PropertyStatusRented {
				return domain.NewError(domain.KindValidation, "RENTED is set by contracts, not directly")
			}
			active, err := s.contractRepo.WithTx(tx).CountActiveByProperty(ctx, id, s.now(), nil)
			if err != nil {
				return internalError("count active contracts", err)
			}
			if active > 0 {
				return domain.NewError(domain.KindConflict, "Property has an active contract")
			}
			property.Status = req.Status
		}

		property.EstateID = req.EstateID
		property.Title = req.Title
		property.Address = req.Address
		property.City = req.City
		property.UnitNumber = req.UnitNumber
		property.AreaSqm = req.AreaSqm
		property.Rooms = req.Rooms
		property.MonthlyRent = req.MonthlyRent
		property.Description = req.Description

		if err := s.propertyRepo.WithTx(tx).Update(ctx, property); err != nil {
			return internalError("update property", err)
		}
		updated = property
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToPropertyDTO(updated)
	return &dto, nil
}

// Delete removes a property that no contract has ever referenced
func (s *PropertyService) Delete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return err
	}

	if _, err := s.propertyRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindProperty, actor)); err != nil {
		return mutationLookupError(ctx, s.propertyRepo.Exists, id, "Property", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.propertyRepo.WithTx(tx)
		if _, err := repo.LockByID(ctx, id); err != nil {
			return lookupError("Property", err)
		}
		count, err := repo.CountContracts(ctx, id)
		if err != nil {
			return internalError("count contracts", err)
		}
		if count > 0 {
			return domain.NewError(domain.KindConflict, "Property has contracts and cannot be deleted")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return internalError("delete property", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Property deleted", zap.String("property_id", id.String()))
	return nil
}

// checkEstate requires the estate to exist within the actor's scope
func (s *PropertyService) checkEstate(ctx context.Context, role domain.UserRole, actorID, estateID uuid.UUID) error {
	pred := s.resolver.Filter(scope.KindEstate, role, actorID)
	if _, err := s.estateRepo.GetByID(ctx, estateID, pred); err != nil {
		if repository.IsNotFound(err) {
			return domain.NewError(domain.KindValidation, "estateId must reference an accessible estate")
		}
		return internalError("load estate", err)
	}
	return nil
}
