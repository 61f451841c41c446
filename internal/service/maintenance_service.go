package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/mapper"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/scope"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	reportedViaStaff  = "staff"
	reportedViaPortal = "portal"
)

// ErrContractExpired is returned when a maintenance request targets a lapsed contract
var ErrContractExpired = domain.NewError(domain.KindValidation, "Maintenance requests can only be raised against an active contract")

// MaintenanceService handles maintenance requests from staff and from the tenant portal.
// Every status change goes through ValidateMaintenanceTransition.
type MaintenanceService struct {
	db              *gorm.DB
	maintenanceRepo *repository.MaintenanceRepository
	contractRepo    *repository.ContractRepository
	portal          *PortalAccess
	resolver        *scope.Resolver
	logger          *zap.Logger
	now             func() time.Time
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	db *gorm.DB,
	maintenanceRepo *repository.MaintenanceRepository,
	contractRepo *repository.ContractRepository,
	portal *PortalAccess,
	resolver *scope.Resolver,
	logger *zap.Logger,
) *MaintenanceService {
	return &MaintenanceService{
		db:              db,
		maintenanceRepo: maintenanceRepo,
		contractRepo:    contractRepo,
		portal:          portal,
		resolver:        resolver,
		logger:          logger,
		now:             utcNow,
	}
}

// Create raises a request on behalf of a tenant against a contract in the actor's scope
func (s *MaintenanceService) Create(ctx context.Context, req *domain.CreateMaintenanceRequest) (*domain.MaintenanceRequestDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}

	contract, err := s.contractRepo.GetByID(ctx, req.ContractID, predicateFor(s.resolver, scope.KindContract, actor))
	if err != nil {
		return nil, mutationLookupError(ctx, s.contractRepo.Exists, req.ContractID, "Contract", err)
	}

	request, err := s.create(ctx, contract, req.Title, req.Description, req.Images, req.Priority, reportedViaStaff)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToMaintenanceRequestDTO(request)
	return &dto, nil
}

// GetByID returns a request within the actor's scope
func (s *MaintenanceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.MaintenanceRequestDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	request, err := s.maintenanceRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindMaintenance, actor))
	if err != nil {
		return nil, lookupError("Maintenance request", err)
	}
	dto := mapper.ToMaintenanceRequestDTO(request)
	return &dto, nil
}

// List returns requests within the actor's scope
func (s *MaintenanceService) List(ctx context.Context, filter repository.MaintenanceFilter, page, pageSize int) (*domain.PaginatedResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p := repository.NewPage(page, pageSize)
	requests, total, err := s.maintenanceRepo.List(ctx, predicateFor(s.resolver, scope.KindMaintenance, actor), filter, p)
	if err != nil {
		return nil, internalError("list maintenance requests", err)
	}

	dtos := make([]domain.MaintenanceRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = mapper.ToMaintenanceRequestDTO(&requests[i])
	}
	return domain.NewPaginatedResponse(dtos, total, p.Number, p.Size), nil
}

// Update changes the status and/or internal notes of a request in the actor's scope
func (s *MaintenanceService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateMaintenanceRequest) (*domain.MaintenanceRequestDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}
	if req.Status == nil && req.InternalNotes == nil {
		return nil, domain.NewError(domain.KindValidation, "Provide status or internalNotes")
	}

	if _, err := s.maintenanceRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindMaintenance, actor)); err != nil {
		return nil, mutationLookupError(ctx, s.maintenanceRepo.Exists, id, "Maintenance request", err)
	}

	request, err := s.apply(ctx, id, req.Status, req.InternalNotes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Maintenance request updated",
		zap.String("request_id", id.String()),
		zap.String("status", string(request.Status)),
		zap.String("actor_id", actor.UserID.String()),
	)
	dto := mapper.ToMaintenanceRequestDTO(request)
	return &dto, nil
}

// PortalCreate raises a request against the token's contract
func (s *MaintenanceService) PortalCreate(ctx context.Context, req *domain.PortalCreateMaintenanceRequest) (*domain.MaintenanceRequestDTO, error) {
	contract, err := s.portal.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	request, err := s.create(ctx, contract, req.Title, req.Description, req.Images, req.Priority, reportedViaPortal)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToPortalMaintenanceRequestDTO(request)
	return &dto, nil
}

// PortalList returns the requests raised against the token's contract
func (s *MaintenanceService) PortalList(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	contract, err := s.portal.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	p := repository.NewPage(page, pageSize)
	filter := repository.MaintenanceFilter{ContractID: &contract.ID}
	requests, total, err := s.maintenanceRepo.List(ctx, scope.All(), filter, p)
	if err != nil {
		return nil, internalError("list maintenance requests", err)
	}

	dtos := make([]domain.MaintenanceRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = mapper.ToPortalMaintenanceRequestDTO(&requests[i])
	}
	return domain.NewPaginatedResponse(dtos, total, p.Number, p.Size), nil
}

// PortalGetByID returns one of the token's contract's requests
func (s *MaintenanceService) PortalGetByID(ctx context.Context, id uuid.UUID) (*domain.MaintenanceRequestDTO, error) {
	contract, err := s.portal.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	request, err := s.maintenanceRepo.GetByIDForContract(ctx, id, contract.ID)
	if err != nil {
		return nil, lookupError("Maintenance request", err)
	}
	dto := mapper.ToPortalMaintenanceRequestDTO(request)
	return &dto, nil
}

// PortalUpdate lets the tenant cancel one of their own requests
func (s *MaintenanceService) PortalUpdate(ctx context.Context, id uuid.UUID, req *domain.PortalUpdateMaintenanceRequest) (*domain.MaintenanceRequestDTO, error) {
	contract, err := s.portal.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.MaintenanceStatusCancelled {
		return nil, domain.NewError(domain.KindAccessDenied, "Tenants can only cancel maintenance requests")
	}
	if _, err := s.maintenanceRepo.GetByIDForContract(ctx, id, contract.ID); err != nil {
		return nil, lookupError("Maintenance request", err)
	}

	status := req.Status
	request, err := s.apply(ctx, id, &status, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Maintenance request cancelled by tenant",
		zap.String("request_id", id.String()),
		zap.String("contract_id", contract.ID.String()),
	)
	dto := mapper.ToPortalMaintenanceRequestDTO(request)
	return &dto, nil
}

func (s *MaintenanceService) create(
	ctx context.Context,
	contract *domain.Contract,
	title, description string,
	images []string,
	priority domain.MaintenancePriority,
	reportedVia string,
) (*domain.MaintenanceRequest, error) {
	if !contract.IsActiveAt(s.now()) {
		return nil, ErrContractExpired
	}
	if priority == "" {
		priority = domain.MaintenancePriorityMedium
	}

	request := &domain.MaintenanceRequest{
		ContractID:  contract.ID,
		TenantID:    contract.TenantID,
		Title:       title,
		Description: description,
		Images:      domain.ImageList(images),
		Priority:    priority,
		Status:      domain.MaintenanceStatusPending,
		ReportedVia: reportedVia,
	}
	if err := s.maintenanceRepo.Create(ctx, request); err != nil {
		return nil, internalError("create maintenance request", err)
	}

	s.logger.Info("Maintenance request created",
		zap.String("request_id", request.ID.String()),
		zap.String("contract_id", contract.ID.String()),
		zap.String("reported_via", reportedVia),
	)
	return request, nil
}

// apply runs a status change and/or notes edit under a row lock
func (s *MaintenanceService) apply(ctx context.Context, id uuid.UUID, status *domain.MaintenanceStatus, notes *string) (*domain.MaintenanceRequest, error) {
	var result *domain.MaintenanceRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.maintenanceRepo.WithTx(tx)
		request, err := repo.LockByID(ctx, id)
		if err != nil {
			return lookupError("Maintenance request", err)
		}

		if status != nil {
			if err := ValidateMaintenanceTransition(request.Status, *status); err != nil {
				return err
			}
		} else if request.Status.IsTerminal() {
			return domain.NewError(domain.KindInvalidTransition,
				fmt.Sprintf("Cannot edit a %s request", request.Status))
		}

		if status != nil {
			request.Status = *status
			if request.Status.IsTerminal() {
				resolvedAt := s.now()
				request.ResolvedAt = &resolvedAt
			}
		}
		if notes != nil {
			request.InternalNotes = *notes
		}

		if err := repo.Update(ctx, request); err != nil {
			return internalError("update maintenance request", err)
		}
		result = request
		return nil
	})
	return result, err
}
