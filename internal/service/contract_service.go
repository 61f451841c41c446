package service

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/mapper"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/scope"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ContractService owns the contract lifecycle: exclusivity, property status,
// the contract document and the portal token
type ContractService struct {
	db              *gorm.DB
	contractRepo    *repository.ContractRepository
	propertyRepo    *repository.PropertyRepository
	tenantRepo      *repository.TenantRepository
	maintenanceRepo *repository.MaintenanceRepository
	statusSync      *PropertyStatusSynchronizer
	documents       *DocumentService
	tokens          *auth.TokenService
	portal          *PortalAccess
	resolver        *scope.Resolver
	logger          *zap.Logger
	now             func() time.Time
}

// NewContractService creates a new contract service
func NewContractService(
	db *gorm.DB,
	contractRepo *repository.ContractRepository,
	propertyRepo *repository.PropertyRepository,
	tenantRepo *repository.TenantRepository,
	maintenanceRepo *repository.MaintenanceRepository,
	statusSync *PropertyStatusSynchronizer,
	documents *DocumentService,
	tokens *auth.TokenService,
	portal *PortalAccess,
	resolver *scope.Resolver,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		db:              db,
		contractRepo:    contractRepo,
		propertyRepo:    propertyRepo,
		tenantRepo:      tenantRepo,
		maintenanceRepo: maintenanceRepo,
		statusSync:      statusSync,
		documents:       documents,
		tokens:          tokens,
		portal:          portal,
		resolver:        resolver,
		logger:          logger,
		now:             utcNow,
	}
}

// Create creates a contract. The property row stays locked from the exclusivity
// check until the status write commits, so concurrent creates on one property
// serialize and all but the first fail with Conflict.
func (s *ContractService) Create(ctx context.Context, req *domain.CreateContractRequest) (*domain.ContractDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}

	now := s.now()
	var created *domain.Contract
	var documentFor uuid.UUID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := s.propertyRepo.WithTx(tx).LockByID(ctx, req.PropertyID)
		if err != nil {
			return lookupError("Property", err)
		}
		if err := requireManages(actor, property); err != nil {
			return err
		}

		tenant, err := s.tenantRepo.WithTx(tx).GetByID(ctx, req.TenantID, scope.All())
		if err != nil {
			return lookupError("Tenant", err)
		}

		active, err := s.contractRepo.WithTx(tx).CountActiveByProperty(ctx, property.ID, now, nil)
		if err != nil {
			return internalError("count active contracts", err)
		}
		if active > 0 {
			return ErrPropertyAlreadyRented
		}

		if !req.EndDate.After(req.StartDate) {
			return ErrInvalidDateRange
		}

		managerID := property.ManagerID
		if actor.Role == domain.RolePropertyManager {
			managerID = &actor.UserID
		}

		contract := &domain.Contract{
			PropertyID:         property.ID,
			TenantID:           tenant.ID,
			ManagerID:          managerID,
			Price:              req.Price,
			Deposit:            req.Deposit,
			StartDate:          req.StartDate.UTC(),
			EndDate:            req.EndDate.UTC(),
			PaymentFrequency:   req.PaymentFrequency,
			PortalTokenVersion: 1,
			Notes:              req.Notes,
		}
		if err := s.contractRepo.WithTx(tx).Create(ctx, contract); err != nil {
			return internalError("create contract", err)
		}

		token, err := s.tokens.IssuePortalToken(contract.ID, tenant.NationalID, contract.PortalTokenVersion)
		if err != nil {
			return internalError("issue portal token", err)
		}

		if contract.IsActiveAt(now) {
			err = s.statusSync.AfterContractCreated(ctx, tx, property.ID)
		} else {
			err = s.statusSync.Recompute(ctx, tx, property.ID)
		}
		if err != nil {
			return err
		}

		documentURL, err := s.documents.Generate(ctx, contract, property, tenant)
		if err != nil {
			return internalError("generate contract document", err)
		}
		documentFor = contract.ID

		if err := s.contractRepo.WithTx(tx).UpdateArtifacts(ctx, contract.ID, documentURL, token, contract.PortalTokenVersion); err != nil {
			return internalError("store contract artifacts", err)
		}

		contract.DocumentURL = documentURL
		contract.TenantPortalToken = token
		contract.Tenant = tenant
		contract.Property = property
		created = contract
		return nil
	})
	if err != nil {
		if documentFor != uuid.Nil {
			s.documents.Delete(context.WithoutCancel(ctx), documentFor)
		}
		return nil, err
	}

	s.logger.Info("Contract created",
		zap.String("contract_id", created.ID.String()),
		zap.String("property_id", created.PropertyID.String()),
		zap.String("actor_id", actor.UserID.String()),
	)
	dto := mapper.ToContractDTO(created, now, true)
	return &dto, nil
}

// GetByID returns a contract within the actor's scope
func (s *ContractService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContractDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	contract, err := s.contractRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindContract, actor))
	if err != nil {
		return nil, lookupError("Contract", err)
	}
	dto := mapper.ToContractDTO(contract, s.now(), canSeePortalToken(actor))
	return &dto, nil
}

// List returns contracts within the actor's scope
func (s *ContractService) List(ctx context.Context, filter repository.ContractFilter, sort repository.SortConfig, page, pageSize int) (*domain.PaginatedResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p := repository.NewPage(page, pageSize)
	contracts, total, err := s.contractRepo.List(ctx, predicateFor(s.resolver, scope.KindContract, actor), filter, sort, p)
	if err != nil {
		return nil, internalError("list contracts", err)
	}

	now := s.now()
	includeToken := canSeePortalToken(actor)
	dtos := make([]domain.ContractDTO, len(contracts))
	for i := range contracts {
		dtos[i] = mapper.ToContractDTO(&contracts[i], now, includeToken)
	}
	return domain.NewPaginatedResponse(dtos, total, p.Number, p.Size), nil
}

// Update applies changes to a contract. Exclusivity is re-checked against the
// target property whenever the updated contract would be active. The portal token
// is never reissued here.
func (s *ContractService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateContractRequest) (*domain.ContractDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}

	if _, err := s.contractRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindContract, actor)); err != nil {
		return nil, mutationLookupError(ctx, s.contractRepo.Exists, id, "Contract", err)
	}

	now := s.now()
	var updated *domain.Contract

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		propertyRepo := s.propertyRepo.WithTx(tx)
		contractRepo := s.contractRepo.WithTx(tx)

		// The contract row is locked first; its property is read from the locked row
		contract, err := contractRepo.LockByID(ctx, id)
		if err != nil {
			return lookupError("Contract", err)
		}

		oldPropertyID := contract.PropertyID
		newPropertyID := oldPropertyID
		if req.PropertyID != nil {
			newPropertyID = *req.PropertyID
		}

		properties, err := lockProperties(ctx, propertyRepo, oldPropertyID, newPropertyID)
		if err != nil {
			return err
		}
		target := properties[newPropertyID]

		moved := newPropertyID != oldPropertyID
		if moved {
			if err := requireManages(actor, target); err != nil {
				return err
			}
			contract.PropertyID = newPropertyID
			contract.ManagerID = target.ManagerID
		}

		documentChanged := moved
		if req.Price != nil && *req.Price != contract.Price {
			contract.Price = *req.Price
			documentChanged = true
		}
		if req.Deposit != nil && *req.Deposit != contract.Deposit {
			contract.Deposit = *req.Deposit
			documentChanged = true
		}
		if req.StartDate != nil && !req.StartDate.Equal(contract.StartDate) {
			contract.StartDate = req.StartDate.UTC()
			documentChanged = true
		}
		if req.EndDate != nil && !req.EndDate.Equal(contract.EndDate) {
			contract.EndDate = req.EndDate.UTC()
			documentChanged = true
		}
		if req.PaymentFrequency != nil && *req.PaymentFrequency != contract.PaymentFrequency {
			contract.PaymentFrequency = *req.PaymentFrequency
			documentChanged = true
		}
		if req.Notes != nil {
			contract.Notes = *req.Notes
		}

		if !contract.EndDate.After(contract.StartDate) {
			return ErrInvalidDateRange
		}

		if contract.IsActiveAt(now) {
			active, err := contractRepo.CountActiveByProperty(ctx, newPropertyID, now, &contract.ID)
			if err != nil {
				return internalError("count active contracts", err)
			}
			if active > 0 {
				return ErrPropertyAlreadyRented
			}
		}

		if err := contractRepo.Update(ctx, contract); err != nil {
			return internalError("update contract", err)
		}

		if err := s.statusSync.Recompute(ctx, tx, oldPropertyID); err != nil {
			return err
		}
		if moved {
			if err := s.statusSync.Recompute(ctx, tx, newPropertyID); err != nil {
				return err
			}
		}

		if documentChanged {
			documentURL, err := s.documents.Generate(ctx, contract, target, contract.Tenant)
			if err != nil {
				return internalError("generate contract document", err)
			}
			if err := contractRepo.UpdateArtifacts(ctx, contract.ID, documentURL, contract.TenantPortalToken, contract.PortalTokenVersion); err != nil {
				return internalError("store contract artifacts", err)
			}
			contract.DocumentURL = documentURL
		}

		contract.Property = target
		updated = contract
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Contract updated",
		zap.String("contract_id", updated.ID.String()),
		zap.String("actor_id", actor.UserID.String()),
	)
	dto := mapper.ToContractDTO(updated, now, true)
	return &dto, nil
}

// Delete removes a contract and its maintenance requests, then releases the
// property if no other active contract remains
func (s *ContractService) Delete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return err
	}

	if _, err := s.contractRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindContract, actor)); err != nil {
		return mutationLookupError(ctx, s.contractRepo.Exists, id, "Contract", err)
	}

	var propertyID uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.contractRepo.WithTx(tx).LockByID(ctx, id)
		if err != nil {
			return lookupError("Contract", err)
		}
		propertyID = contract.PropertyID

		if _, err := s.propertyRepo.WithTx(tx).LockByID(ctx, propertyID); err != nil {
			return lookupError("Property", err)
		}
		if err := s.maintenanceRepo.WithTx(tx).DeleteByContract(ctx, id); err != nil {
			return internalError("delete maintenance requests", err)
		}
		if err := s.contractRepo.WithTx(tx).Delete(ctx, id); err != nil {
			return internalError("delete contract", err)
		}
		return s.statusSync.AfterContractRemoved(ctx, tx, propertyID)
	})
	if err != nil {
		return err
	}

	s.documents.Delete(ctx, id)
	s.logger.Info("Contract deleted",
		zap.String("contract_id", id.String()),
		zap.String("property_id", propertyID.String()),
		zap.String("actor_id", actor.UserID.String()),
	)
	return nil
}

// GetDocument returns the stored document of a contract within the actor's scope
func (s *ContractService) GetDocument(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, "", err
	}
	if _, err := s.contractRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindContract, actor)); err != nil {
		return nil, "", lookupError("Contract", err)
	}
	rc, err := s.documents.Open(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return rc, s.documents.ContentType(), nil
}

// RotatePortalToken issues a replacement portal token and invalidates every
// earlier one for the contract
func (s *ContractService) RotatePortalToken(ctx context.Context, id uuid.UUID) (*domain.PortalTokenResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin, domain.RolePropertyManager); err != nil {
		return nil, err
	}

	if _, err := s.contractRepo.GetByID(ctx, id, predicateFor(s.resolver, scope.KindContract, actor)); err != nil {
		return nil, mutationLookupError(ctx, s.contractRepo.Exists, id, "Contract", err)
	}

	var resp *domain.PortalTokenResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.contractRepo.WithTx(tx).LockByID(ctx, id)
		if err != nil {
			return lookupError("Contract", err)
		}

		version := contract.PortalTokenVersion + 1
		token, err := s.tokens.IssuePortalToken(contract.ID, contract.Tenant.NationalID, version)
		if err != nil {
			return internalError("issue portal token", err)
		}
		if err := s.contractRepo.WithTx(tx).UpdateArtifacts(ctx, contract.ID, contract.DocumentURL, token, version); err != nil {
			return internalError("store portal token", err)
		}

		resp = &domain.PortalTokenResponse{
			ContractID:        contract.ID,
			TenantPortalToken: token,
			Version:           version,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Portal token rotated",
		zap.String("contract_id", id.String()),
		zap.Int("version", resp.Version),
		zap.String("actor_id", actor.UserID.String()),
	)
	return resp, nil
}

// PortalList returns the contract the portal token grants access to
func (s *ContractService) PortalList(ctx context.Context) ([]domain.ContractDTO, error) {
	contract, err := s.portal.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return []domain.ContractDTO{mapper.ToContractDTO(contract, s.now(), false)}, nil
}

// PortalGetByID returns the token's contract. Any other id is AccessDenied.
func (s *ContractService) PortalGetByID(ctx context.Context, id uuid.UUID) (*domain.ContractDTO, error) {
	contract, err := s.portalContract(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToContractDTO(contract, s.now(), false)
	return &dto, nil
}

// PortalGetDocument returns the document of the token's contract
func (s *ContractService) PortalGetDocument(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	if _, err := s.portalContract(ctx, id); err != nil {
		return nil, "", err
	}
	rc, err := s.documents.Open(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return rc, s.documents.ContentType(), nil
}

func (s *ContractService) portalContract(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	portal, ok := auth.PortalFromContext(ctx)
	if !ok {
		return nil, ErrPortalNotAuthenticated
	}
	if portal.ContractID != id {
		return nil, domain.NewError(domain.KindAccessDenied, "Token does not grant access to this contract")
	}
	return s.portal.Resolve(ctx)
}

// requireManages rejects a property manager acting on a property they do not manage
func requireManages(actor *auth.ActorContext, property *domain.Property) error {
	if actor.Role != domain.RolePropertyManager {
		return nil
	}
	if property.ManagerID == nil || *property.ManagerID != actor.UserID {
		return domain.NewError(domain.KindAccessDenied, "You do not manage this property")
	}
	return nil
}

// lockProperties locks one or two properties in id order so concurrent moves
// between the same pair cannot deadlock
func lockProperties(ctx context.Context, repo *repository.PropertyRepository, a, b uuid.UUID) (map[uuid.UUID]*domain.Property, error) {
	ids := []uuid.UUID{a}
	if b != a {
		if bytes.Compare(b[:], a[:]) < 0 {
			ids = []uuid.UUID{b, a}
		} else {
			ids = append(ids, b)
		}
	}

	locked := make(map[uuid.UUID]*domain.Property, len(ids))
	for _, id := range ids {
		property, err := repo.LockByID(ctx, id)
		if err != nil {
			return nil, lookupError("Property", err)
		}
		locked[id] = property
	}
	return locked, nil
}

// canSeePortalToken reports whether the actor may read stored portal tokens
func canSeePortalToken(actor *auth.ActorContext) bool {
	return actor.HasAnyRole(domain.RoleAdmin, domain.RolePropertyManager)
}
