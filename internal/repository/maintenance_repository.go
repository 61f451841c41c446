package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/scope"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaintenanceFilter holds optional list filters
type MaintenanceFilter struct {
	Status     *domain.MaintenanceStatus
	Priority   *domain.MaintenancePriority
	ContractID *uuid.UUID
}

type MaintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

func (r *MaintenanceRepository) Create(ctx context.Context, req *domain.MaintenanceRequest) error {
	return r.db.WithContext(ctx).Omit("Contract").Create(req).Error
}

// GetByID returns the request if it exists and the predicate admits it
func (r *MaintenanceRepository) GetByID(ctx context.Context, id uuid.UUID, pred scope.Predicate) (*domain.MaintenanceRequest, error) {
	var req domain.MaintenanceRequest
	query := scoped(r.db.WithContext(ctx).Model(&domain.MaintenanceRequest{}).Where("maintenance_requests.id = ?", id), pred)
	if err := query.First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByIDForContract returns the request only if it belongs to the contract
func (r *MaintenanceRepository) GetByIDForContract(ctx context.Context, id, contractID uuid.UUID) (*domain.MaintenanceRequest, error) {
	var req domain.MaintenanceRequest
	err := r.db.WithContext(ctx).
		Where("id = ? AND contract_id = ?", id, contractID).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// LockByID loads the request holding a row lock until the surrounding transaction ends
func (r *MaintenanceRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.MaintenanceRequest, error) {
	var req domain.MaintenanceRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Exists reports whether the request exists regardless of scope
func (r *MaintenanceRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.MaintenanceRequest{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *MaintenanceRepository) Update(ctx context.Context, req *domain.MaintenanceRequest) error {
	return r.db.WithContext(ctx).Omit("Contract").Save(req).Error
}

func (r *MaintenanceRepository) List(ctx context.Context, pred scope.Predicate, filter MaintenanceFilter, page Page) ([]domain.MaintenanceRequest, int64, error) {
	var requests []domain.MaintenanceRequest
	var total int64

	query := scoped(r.db.WithContext(ctx).Model(&domain.MaintenanceRequest{}), pred)
	if filter.Status != nil {
		query = query.Where("maintenance_requests.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("maintenance_requests.priority = ?", *filter.Priority)
	}
	if filter.ContractID != nil {
		query = query.Where("maintenance_requests.contract_id = ?", *filter.ContractID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("maintenance_requests.created_at DESC").Offset(page.Offset()).Limit(page.Size).Find(&requests).Error
	return requests, total, err
}

// DeleteByContract removes every request raised against a contract
func (r *MaintenanceRepository) DeleteByContract(ctx context.Context, contractID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.MaintenanceRequest{}, "contract_id = ?", contractID).Error
}

// WithTx returns a repository bound to an open transaction
func (r *MaintenanceRepository) WithTx(tx *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: tx}
}
