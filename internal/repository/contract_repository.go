package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/scope"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContractFilter holds optional list filters
type ContractFilter struct {
	PropertyID *uuid.UUID
	TenantID   *uuid.UUID
	// ActiveAt keeps only contracts with end_date >= ActiveAt
	ActiveAt *time.Time
}

var contractSortFields = map[string]string{
	"createdAt": "contracts.created_at",
	"startDate": "contracts.start_date",
	"endDate":   "contracts.end_date",
	"price":     "contracts.price",
}

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *ContractRepository) WithTx(tx *gorm.DB) *ContractRepository {
	return &ContractRepository{db: tx}
}

func (r *ContractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	return r.db.WithContext(ctx).Omit("Property", "Tenant").Create(contract).Error
}

// GetByID returns the contract with property and tenant loaded if the predicate admits it
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID, pred scope.Predicate) (*domain.Contract, error) {
	var contract domain.Contract
	query := scoped(r.db.WithContext(ctx).Model(&domain.Contract{}).Where("contracts.id = ?", id), pred)
	if err := query.Preload("Property").Preload("Tenant").First(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

// LockByID loads the contract with its tenant, holding a row lock until the
// surrounding transaction ends
func (r *ContractRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	var tenant domain.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "id = ?", contract.TenantID).Error; err != nil {
		return nil, err
	}
	contract.Tenant = &tenant
	return &contract, nil
}

// Exists reports whether the contract exists regardless of scope
func (r *ContractRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Contract{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *ContractRepository) Update(ctx context.Context, contract *domain.Contract) error {
	return r.db.WithContext(ctx).Omit("Property", "Tenant").Save(contract).Error
}

// UpdateArtifacts writes the generated document location and portal token
func (r *ContractRepository) UpdateArtifacts(ctx context.Context, id uuid.UUID, documentURL, token string, version int) error {
	return r.db.WithContext(ctx).Model(&domain.Contract{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"document_url":         documentURL,
			"tenant_portal_token":  token,
			"portal_token_version": version,
			"updated_at":           time.Now().UTC(),
		}).Error
}

func (r *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Contract{}, "id = ?", id).Error
}

func (r *ContractRepository) List(ctx context.Context, pred scope.Predicate, filter ContractFilter, sort SortConfig, page Page) ([]domain.Contract, int64, error) {
	var contracts []domain.Contract
	var total int64

	query := scoped(r.db.WithContext(ctx).Model(&domain.Contract{}), pred)
	if filter.PropertyID != nil {
		query = query.Where("contracts.property_id = ?", *filter.PropertyID)
	}
	if filter.TenantID != nil {
		query = query.Where("contracts.tenant_id = ?", *filter.TenantID)
	}
	if filter.ActiveAt != nil {
		query = query.Where("contracts.end_date >= ?", *filter.ActiveAt)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Property").
		Preload("Tenant").
		Order(BuildOrderClause(sort, contractSortFields, "contracts.created_at")).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&contracts).Error
	return contracts, total, err
}

// CountActiveByProperty counts contracts on the property with end_date >= now,
// optionally ignoring one contract (the one being updated)
func (r *ContractRepository) CountActiveByProperty(ctx context.Context, propertyID uuid.UUID, now time.Time, excludeID *uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Contract{}).
		Where("property_id = ? AND end_date >= ?", propertyID, now)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count, err
}
