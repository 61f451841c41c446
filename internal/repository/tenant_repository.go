package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/scope"
	"gorm.io/gorm"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *TenantRepository) WithTx(tx *gorm.DB) *TenantRepository {
	return &TenantRepository{db: tx}
}

func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

// GetByID returns the tenant if it exists and the predicate admits it
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID, pred scope.Predicate) (*domain.Tenant, error) {
	var tenant domain.Tenant
	query := scoped(r.db.WithContext(ctx).Model(&domain.Tenant{}).Where("tenants.id = ?", id), pred)
	if err := query.First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantRepository) GetByNationalID(ctx context.Context, nationalID string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "national_id = ?", nationalID).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	return r.db.WithContext(ctx).Save(tenant).Error
}

func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Tenant{}, "id = ?", id).Error
}

func (r *TenantRepository) List(ctx context.Context, pred scope.Predicate, search string, page Page) ([]domain.Tenant, int64, error) {
	var tenants []domain.Tenant
	var total int64

	query := scoped(r.db.WithContext(ctx).Model(&domain.Tenant{}), pred)
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(tenants.first_name) LIKE ? OR LOWER(tenants.last_name) LIKE ? OR tenants.national_id LIKE ?",
			pattern, pattern, pattern,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("tenants.last_name ASC, tenants.first_name ASC").Offset(page.Offset()).Limit(page.Size).Find(&tenants).Error
	return tenants, total, err
}

// CountActiveContracts counts contracts on the tenant with end_date >= now
func (r *TenantRepository) CountActiveContracts(ctx context.Context, tenantID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Contract{}).
		Where("tenant_id = ? AND end_date >= ?", tenantID, now).
		Count(&count).Error
	return count, err
}

// CountContracts counts every contract, active or lapsed, referencing the tenant
func (r *TenantRepository) CountContracts(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Contract{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// Exists reports whether the tenant exists regardless of scope
func (r *TenantRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Tenant{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
