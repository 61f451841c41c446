package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/scope"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PropertyFilter holds optional list filters
type PropertyFilter struct {
	Status   *domain.PropertyStatus
	EstateID *uuid.UUID
	Search   string
}

var propertySortFields = map[string]string{
	"createdAt":   "properties.created_at",
	"updatedAt":   "properties.updated_at",
	"title":       "properties.title",
	"monthlyRent": "properties.monthly_rent",
	"status":      "properties.status",
}

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *PropertyRepository) WithTx(tx *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: tx}
}

func (r *PropertyRepository) Create(ctx context.Context, property *domain.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

// GetByID returns the property if it exists and the predicate admits it
func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID, pred scope.Predicate) (*domain.Property, error) {
	var property domain.Property
	query := scoped(r.db.WithContext(ctx).Model(&domain.Property{}).Where("properties.id = ?", id), pred)
	if err := query.First(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// LockByID loads the property holding a row lock until the surrounding transaction ends.
// Must be called on a repository bound with WithTx.
func (r *PropertyRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	var property domain.Property
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// Exists reports whether the property exists regardless of scope
func (r *PropertyRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Property{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *PropertyRepository) Update(ctx context.Context, property *domain.Property) error {
	return r.db.WithContext(ctx).Save(property).Error
}

// UpdateStatus writes only the status column
func (r *PropertyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PropertyStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Property{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Property{}, "id = ?", id).Error
}

func (r *PropertyRepository) List(ctx context.Context, pred scope.Predicate, filter PropertyFilter, sort SortConfig, page Page) ([]domain.Property, int64, error) {
	var properties []domain.Property
	var total int64

	query := scoped(r.db.WithContext(ctx).Model(&domain.Property{}), pred)
	if filter.Status != nil {
		query = query.Where("properties.status = ?", *filter.Status)
	}
	if filter.EstateID != nil {
		query = query.Where("properties.estate_id = ?", *filter.EstateID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(properties.title) LIKE ? OR LOWER(properties.address) LIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order(BuildOrderClause(sort, propertySortFields, "properties.created_at")).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&properties).Error
	return properties, total, err
}

// ListRentedWithoutActiveContract returns ids of RENTED properties that no
// contract with end_date >= now references any more
func (r *PropertyRepository) ListRentedWithoutActiveContract(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Property{}).
		Where("status = ?", domain.PropertyStatusRented).
		Where("NOT EXISTS (SELECT 1 FROM contracts c WHERE c.property_id = properties.id AND c.end_date >= ?)", now).
		Pluck("id", &ids).Error
	return ids, err
}

// CountContracts counts every contract (active or not) on the property
func (r *PropertyRepository) CountContracts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Contract{}).Where("property_id = ?", id).Count(&count).Error
	return count, err
}
