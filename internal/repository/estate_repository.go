package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/scope"
	"gorm.io/gorm"
)

type EstateRepository struct {
	db *gorm.DB
}

func NewEstateRepository(db *gorm.DB) *EstateRepository {
	return &EstateRepository{db: db}
}

func (r *EstateRepository) Create(ctx context.Context, estate *domain.Estate) error {
	return r.db.WithContext(ctx).Create(estate).Error
}

// GetByID returns the estate if it exists and the predicate admits it
func (r *EstateRepository) GetByID(ctx context.Context, id uuid.UUID, pred scope.Predicate) (*domain.Estate, error) {
	var estate domain.Estate
	query := scoped(r.db.WithContext(ctx).Model(&domain.Estate{}).Where("estates.id = ?", id), pred)
	if err := query.First(&estate).Error; err != nil {
		return nil, err
	}
	return &estate, nil
}

// Exists reports whether the estate exists regardless of scope
func (r *EstateRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Estate{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *EstateRepository) Update(ctx context.Context, estate *domain.Estate) error {
	return r.db.WithContext(ctx).Save(estate).Error
}

func (r *EstateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Estate{}, "id = ?", id).Error
}

func (r *EstateRepository) List(ctx context.Context, pred scope.Predicate, search string, page Page) ([]domain.Estate, int64, error) {
	var estates []domain.Estate
	var total int64

	query := scoped(r.db.WithContext(ctx).Model(&domain.Estate{}), pred)
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(estates.name) LIKE ? OR LOWER(estates.city) LIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("estates.name ASC").Offset(page.Offset()).Limit(page.Size).Find(&estates).Error
	return estates, total, err
}

// CountProperties counts properties attached to an estate
func (r *EstateRepository) CountProperties(ctx context.Context, estateID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Property{}).Where("estate_id = ?", estateID).Count(&count).Error
	return int(count), err
}
