package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PropertyStatusSynchronizer keeps a property's status consistent with its contracts:
// RENTED exactly while an active contract exists. RESERVED is staff-owned and only
// replaced when a contract makes the property RENTED.
//
// The After* and Recompute methods run inside the caller's transaction, after the
// property row has been locked.
type PropertyStatusSynchronizer struct {
	db           *gorm.DB
	propertyRepo *repository.PropertyRepository
	contractRepo *repository.ContractRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewPropertyStatusSynchronizer creates a new synchronizer
func NewPropertyStatusSynchronizer(
	db *gorm.DB,
	propertyRepo *repository.PropertyRepository,
	contractRepo *repository.ContractRepository,
	logger *zap.Logger,
) *PropertyStatusSynchronizer {
	return &PropertyStatusSynchronizer{
		db:           db,
		propertyRepo: propertyRepo,
		contractRepo: contractRepo,
		logger:       logger,
		now:          utcNow,
	}
}

// AfterContractCreated marks the property RENTED. The exclusivity check has already passed.
func (s *PropertyStatusSynchronizer) AfterContractCreated(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID) error {
	if err := s.propertyRepo.WithTx(tx).UpdateStatus(ctx, propertyID, domain.PropertyStatusRented); err != nil {
		return internalError("mark property rented", err)
	}
	return nil
}

// AfterContractRemoved recounts active contracts and releases the property when none remain
func (s *PropertyStatusSynchronizer) AfterContractRemoved(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID) error {
	active, err := s.contractRepo.WithTx(tx).CountActiveByProperty(ctx, propertyID, s.now(), nil)
	if err != nil {
		return internalError("count active contracts", err)
	}
	if active > 0 {
		return nil
	}
	return s.release(ctx, tx, propertyID)
}

// Recompute derives the status from the current contract set
func (s *PropertyStatusSynchronizer) Recompute(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID) error {
	active, err := s.contractRepo.WithTx(tx).CountActiveByProperty(ctx, propertyID, s.now(), nil)
	if err != nil {
		return internalError("count active contracts", err)
	}
	if active > 0 {
		return s.AfterContractCreated(ctx, tx, propertyID)
	}
	return s.release(ctx, tx, propertyID)
}

// release flips RENTED to AVAILABLE and leaves AVAILABLE or RESERVED untouched
func (s *PropertyStatusSynchronizer) release(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID) error {
	property, err := s.propertyRepo.WithTx(tx).LockByID(ctx, propertyID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return internalError("load property", err)
	}
	if property.Status != domain.PropertyStatusRented {
		return nil
	}
	if err := s.propertyRepo.WithTx(tx).UpdateStatus(ctx, propertyID, domain.PropertyStatusAvailable); err != nil {
		return internalError("release property", err)
	}
	return nil
}

// ReconcileExpired releases RENTED properties whose last active contract has lapsed.
// It returns the number of properties released.
func (s *PropertyStatusSynchronizer) ReconcileExpired(ctx context.Context) (int, error) {
	ids, err := s.propertyRepo.ListRentedWithoutActiveContract(ctx, s.now())
	if err != nil {
		return 0, internalError("list lapsed properties", err)
	}

	released := 0
	for _, id := range ids {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := s.propertyRepo.WithTx(tx).LockByID(ctx, id); err != nil {
				return err
			}
			return s.AfterContractRemoved(ctx, tx, id)
		})
		if err != nil {
			s.logger.Warn("Failed to release lapsed property",
				zap.String("property_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		released++
	}

	if released > 0 {
		s.logger.Info("Released properties with lapsed contracts", zap.Int("count", released))
	}
	return released, nil
}
