package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/database"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory sqlite database with the full schema.
// A single connection keeps every statement on the same in-memory database
// and serializes transactions.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateTestUser creates a staff user with the given role
func CreateTestUser(t *testing.T, db *gorm.DB, role domain.UserRole) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		DisplayName:  "Test " + string(role),
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestProperty creates an AVAILABLE property owned by ownerID
func CreateTestProperty(t *testing.T, db *gorm.DB, ownerID uuid.UUID, managerID *uuid.UUID) *domain.Property {
	t.Helper()
	property := &domain.Property{
		OwnerID:     ownerID,
		ManagerID:   managerID,
		Title:       "Flat " + uuid.NewString()[:6],
		Address:     "Storgata 1",
		City:        "Oslo",
		MonthlyRent: 15000,
		Status:      domain.PropertyStatusAvailable,
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

// CreateTestTenant creates a tenant with a random national id
func CreateTestTenant(t *testing.T, db *gorm.DB, managerID *uuid.UUID) *domain.Tenant {
	t.Helper()
	tenant := &domain.Tenant{
		NationalID: uuid.NewString()[:11],
		FirstName:  "Kari",
		LastName:   "Nordmann",
		Email:      "kari@example.com",
		ManagerID:  managerID,
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// CreateTestContract inserts a contract directly, bypassing lifecycle checks
func CreateTestContract(t *testing.T, db *gorm.DB, property *domain.Property, tenant *domain.Tenant, start, end time.Time) *domain.Contract {
	t.Helper()
	contract := &domain.Contract{
		PropertyID:         property.ID,
		TenantID:           tenant.ID,
		ManagerID:          property.ManagerID,
		Price:              15000,
		StartDate:          start,
		EndDate:            end,
		PaymentFrequency:   domain.PaymentFrequencyMonthly,
		PortalTokenVersion: 1,
	}
	require.NoError(t, db.Create(contract).Error)
	return contract
}

// Days returns now shifted by n days, in UTC
func Days(n int) time.Time {
	return time.Now().UTC().AddDate(0, 0, n)
}
