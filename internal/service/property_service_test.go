package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func propertyUpdate(p *domain.PropertyDTO, status domain.PropertyStatus) *domain.UpdatePropertyRequest {
	return &domain.UpdatePropertyRequest{
		EstateID:    p.EstateID,
		Title:       p.Title,
		Address:     p.Address,
		City:        p.City,
		MonthlyRent: p.MonthlyRent,
		Status:      status,
	}
}

func TestPropertyService_CreateAssignsManager(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	other := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)

	created, err := env.properties.Create(staffCtx(manager), &domain.CreatePropertyRequest{
		OwnerID:   owner.ID,
		ManagerID: &other.ID,
		Title:     "Loft",
		Address:   "Markveien 12",
	})
	require.NoError(t, err)
	require.NotNil(t, created.ManagerID)
	assert.Equal(t, manager.ID, *created.ManagerID, "a manager always manages what they create")
	assert.Equal(t, domain.PropertyStatusAvailable, created.Status)

	_, err = env.properties.Create(staffCtx(manager), &domain.CreatePropertyRequest{
		OwnerID: manager.ID,
		Title:   "Loft",
		Address: "Markveien 12",
	})
	assertKind(t, domain.KindValidation, err)

	_, err = env.properties.Create(staffCtx(owner), &domain.CreatePropertyRequest{
		OwnerID: owner.ID,
		Title:   "Loft",
		Address: "Markveien 12",
	})
	assertKind(t, domain.KindAccessDenied, err)

	_, err = env.properties.Create(context.Background(), &domain.CreatePropertyRequest{OwnerID: owner.ID})
	assertKind(t, domain.KindAccessDenied, err)
}

func TestPropertyService_ScopeByRole(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	otherOwner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)

	mine := testutil.CreateTestProperty(t, env.db, owner.ID, &manager.ID)
	testutil.CreateTestProperty(t, env.db, otherOwner.ID, nil)

	tests := []struct {
		name  string
		user  *domain.User
		total int64
	}{
		{"admin sees all", admin, 2},
		{"owner sees own", owner, 1},
		{"manager sees managed", manager, 1},
		{"other owner sees own", otherOwner, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := env.properties.List(staffCtx(tt.user), repository.PropertyFilter{}, repository.DefaultSortConfig(), 1, 20)
			require.NoError(t, err)
			assert.Equal(t, tt.total, list.Total)
		})
	}

	_, err := env.properties.GetByID(staffCtx(otherOwner), mine.ID)
	assertKind(t, domain.KindNotFound, err)

	_, err = env.properties.GetByID(staffCtx(admin), uuid.New())
	assertKind(t, domain.KindNotFound, err)
}

func TestPropertyService_StatusRules(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	tenant := testutil.CreateTestTenant(t, env.db, nil)
	ctx := staffCtx(admin)

	dto, err := env.properties.GetByID(ctx, p.ID)
	require.NoError(t, err)

	_, err = env.properties.Update(ctx, p.ID, propertyUpdate(dto, domain.PropertyStatusRented))
	assertKind(t, domain.KindValidation, err)

	reserved, err := env.properties.Update(ctx, p.ID, propertyUpdate(dto, domain.PropertyStatusReserved))
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyStatusReserved, reserved.Status)

	_, err = env.properties.Update(ctx, p.ID, propertyUpdate(dto, domain.PropertyStatusAvailable))
	require.NoError(t, err)

	_, err = env.contracts.Create(ctx, contractRequest(p, tenant, testutil.Days(-1), testutil.Days(100)))
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyStatusRented, env.propertyStatus(t, p))

	_, err = env.properties.Update(ctx, p.ID, propertyUpdate(dto, domain.PropertyStatusAvailable))
	assertKind(t, domain.KindConflict, err)

	// field edits that leave status alone are fine while rented
	renamed := propertyUpdate(dto, "")
	renamed.Title = "Renamed"
	updated, err := env.properties.Update(ctx, p.ID, renamed)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, domain.PropertyStatusRented, updated.Status)
}

func TestPropertyService_UpdateOutOfScope(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)

	_, err := env.properties.Update(staffCtx(manager), p.ID, &domain.UpdatePropertyRequest{Title: "x", Address: "y"})
	assertKind(t, domain.KindAccessDenied, err)

	_, err = env.properties.Update(staffCtx(manager), uuid.New(), &domain.UpdatePropertyRequest{Title: "x", Address: "y"})
	assertKind(t, domain.KindNotFound, err)

	err = env.properties.Delete(staffCtx(manager), p.ID)
	assertKind(t, domain.KindAccessDenied, err)
}

func TestPropertyService_DeleteWithContracts(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	tenant := testutil.CreateTestTenant(t, env.db, nil)
	leased := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	empty := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	testutil.CreateTestContract(t, env.db, leased, tenant, testutil.Days(-400), testutil.Days(-40))

	err := env.properties.Delete(staffCtx(admin), leased.ID)
	assertKind(t, domain.KindConflict, err)

	require.NoError(t, env.properties.Delete(staffCtx(admin), empty.ID))
	_, err = env.properties.GetByID(staffCtx(admin), empty.ID)
	assertKind(t, domain.KindNotFound, err)
}

func TestPropertyService_EstateMustBeInScope(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	other := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)

	estate, err := env.estates.Create(staffCtx(other), &domain.CreateEstateRequest{Name: "Grünerløkka Block"})
	require.NoError(t, err)

	_, err = env.properties.Create(staffCtx(manager), &domain.CreatePropertyRequest{
		EstateID: &estate.ID,
		OwnerID:  owner.ID,
		Title:    "Flat 2B",
		Address:  "Thorvald Meyers gate 2",
	})
	assertKind(t, domain.KindValidation, err)

	created, err := env.properties.Create(staffCtx(other), &domain.CreatePropertyRequest{
		EstateID: &estate.ID,
		OwnerID:  owner.ID,
		Title:    "Flat 2B",
		Address:  "Thorvald Meyers gate 2",
	})
	require.NoError(t, err)
	assert.Equal(t, &estate.ID, created.EstateID)
}
