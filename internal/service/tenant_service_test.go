package service_test

import (
	"testing"

	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantService_CreateAndDuplicate(t *testing.T) {
	env := newTestEnv(t)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)

	req := &domain.CreateTenantRequest{
		NationalID: " 01019012345 ",
		FirstName:  "Ola",
		LastName:   "Nordmann",
		Email:      "ola@example.com",
	}
	created, err := env.tenants.Create(staffCtx(manager), req)
	require.NoError(t, err)
	assert.Equal(t, "01019012345", created.NationalID)
	assert.Equal(t, "Ola Nordmann", created.FullName)
	require.NotNil(t, created.ManagerID)
	assert.Equal(t, manager.ID, *created.ManagerID)

	_, err = env.tenants.Create(staffCtx(manager), req)
	assertKind(t, domain.KindConflict, err)
}

func TestTenantService_OwnerSeesOnlyActiveLeases(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	current := testutil.CreateTestTenant(t, env.db, nil)
	former := testutil.CreateTestTenant(t, env.db, nil)
	testutil.CreateTestContract(t, env.db, p, former, testutil.Days(-400), testutil.Days(-40))
	testutil.CreateTestContract(t, env.db, p, current, testutil.Days(-30), testutil.Days(300))

	list, err := env.tenants.List(staffCtx(owner), "", 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, current.ID, list.Data.([]domain.TenantDTO)[0].ID)

	_, err = env.tenants.GetByID(staffCtx(owner), former.ID)
	assertKind(t, domain.KindNotFound, err)

	_, err = env.tenants.Update(staffCtx(owner), current.ID, &domain.UpdateTenantRequest{FirstName: "A", LastName: "B"})
	assertKind(t, domain.KindAccessDenied, err)
}

func TestTenantService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)

	mine := testutil.CreateTestTenant(t, env.db, &manager.ID)
	someoneElses := testutil.CreateTestTenant(t, env.db, nil)
	leased := testutil.CreateTestTenant(t, env.db, nil)
	former := testutil.CreateTestTenant(t, env.db, nil)
	testutil.CreateTestContract(t, env.db, p, leased, testutil.Days(-10), testutil.Days(100))
	testutil.CreateTestContract(t, env.db, p, former, testutil.Days(-400), testutil.Days(-40))

	updated, err := env.tenants.Update(staffCtx(manager), mine.ID, &domain.UpdateTenantRequest{
		FirstName: "Kari",
		LastName:  "Hansen",
		Phone:     "+47 900 00 000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Kari Hansen", updated.FullName)
	assert.Equal(t, mine.NationalID, updated.NationalID)

	err = env.tenants.Delete(staffCtx(manager), someoneElses.ID)
	assertKind(t, domain.KindAccessDenied, err)

	err = env.tenants.Delete(staffCtx(admin), leased.ID)
	assertKind(t, domain.KindConflict, err)

	err = env.tenants.Delete(staffCtx(admin), former.ID)
	assertKind(t, domain.KindConflict, err)

	require.NoError(t, env.tenants.Delete(staffCtx(manager), mine.ID))
	_, err = env.tenants.GetByID(staffCtx(admin), mine.ID)
	assertKind(t, domain.KindNotFound, err)
}
