package service_test

import (
	"testing"

	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstateService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	other := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)

	_, err := env.estates.Create(staffCtx(admin), &domain.CreateEstateRequest{Name: "Block A", ManagerID: &owner.ID})
	assertKind(t, domain.KindValidation, err)

	estate, err := env.estates.Create(staffCtx(admin), &domain.CreateEstateRequest{Name: "Block A", ManagerID: &manager.ID, OwnerID: &owner.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, estate.PropertyCount)

	_, err = env.properties.Create(staffCtx(manager), &domain.CreatePropertyRequest{
		EstateID: &estate.ID,
		OwnerID:  owner.ID,
		Title:    "A1",
		Address:  "Blokkveien 1",
	})
	require.NoError(t, err)

	got, err := env.estates.GetByID(staffCtx(manager), estate.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PropertyCount)

	list, err := env.estates.List(staffCtx(other), "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.Total)

	_, err = env.estates.Update(staffCtx(other), estate.ID, &domain.UpdateEstateRequest{Name: "Mine now"})
	assertKind(t, domain.KindAccessDenied, err)

	renamed, err := env.estates.Update(staffCtx(manager), estate.ID, &domain.UpdateEstateRequest{Name: "Block A North", OwnerID: &owner.ID})
	require.NoError(t, err)
	assert.Equal(t, "Block A North", renamed.Name)

	err = env.estates.Delete(staffCtx(manager), estate.ID)
	assertKind(t, domain.KindConflict, err)
}

func TestEstateService_DeleteEmpty(t *testing.T) {
	env := newTestEnv(t)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)

	estate, err := env.estates.Create(staffCtx(manager), &domain.CreateEstateRequest{Name: "Empty lot"})
	require.NoError(t, err)
	require.NotNil(t, estate.ManagerID)
	assert.Equal(t, manager.ID, *estate.ManagerID)

	require.NoError(t, env.estates.Delete(staffCtx(manager), estate.ID))
	_, err = env.estates.GetByID(staffCtx(manager), estate.ID)
	assertKind(t, domain.KindNotFound, err)
}
