package service_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/scope"
	"github.com/rentflow/rental-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractLifecycle_EndToEnd(t *testing.T) {
	env := newTestEnv(t)

	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, &manager.ID)
	tenant := testutil.CreateTestTenant(t, env.db, &manager.ID)
	require.Equal(t, domain.PropertyStatusAvailable, env.propertyStatus(t, p))

	c1, err := env.contracts.Create(staffCtx(manager), contractRequest(p, tenant, testutil.Days(-1), testutil.Days(365)))
	require.NoError(t, err)
	assert.True(t, c1.IsActive)
	assert.NotEmpty(t, c1.TenantPortalToken)
	assert.NotEmpty(t, c1.DocumentURL)
	assert.Equal(t, domain.PropertyStatusRented, env.propertyStatus(t, p))

	ownerView, err := env.contracts.List(staffCtx(owner), repository.ContractFilter{}, repository.DefaultSortConfig(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), ownerView.Total)
	listed := ownerView.Data.([]domain.ContractDTO)
	assert.Equal(t, c1.ID, listed[0].ID)
	assert.Empty(t, listed[0].TenantPortalToken, "owners do not receive portal tokens")

	require.NoError(t, env.contracts.Delete(staffCtx(manager), c1.ID))
	assert.Equal(t, domain.PropertyStatusAvailable, env.propertyStatus(t, p))

	portal := env.portalCtx(t, c1.TenantPortalToken)
	_, err = env.maintenance.PortalCreate(portal, &domain.PortalCreateMaintenanceRequest{Title: "Leaking tap"})
	assertKind(t, domain.KindNotFound, err)
}

func TestContractCreate_RejectsSecondActiveContract(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	first := testutil.CreateTestTenant(t, env.db, nil)
	second := testutil.CreateTestTenant(t, env.db, nil)

	_, err := env.contracts.Create(staffCtx(admin), contractRequest(p, first, testutil.Days(0), testutil.Days(180)))
	require.NoError(t, err)

	_, err = env.contracts.Create(staffCtx(admin), contractRequest(p, second, testutil.Days(200), testutil.Days(400)))
	assertKind(t, domain.KindConflict, err)
}

func TestContractCreate_ManagerMustManageProperty(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	other := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, &other.ID)
	tenant := testutil.CreateTestTenant(t, env.db, &manager.ID)

	_, err := env.contracts.Create(staffCtx(manager), contractRequest(p, tenant, testutil.Days(0), testutil.Days(30)))
	assertKind(t, domain.KindAccessDenied, err)
	assert.Equal(t, domain.PropertyStatusAvailable, env.propertyStatus(t, p))
}

func TestContractCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	tenant := testutil.CreateTestTenant(t, env.db, nil)
	ctx := staffCtx(admin)

	day := testutil.Days(10)
	_, err := env.contracts.Create(ctx, contractRequest(p, tenant, day, day))
	assertKind(t, domain.KindValidation, err)

	_, err = env.contracts.Create(ctx, contractRequest(p, tenant, day, day.AddDate(0, 0, -1)))
	assertKind(t, domain.KindValidation, err)

	missingTenant := &domain.Tenant{BaseModel: domain.BaseModel{ID: uuid.New()}}
	_, err = env.contracts.Create(ctx, contractRequest(p, missingTenant, testutil.Days(0), testutil.Days(10)))
	assertKind(t, domain.KindNotFound, err)

	missingProperty := &domain.Property{BaseModel: domain.BaseModel{ID: uuid.New()}}
	_, err = env.contracts.Create(ctx, contractRequest(missingProperty, tenant, testutil.Days(0), testutil.Days(10)))
	assertKind(t, domain.KindNotFound, err)

	_, err = env.contracts.Create(staffCtx(owner), contractRequest(p, tenant, testutil.Days(0), testutil.Days(10)))
	assertKind(t, domain.KindAccessDenied, err)
}

func TestContractCreate_LapsedContractLeavesPropertyAvailable(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	tenant := testutil.CreateTestTenant(t, env.db, nil)

	c, err := env.contracts.Create(staffCtx(admin), contractRequest(p, tenant, testutil.Days(-400), testutil.Days(-40)))
	require.NoError(t, err)
	assert.False(t, c.IsActive)
	assert.Equal(t, domain.PropertyStatusAvailable, env.propertyStatus(t, p))
}

func TestContractCreate_ConcurrentCreatesOnOneProperty(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)

	const attempts = 5
	tenants := make([]*domain.Tenant, attempts)
	for i := range tenants {
		tenants[i] = testutil.CreateTestTenant(t, env.db, nil)
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.contracts.Create(staffCtx(admin), contractRequest(p, tenants[i], testutil.Days(0), testutil.Days(90)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)

	count, err := env.contractRepo.CountActiveByProperty(context.Background(), p.ID, testutil.Days(0), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, domain.PropertyStatusRented, env.propertyStatus(t, p))
}

func TestContractUpdate_KeepsTokenAndRegeneratesDocument(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	tenant := testutil.CreateTestTenant(t, env.db, nil)
	ctx := staffCtx(admin)

	created, err := env.contracts.Create(ctx, contractRequest(p, tenant, testutil.Days(-10), testutil.Days(300)))
	require.NoError(t, err)

	price := 13750.0
	updated, err := env.contracts.Update(ctx, created.ID, &domain.UpdateContractRequest{Price: &price})
	require.NoError(t, err, "an active contract does not conflict with itself")
	assert.Equal(t, created.TenantPortalToken, updated.TenantPortalToken)
	assert.Equal(t, price, updated.Price)

	rc, contentType, err := env.contracts.GetDocument(ctx, created.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, contentType, "text/html")
	assert.Contains(t, string(body), "13750.00")
}

func TestContractUpdate_MovesBetweenProperties(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	from := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	to := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	rented := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	tenant := testutil.CreateTestTenant(t, env.db, nil)
	other := testutil.CreateTestTenant(t, env.db, nil)
	ctx := staffCtx(admin)

	c, err := env.contracts.Create(ctx, contractRequest(from, tenant, testutil.Days(-5), testutil.Days(100)))
	require.NoError(t, err)
	_, err = env.contracts.Create(ctx, contractRequest(rented, other, testutil.Days(-5), testutil.Days(100)))
	require.NoError(t, err)

	_, err = env.contracts.Update(ctx, c.ID, &domain.UpdateContractRequest{PropertyID: &rented.ID})
	assertKind(t, domain.KindConflict, err)

	moved, err := env.contracts.Update(ctx, c.ID, &domain.UpdateContractRequest{PropertyID: &to.ID})
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.PropertyID)
	assert.Equal(t, domain.PropertyStatusAvailable, env.propertyStatus(t, from))
	assert.Equal(t, domain.PropertyStatusRented, env.propertyStatus(t, to))
}

func TestContractUpdate_MoveHandsContractToNewManager(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	oldManager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	newManager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	from := testutil.CreateTestProperty(t, env.db, owner.ID, &oldManager.ID)
	to := testutil.CreateTestProperty(t, env.db, owner.ID, &newManager.ID)
	tenant := testutil.CreateTestTenant(t, env.db, nil)

	c, err := env.contracts.Create(staffCtx(admin), contractRequest(from, tenant, testutil.Days(-5), testutil.Days(100)))
	require.NoError(t, err)
	require.NotNil(t, c.ManagerID)
	assert.Equal(t, oldManager.ID, *c.ManagerID)

	moved, err := env.contracts.Update(staffCtx(admin), c.ID, &domain.UpdateContractRequest{PropertyID: &to.ID})
	require.NoError(t, err)
	require.NotNil(t, moved.ManagerID)
	assert.Equal(t, newManager.ID, *moved.ManagerID)

	_, err = env.contracts.GetByID(staffCtx(oldManager), c.ID)
	assertKind(t, domain.KindNotFound, err)
	err = env.contracts.Delete(staffCtx(oldManager), c.ID)
	assertKind(t, domain.KindAccessDenied, err)

	visible, err := env.contracts.GetByID(staffCtx(newManager), c.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, visible.PropertyID)
}

func TestContractUpdate_ConcurrentMovesReleaseThePreviousProperty(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	origin := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	targets := []*domain.Property{
		testutil.CreateTestProperty(t, env.db, owner.ID, nil),
		testutil.CreateTestProperty(t, env.db, owner.ID, nil),
	}
	tenant := testutil.CreateTestTenant(t, env.db, nil)

	c, err := env.contracts.Create(staffCtx(admin), contractRequest(origin, tenant, testutil.Days(-5), testutil.Days(100)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, len(targets))
	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = env.contracts.Update(staffCtx(admin), c.ID, &domain.UpdateContractRequest{PropertyID: &targets[i].ID})
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	final, err := env.contractRepo.GetByID(context.Background(), c.ID, scope.All())
	require.NoError(t, err)

	assert.Equal(t, domain.PropertyStatusAvailable, env.propertyStatus(t, origin))
	for _, target := range targets {
		want := domain.PropertyStatusAvailable
		if target.ID == final.PropertyID {
			want = domain.PropertyStatusRented
		}
		assert.Equal(t, want, env.propertyStatus(t, target), "property %s", target.ID)
	}
}

func TestContractDelete_RemovesMaintenanceAndReleasesProperty(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, &manager.ID)
	tenant := testutil.CreateTestTenant(t, env.db, &manager.ID)
	ctx := staffCtx(manager)

	c, err := env.contracts.Create(ctx, contractRequest(p, tenant, testutil.Days(-1), testutil.Days(90)))
	require.NoError(t, err)

	request, err := env.maintenance.Create(ctx, &domain.CreateMaintenanceRequest{
		ContractID: c.ID,
		Title:      "Boiler makes noise",
		Images:     []string{"https://img.example.com/boiler.jpg"},
		Priority:   domain.MaintenancePriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.example.com/boiler.jpg"}, request.Images)

	require.NoError(t, env.contracts.Delete(ctx, c.ID))
	assert.Equal(t, domain.PropertyStatusAvailable, env.propertyStatus(t, p))

	_, err = env.maintenance.GetByID(ctx, request.ID)
	assertKind(t, domain.KindNotFound, err)
}

func TestContractUpdate_EndingEarlyReleasesProperty(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	tenant := testutil.CreateTestTenant(t, env.db, nil)
	ctx := staffCtx(admin)

	c, err := env.contracts.Create(ctx, contractRequest(p, tenant, testutil.Days(-60), testutil.Days(60)))
	require.NoError(t, err)

	end := testutil.Days(-1)
	_, err = env.contracts.Update(ctx, c.ID, &domain.UpdateContractRequest{EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyStatusAvailable, env.propertyStatus(t, p))

	start := testutil.Days(0)
	_, err = env.contracts.Update(ctx, c.ID, &domain.UpdateContractRequest{StartDate: &start})
	assertKind(t, domain.KindValidation, err)
}

func TestContractDelete_ScopeAndReservedStatus(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	stranger := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, &manager.ID)
	tenant := testutil.CreateTestTenant(t, env.db, &manager.ID)

	lapsed := testutil.CreateTestContract(t, env.db, p, tenant, testutil.Days(-300), testutil.Days(-10))
	require.NoError(t, env.propertyRepo.UpdateStatus(context.Background(), p.ID, domain.PropertyStatusReserved))

	err := env.contracts.Delete(staffCtx(stranger), lapsed.ID)
	assertKind(t, domain.KindAccessDenied, err)

	err = env.contracts.Delete(staffCtx(manager), uuid.New())
	assertKind(t, domain.KindNotFound, err)

	require.NoError(t, env.contracts.Delete(staffCtx(manager), lapsed.ID))
	assert.Equal(t, domain.PropertyStatusReserved, env.propertyStatus(t, p), "reserved is never derived away")
}

func TestContractGetByID_OutOfScopeReadsAsMissing(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	otherOwner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	tenant := testutil.CreateTestTenant(t, env.db, nil)
	c := testutil.CreateTestContract(t, env.db, p, tenant, testutil.Days(-1), testutil.Days(10))

	got, err := env.contracts.GetByID(staffCtx(owner), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = env.contracts.GetByID(staffCtx(otherOwner), c.ID)
	assertKind(t, domain.KindNotFound, err)
}

func TestRotatePortalToken_InvalidatesPreviousLink(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	tenant := testutil.CreateTestTenant(t, env.db, nil)

	c, err := env.contracts.Create(staffCtx(admin), contractRequest(p, tenant, testutil.Days(0), testutil.Days(90)))
	require.NoError(t, err)

	oldPortal := env.portalCtx(t, c.TenantPortalToken)
	_, err = env.contracts.PortalList(oldPortal)
	require.NoError(t, err)

	rotated, err := env.contracts.RotatePortalToken(staffCtx(admin), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rotated.Version)
	assert.NotEqual(t, c.TenantPortalToken, rotated.TenantPortalToken)

	_, err = env.contracts.PortalList(oldPortal)
	assertKind(t, domain.KindInvalidToken, err)

	list, err := env.contracts.PortalList(env.portalCtx(t, rotated.TenantPortalToken))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].TenantPortalToken)

	_, err = env.contracts.RotatePortalToken(staffCtx(owner), c.ID)
	assertKind(t, domain.KindAccessDenied, err)
}

func TestPortalContracts_Checks(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	tenant := testutil.CreateTestTenant(t, env.db, nil)

	c, err := env.contracts.Create(staffCtx(admin), contractRequest(p, tenant, testutil.Days(0), testutil.Days(90)))
	require.NoError(t, err)
	portal := env.portalCtx(t, c.TenantPortalToken)

	got, err := env.contracts.PortalGetByID(portal, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = env.contracts.PortalGetByID(portal, uuid.New())
	assertKind(t, domain.KindAccessDenied, err)

	rc, _, err := env.contracts.PortalGetDocument(portal, c.ID)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	forged, err := env.tokens.IssuePortalToken(c.ID, "00000000000", 1)
	require.NoError(t, err)
	_, err = env.contracts.PortalList(env.portalCtx(t, forged))
	assertKind(t, domain.KindAccessDenied, err)

	_, err = env.contracts.PortalList(context.Background())
	assertKind(t, domain.KindInvalidToken, err)
}
