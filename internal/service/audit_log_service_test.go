package service_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/service"
	"github.com/rentflow/rental-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogService_LogAndList(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	manager := testutil.CreateTestUser(t, env.db, domain.RolePropertyManager)

	r := httptest.NewRequest("POST", "/api/v1/properties", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("X-Request-ID", "req-42")

	err := env.audit.Log(staffCtx(manager), r, service.LogEntry{
		Action:     domain.AuditActionCreate,
		EntityType: "property",
		NewValues:  map[string]string{"title": "Loft"},
	})
	require.NoError(t, err)

	_, err = env.audit.List(staffCtx(manager), &repository.AuditLogFilter{}, 1, 20)
	assertKind(t, domain.KindAccessDenied, err)

	list, err := env.audit.List(staffCtx(admin), &repository.AuditLogFilter{EntityType: "property"}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Total)

	entry := list.Data.([]domain.AuditLogDTO)[0]
	assert.Equal(t, manager.ID.String(), entry.ActorID)
	assert.Equal(t, string(domain.RolePropertyManager), entry.ActorRole)
	assert.Equal(t, "203.0.113.7", entry.IPAddress)
	assert.Equal(t, "req-42", entry.RequestID)
	assert.JSONEq(t, `{"title":"Loft"}`, string(entry.NewValues))
}

func TestAuditLogService_PortalActorAndPurge(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestUser(t, env.db, domain.RoleAdmin)
	owner := testutil.CreateTestUser(t, env.db, domain.RolePropertyOwner)
	p := testutil.CreateTestProperty(t, env.db, owner.ID, nil)
	tenant := testutil.CreateTestTenant(t, env.db, nil)

	c, err := env.contracts.Create(staffCtx(admin), contractRequest(p, tenant, testutil.Days(-1), testutil.Days(100)))
	require.NoError(t, err)

	require.NoError(t, env.audit.Log(env.portalCtx(t, c.TenantPortalToken), nil, service.LogEntry{
		Action:     domain.AuditActionCreate,
		EntityType: "maintenance_request",
	}))

	list, err := env.audit.List(staffCtx(admin), &repository.AuditLogFilter{}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Total)
	entry := list.Data.([]domain.AuditLogDTO)[0]
	assert.Equal(t, "portal:"+c.ID.String(), entry.ActorID)
	assert.Equal(t, "TENANT_PORTAL", entry.ActorRole)
	assert.Equal(t, "null", string(entry.NewValues))

	require.NoError(t, env.db.Model(&domain.AuditLog{}).Where("1 = 1").
		Update("performed_at", time.Now().UTC().AddDate(0, 0, -400)).Error)

	deleted, err := env.audit.PurgeOlderThan(context.Background(), 365*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
