package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/http/middleware"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/service"
	"github.com/rentflow/rental-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type auditFixture struct {
	db      *gorm.DB
	router  chi.Router
	actorID uuid.UUID
}

func newAuditFixture(t *testing.T, cfg *middleware.AuditConfig, status int) *auditFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	auditService := service.NewAuditLogService(repository.NewAuditLogRepository(db), zap.NewNop())
	am := middleware.NewAuditMiddleware(auditService, cfg, zap.NewNop())

	f := &auditFixture{db: db, actorID: uuid.New()}
	withActor := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithActor(r.Context(), &auth.ActorContext{UserID: f.actorID, Email: "admin@example.com", Role: domain.RoleAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	reply := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) }
	r := chi.NewRouter()
	r.Use(withActor)
	r.Use(am.Audit)
	r.Get("/health", reply)
	r.Get("/api/v1/contracts", reply)
	r.Post("/api/v1/contracts", reply)
	r.Put("/api/v1/contracts/{id}", reply)
	r.Delete("/api/v1/contracts/{id}", reply)
	r.Post("/api/v1/contracts/{id}/portal-token/rotate", reply)
	r.Post("/api/v1/users", reply)
	f.router = r
	return f
}

func (f *auditFixture) do(method, path, body string) int {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w.Code
}

func (f *auditFixture) entries(t *testing.T, want int) []domain.AuditLog {
	t.Helper()
	var logs []domain.AuditLog
	require.Eventually(t, func() bool {
		logs = nil
		return f.db.Order("performed_at ASC").Find(&logs).Error == nil && len(logs) >= want
	}, 2*time.Second, 10*time.Millisecond)
	return logs
}

func (f *auditFixture) assertNoEntries(t *testing.T) {
	t.Helper()
	time.Sleep(50 * time.Millisecond)
	var count int64
	require.NoError(t, f.db.WithContext(context.Background()).Model(&domain.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuditMiddleware_RecordsSuccessfulUpdate(t *testing.T) {
	f := newAuditFixture(t, nil, http.StatusOK)
	id := uuid.New()

	code := f.do(http.MethodPut, "/api/v1/contracts/"+id.String(), `{"price":1200,"tenantPortalToken":"secret"}`)
	require.Equal(t, http.StatusOK, code)

	logs := f.entries(t, 1)
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, domain.AuditActionUpdate, entry.Action)
	assert.Equal(t, "contract", entry.EntityType)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, id, *entry.EntityID)
	assert.Equal(t, f.actorID.String(), entry.ActorID)
	assert.Contains(t, entry.NewValues, `"price":1200`)
	assert.NotContains(t, entry.NewValues, "secret")
}

func TestAuditMiddleware_SensitiveFieldsStripped(t *testing.T) {
	f := newAuditFixture(t, nil, http.StatusCreated)

	f.do(http.MethodPost, "/api/v1/users", `{"email":"new@example.com","password":"hunter22"}`)

	logs := f.entries(t, 1)
	assert.Equal(t, "user", logs[0].EntityType)
	assert.Equal(t, domain.AuditActionCreate, logs[0].Action)
	assert.Contains(t, logs[0].NewValues, "new@example.com")
	assert.NotContains(t, logs[0].NewValues, "hunter22")
}

func TestAuditMiddleware_PortalTokenRotation(t *testing.T) {
	f := newAuditFixture(t, nil, http.StatusOK)
	id := uuid.New()

	f.do(http.MethodPost, "/api/v1/contracts/"+id.String()+"/portal-token/rotate", "")

	logs := f.entries(t, 1)
	assert.Equal(t, "portal_token", logs[0].EntityType)
	require.NotNil(t, logs[0].EntityID)
	assert.Equal(t, id, *logs[0].EntityID)
}

func TestAuditMiddleware_Delete(t *testing.T) {
	f := newAuditFixture(t, nil, http.StatusNoContent)

	f.do(http.MethodDelete, "/api/v1/contracts/"+uuid.NewString(), "")

	logs := f.entries(t, 1)
	assert.Equal(t, domain.AuditActionDelete, logs[0].Action)
	assert.Equal(t, "null", logs[0].NewValues)
}

func TestAuditMiddleware_SkipsReadsFailuresAndSkipPaths(t *testing.T) {
	t.Run("reads are not audited by default", func(t *testing.T) {
		f := newAuditFixture(t, nil, http.StatusOK)
		f.do(http.MethodGet, "/api/v1/contracts", "")
		f.assertNoEntries(t)
	})

	t.Run("failed writes are not audited", func(t *testing.T) {
		f := newAuditFixture(t, nil, http.StatusConflict)
		f.do(http.MethodPost, "/api/v1/contracts", `{"price":1}`)
		f.assertNoEntries(t)
	})

	t.Run("skip paths", func(t *testing.T) {
		f := newAuditFixture(t, &middleware.AuditConfig{SkipPaths: []string{"/api/v1/contracts"}}, http.StatusCreated)
		f.do(http.MethodPost, "/api/v1/contracts", `{"price":1}`)
		f.assertNoEntries(t)
	})
}

func TestAuditMiddleware_AuditReads(t *testing.T) {
	f := newAuditFixture(t, &middleware.AuditConfig{AuditReads: true}, http.StatusOK)

	f.do(http.MethodGet, "/api/v1/contracts", "")

	logs := f.entries(t, 1)
	assert.Equal(t, domain.AuditActionRead, logs[0].Action)
	assert.Equal(t, "contract", logs[0].EntityType)
	assert.Nil(t, logs[0].EntityID)
}

func TestAuditMiddleware_NilServicePassesThrough(t *testing.T) {
	am := middleware.NewAuditMiddleware(nil, nil, zap.NewNop())

	called := false
	handler := am.Audit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tenants", strings.NewReader(`{}`)))
	assert.True(t, called)
	assert.Equal(t, http.StatusCreated, w.Code)
}
