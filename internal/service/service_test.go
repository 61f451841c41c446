package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/config"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/scope"
	"github.com/rentflow/rental-api/internal/service"
	"github.com/rentflow/rental-api/internal/storage"
	"github.com/rentflow/rental-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	tokens *auth.TokenService

	propertyRepo *repository.PropertyRepository
	contractRepo *repository.ContractRepository

	statusSync  *service.PropertyStatusSynchronizer
	documents   *service.DocumentService
	contracts   *service.ContractService
	maintenance *service.MaintenanceService
	properties  *service.PropertyService
	tenants     *service.TenantService
	estates     *service.EstateService
	users       *service.UserService
	auth        *service.AuthService
	audit       *service.AuditLogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	tokens := auth.NewTokenService(&config.AuthConfig{
		JWTSecret:          "service-test-secret-0123456789abcdef",
		Issuer:             "rental-api-test",
		StaffTokenTTLHours: 24,
		PortalTokenTTLDays: 30,
	})
	resolver := scope.NewResolver()

	userRepo := repository.NewUserRepository(db)
	estateRepo := repository.NewEstateRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	contractRepo := repository.NewContractRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	statusSync := service.NewPropertyStatusSynchronizer(db, propertyRepo, contractRepo, logger)
	documents := service.NewDocumentService(store, "", logger)
	portal := service.NewPortalAccess(contractRepo, logger)

	return &testEnv{
		db:           db,
		tokens:       tokens,
		propertyRepo: propertyRepo,
		contractRepo: contractRepo,
		statusSync:   statusSync,
		documents:    documents,
		contracts: service.NewContractService(db, contractRepo, propertyRepo, tenantRepo, maintenanceRepo,
			statusSync, documents, tokens, portal, resolver, logger),
		maintenance: service.NewMaintenanceService(db, maintenanceRepo, contractRepo, portal, resolver, logger),
		properties:  service.NewPropertyService(db, propertyRepo, estateRepo, contractRepo, userRepo, resolver, logger),
		tenants:     service.NewTenantService(tenantRepo, resolver, logger),
		estates:     service.NewEstateService(estateRepo, userRepo, resolver, logger),
		users:       service.NewUserService(userRepo, logger),
		auth:        service.NewAuthService(userRepo, tokens, logger),
		audit:       service.NewAuditLogService(auditRepo, logger),
	}
}

// staffCtx returns a context authenticated as the user
func staffCtx(user *domain.User) context.Context {
	return auth.WithActor(context.Background(), &auth.ActorContext{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
}

// portalCtx verifies the token the way the portal middleware does
func (e *testEnv) portalCtx(t *testing.T, token string) context.Context {
	t.Helper()
	claims, err := e.tokens.VerifyPortalToken(token)
	require.NoError(t, err)
	return auth.WithPortal(context.Background(), claims)
}

func (e *testEnv) propertyStatus(t *testing.T, p *domain.Property) domain.PropertyStatus {
	t.Helper()
	got, err := e.propertyRepo.GetByID(context.Background(), p.ID, scope.All())
	require.NoError(t, err)
	return got.Status
}

func contractRequest(p *domain.Property, tenant *domain.Tenant, start, end time.Time) *domain.CreateContractRequest {
	return &domain.CreateContractRequest{
		PropertyID:       p.ID,
		TenantID:         tenant.ID,
		Price:            12000,
		Deposit:          36000,
		StartDate:        start,
		EndDate:          end,
		PaymentFrequency: domain.PaymentFrequencyMonthly,
	}
}

func assertKind(t *testing.T, kind domain.ErrorKind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, domain.KindOf(err), "error: %v", err)
}
