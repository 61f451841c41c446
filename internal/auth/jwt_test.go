package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/config"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *auth.TokenService {
	return auth.NewTokenService(&config.AuthConfig{
		JWTSecret:          "test-secret-0123456789-abcdefghij",
		Issuer:             "rental-api-test",
		StaffTokenTTLHours: 24,
		PortalTokenTTLDays: 30,
	})
}

func TestPortalToken_RoundTrip(t *testing.T) {
	svc := newTestTokenService()
	contractID := uuid.New()

	token, err := svc.IssuePortalToken(contractID, "12345678901", 1)
	require.NoError(t, err)

	claims, err := svc.VerifyPortalToken(token)
	require.NoError(t, err)
	assert.Equal(t, contractID, claims.ContractID)
	assert.Equal(t, "12345678901", claims.TenantNationalID)
	assert.Equal(t, 1, claims.Version)
}

func TestPortalToken_ExpiresAfterTTL(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService().WithClock(func() time.Time { return issuedAt })

	token, err := svc.IssuePortalToken(uuid.New(), "12345678901", 1)
	require.NoError(t, err)

	justBefore := svc.WithClock(func() time.Time { return issuedAt.Add(30*24*time.Hour - time.Minute) })
	_, err = justBefore.VerifyPortalToken(token)
	require.NoError(t, err)

	after := svc.WithClock(func() time.Time { return issuedAt.Add(30*24*time.Hour + time.Minute) })
	_, err = after.VerifyPortalToken(token)
	require.Error(t, err)
	assert.Equal(t, domain.KindExpiredToken, domain.KindOf(err))
	assert.True(t, errors.Is(err, domain.ErrExpiredToken))
}

func TestPortalToken_RejectsStaffToken(t *testing.T) {
	svc := newTestTokenService()
	user := &domain.User{BaseModel: domain.BaseModel{ID: uuid.New()}, Email: "m@example.com", Role: domain.RolePropertyManager}

	staffToken, _, err := svc.IssueStaffToken(user)
	require.NoError(t, err)

	_, err = svc.VerifyPortalToken(staffToken)
	require.Error(t, err)
	assert.Equal(t, domain.KindWrongTokenType, domain.KindOf(err))
}

func TestStaffToken_RejectsPortalToken(t *testing.T) {
	svc := newTestTokenService()

	portalToken, err := svc.IssuePortalToken(uuid.New(), "12345678901", 1)
	require.NoError(t, err)

	_, err = svc.ValidateStaffToken(portalToken)
	require.Error(t, err)
	assert.Equal(t, domain.KindWrongTokenType, domain.KindOf(err))
}

func TestStaffToken_RoundTrip(t *testing.T) {
	svc := newTestTokenService()
	user := &domain.User{BaseModel: domain.BaseModel{ID: uuid.New()}, Email: "owner@example.com", Role: domain.RolePropertyOwner}

	token, expiresAt, err := svc.IssueStaffToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	actor, err := svc.ValidateStaffToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.UserID)
	assert.Equal(t, user.Email, actor.Email)
	assert.Equal(t, domain.RolePropertyOwner, actor.Role)
}

func TestVerify_InvalidSignatureAndGarbage(t *testing.T) {
	svc := newTestTokenService()
	other := auth.NewTokenService(&config.AuthConfig{
		JWTSecret:          "a-completely-different-signing-key",
		Issuer:             "rental-api-test",
		StaffTokenTTLHours: 24,
		PortalTokenTTLDays: 30,
	})

	forged, err := other.IssuePortalToken(uuid.New(), "12345678901", 1)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong key", forged},
		{"garbage", "not-a-jwt"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyPortalToken(tt.token)
			require.Error(t, err)
			assert.Equal(t, domain.KindInvalidToken, domain.KindOf(err))
		})
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestTokenService()
	claims := jwt.MapClaims{
		"type":             "TENANT_PORTAL",
		"contractId":       uuid.NewString(),
		"tenantNationalId": "12345678901",
		"iss":              "rental-api-test",
		"exp":              time.Now().Add(time.Hour).Unix(),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyPortalToken(unsigned)
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidToken, domain.KindOf(err))
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, auth.CheckPassword(hash, "correct horse battery"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
}
