package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/config"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createTestRateLimiter(cfg *config.RateLimitConfig) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg, zap.NewNop())
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           false,
		RequestsPerMinute: 5,
	})

	handlerCalled := 0
	handler := rl.LimitByIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 50, handlerCalled)
}

func TestRateLimiter_ExceedsIPLimit(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
	})
	handler := rl.LimitByIP(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.7:4000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)

		if w.Code == http.StatusTooManyRequests {
			var body domain.APIError
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, domain.KindRateLimited, body.Kind)
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client is unaffected
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.8:4000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_Whitelists(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"127.0.0.1"},
		WhitelistPaths:    []string{"/health", "/swagger/*"},
	})
	handler := rl.LimitByIP(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	for _, path := range []string{"/health", "/health", "/swagger/index.html", "/swagger/doc.json"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "172.16.0.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRateLimiter_PortalKeyedByContract(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:                 true,
		RequestsPerMinutePortal: 1,
	})
	handler := rl.LimitPortal(okHandler())

	portalRequest := func(contractID uuid.UUID) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tenant-portal/contracts", nil)
		req.RemoteAddr = "10.1.1.1:5000"
		req = req.WithContext(auth.WithPortal(req.Context(), &auth.PortalContext{ContractID: contractID, Version: 1}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	first, second := uuid.New(), uuid.New()
	assert.Equal(t, http.StatusOK, portalRequest(first))
	assert.Equal(t, http.StatusTooManyRequests, portalRequest(first))
	assert.Equal(t, http.StatusOK, portalRequest(second), "limits are per contract, not per IP")
}

func TestRateLimiter_StaffKeyedByUser(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinuteAuth: 1,
	})
	handler := rl.Limit(okHandler())

	staffRequest := func(userID uuid.UUID) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
		req = req.WithContext(auth.WithActor(req.Context(), &auth.ActorContext{UserID: userID, Role: domain.RolePropertyManager}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	alice, bob := uuid.New(), uuid.New()
	assert.Equal(t, http.StatusOK, staffRequest(alice))
	assert.Equal(t, http.StatusTooManyRequests, staffRequest(alice))
	assert.Equal(t, http.StatusOK, staffRequest(bob))
}
