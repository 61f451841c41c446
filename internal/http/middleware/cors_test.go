package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rentflow/rental-api/internal/config"
	"github.com/rentflow/rental-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func corsRequest(handler http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
	req.Header.Set("Origin", origin)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins: []string{"https://app.rentflow.io"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}
	handler := middleware.CORS(cfg, "production", zap.NewNop())(okHandler())

	assert.Equal(t, "https://app.rentflow.io", corsRequest(handler, "https://app.rentflow.io").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, corsRequest(handler, "https://evil.example.com").Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOriginsByEnvironment(t *testing.T) {
	cfg := &config.CORSConfig{AllowedMethods: []string{http.MethodGet}}

	dev := middleware.CORS(cfg, "development", zap.NewNop())(okHandler())
	assert.Equal(t, "http://localhost:3000", corsRequest(dev, "http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))

	prod := middleware.CORS(cfg, "production", zap.NewNop())(okHandler())
	assert.Empty(t, corsRequest(prod, "http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))
}
