package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&apiErr))
	return apiErr
}

func TestStatusForKind(t *testing.T) {
	tests := map[domain.ErrorKind]int{
		domain.KindNotFound:          http.StatusNotFound,
		domain.KindAccessDenied:      http.StatusForbidden,
		domain.KindConflict:          http.StatusConflict,
		domain.KindAlreadyInState:    http.StatusConflict,
		domain.KindInvalidTransition: http.StatusBadRequest,
		domain.KindValidation:        http.StatusBadRequest,
		domain.KindInvalidToken:      http.StatusUnauthorized,
		domain.KindExpiredToken:      http.StatusUnauthorized,
		domain.KindWrongTokenType:    http.StatusUnauthorized,
		domain.KindInvalidLogin:      http.StatusUnauthorized,
		domain.KindRateLimited:       http.StatusTooManyRequests,
		domain.KindInternal:          http.StatusInternalServerError,
		domain.ErrorKind("bogus"):    http.StatusInternalServerError,
	}
	for kind, status := range tests {
		assert.Equal(t, status, statusForKind(kind), string(kind))
	}
}

func TestRespondError_TypedError(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, zap.NewNop(), domain.NewError(domain.KindAlreadyInState, "Maintenance request is already IN_PROGRESS"))

	assert.Equal(t, http.StatusConflict, w.Code)
	apiErr := decodeAPIError(t, w)
	assert.Equal(t, domain.KindAlreadyInState, apiErr.Kind)
	assert.Equal(t, "Maintenance request is already IN_PROGRESS", apiErr.Detail)
}

func TestRespondError_HidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, zap.NewNop(), errors.New("pq: password authentication failed for user rental"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	apiErr := decodeAPIError(t, w)
	assert.Equal(t, domain.KindInternal, apiErr.Kind)
	assert.NotContains(t, apiErr.Detail, "pq:")
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("unknown fields are rejected", func(t *testing.T) {
		var req domain.PortalUpdateMaintenanceRequest
		r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"CANCELLED","internalNotes":"x"}`))
		w := httptest.NewRecorder()
		assert.False(t, decodeAndValidate(w, r, &req))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("field errors use json names", func(t *testing.T) {
		var req domain.CreateMaintenanceRequest
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"","images":["not a url"],"priority":"SOON"}`))
		w := httptest.NewRecorder()
		require.False(t, decodeAndValidate(w, r, &req))

		apiErr := decodeAPIError(t, w)
		assert.Equal(t, domain.KindValidation, apiErr.Kind)
		assert.Equal(t, "Must be a valid URL", apiErr.Errors["images[0]"])
		assert.Equal(t, "Must be one of: LOW MEDIUM HIGH URGENT", apiErr.Errors["priority"])
		assert.Contains(t, apiErr.Errors, "contractId")
		assert.Contains(t, apiErr.Errors, "title")
	})

	t.Run("valid body", func(t *testing.T) {
		var req domain.PortalUpdateMaintenanceRequest
		r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"CANCELLED"}`))
		w := httptest.NewRecorder()
		assert.True(t, decodeAndValidate(w, r, &req))
		assert.Equal(t, domain.MaintenanceStatusCancelled, req.Status)
	})
}

func TestParseID(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", value)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	id := uuid.New()
	w := httptest.NewRecorder()
	got, ok := parseID(w, withParam(id.String()), "id", "contract")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	w = httptest.NewRecorder()
	_, ok = parseID(w, withParam("42"), "id", "contract")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid contract ID format", decodeAPIError(t, w).Detail)
}

func TestQueryParsing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&pageSize=50&sortBy=endDate&sortOrder=asc&startTime=2026-01-02T03:04:05Z", nil)

	page, size := parsePagination(r)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)

	sort := parseSort(r)
	assert.Equal(t, "endDate", sort.Field)
	assert.Equal(t, repository.SortOrderAsc, sort.Order)

	start, err := parseOptionalTime(r, "startTime")
	require.NoError(t, err)
	require.NotNil(t, start)
	assert.Equal(t, 2026, start.Year())

	missing, err := parseOptionalTime(r, "endTime")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = parseOptionalTime(httptest.NewRequest(http.MethodGet, "/?startTime=yesterday", nil), "startTime")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	page, size = parsePagination(httptest.NewRequest(http.MethodGet, "/?page=abc", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
}
