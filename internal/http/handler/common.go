package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/repository"
	"go.uber.org/zap"
)

// maxBodySize caps JSON request bodies
const maxBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// statusForKind maps every error kind to its HTTP status
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAccessDenied:
		return http.StatusForbidden
	case domain.KindConflict, domain.KindAlreadyInState:
		return http.StatusConflict
	case domain.KindInvalidTransition, domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindInvalidToken, domain.KindExpiredToken, domain.KindWrongTokenType, domain.KindInvalidLogin:
		return http.StatusUnauthorized
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a typed service error. Untyped and internal errors are
// logged and reported without their cause.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)
	detail := domain.MessageOf(err)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		kind = domain.KindInternal
		detail = "An unexpected error occurred"
	}

	respondJSON(w, status, domain.APIError{
		Kind:   kind,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// respondWithError sends an error that did not come from a service, such as a malformed path parameter
func respondWithError(w http.ResponseWriter, status int, kind domain.ErrorKind, message string) {
	respondJSON(w, status, domain.APIError{
		Kind:   kind,
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// respondValidationError sends a validation error response with per-field messages
func respondValidationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fieldPath(fe)] = formatValidationError(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Kind:   domain.KindValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: fields,
	})
}

// fieldPath drops the struct name from the namespace: "images[0]" rather than "CreateMaintenanceRequest.images[0]"
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "url":
		return "Must be a valid URL"
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// decodeAndValidate reads a JSON body into dst and validates it. It writes the
// error response itself and reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, domain.KindValidation, "Invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// parseID reads a UUID path parameter, writing a 400 if it is malformed
func parseID(w http.ResponseWriter, r *http.Request, name, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, domain.KindValidation, fmt.Sprintf("Invalid %s ID format", entity))
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalUUID reads an optional UUID query parameter
func parseOptionalUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewError(domain.KindValidation, fmt.Sprintf("%s must be a valid UUID", name))
	}
	return &id, nil
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return defaultVal
}

// parsePagination reads page and pageSize; the repository clamps them
func parsePagination(r *http.Request) (int, int) {
	return parseIntQuery(r, "page", 1), parseIntQuery(r, "pageSize", 20)
}

// parseSort reads sortBy and sortOrder; unknown fields fall back to the repository default
func parseSort(r *http.Request) repository.SortConfig {
	sort := repository.DefaultSortConfig()
	if field := r.URL.Query().Get("sortBy"); field != "" {
		sort.Field = field
	}
	if order := r.URL.Query().Get("sortOrder"); order != "" {
		sort.Order = repository.ParseSortOrder(order)
	}
	return sort
}
