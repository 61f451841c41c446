package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rentflow/rental-api/internal/domain"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	tokens *TokenService
	logger *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(tokens *TokenService, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate requires a staff bearer token. Portal tokens are rejected with wrong_token_type.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, domain.KindInvalidToken, "Missing or malformed authorization header")
			return
		}

		actor, err := m.tokens.ValidateStaffToken(token)
		if err != nil {
			m.logger.Warn("staff token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("kind", string(domain.KindOf(err))),
			)
			writeError(w, http.StatusUnauthorized, domain.KindOf(err), domain.MessageOf(err))
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("path", r.URL.Path),
			zap.String("user_id", actor.UserID.String()),
			zap.String("role", string(actor.Role)),
		)
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole ensures the staff actor has one of the given roles
func (m *Middleware) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusForbidden, domain.KindAccessDenied, "No authenticated user")
				return
			}
			if !actor.HasAnyRole(roles...) {
				writeError(w, http.StatusForbidden, domain.KindAccessDenied, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthenticatePortal requires a tenant portal token, taken from the
// Authorization header or the token query parameter. Staff tokens are rejected.
func (m *Middleware) AuthenticatePortal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, domain.KindInvalidToken, "Missing portal token")
			return
		}

		portal, err := m.tokens.VerifyPortalToken(token)
		if err != nil {
			m.logger.Warn("portal token validation failed",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("kind", string(domain.KindOf(err))),
			)
			writeError(w, http.StatusUnauthorized, domain.KindOf(err), domain.MessageOf(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPortal(r.Context(), portal)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func writeError(w http.ResponseWriter, status int, kind domain.ErrorKind, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Kind:   kind,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
