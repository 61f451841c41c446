package handler

import (
	"net/http"

	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService  *service.AuthService
	auditService *service.AuditLogService
	logger       *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, auditService *service.AuditLogService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		auditService: auditService,
		logger:       logger,
	}
}

// Login godoc
// @Summary Staff login
// @Description Exchange email and password for a staff bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.LoginResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if h.auditService != nil {
		ctx := auth.WithActor(r.Context(), &auth.ActorContext{
			UserID: resp.User.ID,
			Email:  resp.User.Email,
			Role:   resp.User.Role,
		})
		h.auditService.LogAsync(ctx, r, service.LogEntry{
			Action:     domain.AuditActionLogin,
			EntityType: "user",
			EntityID:   &resp.User.ID,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// Me godoc
// @Summary Get current staff user
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
