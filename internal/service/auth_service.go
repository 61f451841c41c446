package service

import (
	"context"
	"time"

	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/mapper"
	"github.com/rentflow/rental-api/internal/repository"
	"go.uber.org/zap"
)

var errInvalidCredentials = domain.NewError(domain.KindInvalidLogin, "Invalid email or password")

// AuthService handles staff login
type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *auth.TokenService
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, tokens *auth.TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Login checks the credentials and issues a staff token
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		return nil, internalError("load user", err)
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Info("Rejected login", zap.String("user_id", user.ID.String()))
		return nil, errInvalidCredentials
	}

	token, expiresAt, err := s.tokens.IssueStaffToken(user)
	if err != nil {
		return nil, internalError("issue token", err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("Failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      mapper.ToUserDTO(user),
	}, nil
}

// Me returns the authenticated staff user
func (s *AuthService) Me(ctx context.Context) (*domain.UserDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, lookupError("User", err)
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}
