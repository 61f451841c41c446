package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/mapper"
	"github.com/rentflow/rental-api/internal/repository"
	"go.uber.org/zap"
)

// UserService manages staff accounts. Admin only.
type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Create registers a staff user with a hashed password
func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !req.Role.IsValid() {
		return nil, domain.NewError(domain.KindValidation, "Unknown role")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, domain.NewError(domain.KindConflict, "A user with this email already exists")
	} else if !repository.IsNotFound(err) {
		return nil, internalError("check email", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, internalError("hash password", err)
	}

	user := &domain.User{
		Email:        email,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        req.Phone,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, internalError("create user", err)
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("created_by", actor.UserID.String()),
	)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// List returns staff users, optionally filtered by role
func (s *UserService) List(ctx context.Context, role *domain.UserRole, page, pageSize int) (*domain.PaginatedResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	p := repository.NewPage(page, pageSize)
	users, total, err := s.userRepo.List(ctx, role, p)
	if err != nil {
		return nil, internalError("list users", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return domain.NewPaginatedResponse(dtos, total, p.Number, p.Size), nil
}

// checkUserRole fails with a validation error unless id is an active user with the role
func checkUserRole(ctx context.Context, userRepo *repository.UserRepository, id uuid.UUID, role domain.UserRole, field string) error {
	ok, err := userRepo.ExistsWithRole(ctx, id, role)
	if err != nil {
		return internalError("check user", err)
	}
	if !ok {
		return domain.NewError(domain.KindValidation, field+" must reference an active "+string(role)+" user")
	}
	return nil
}
