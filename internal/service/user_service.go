package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/cache"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService manages accounts and their roles
type UserService struct {
	userRepo *repository.UserRepository
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, reportCache *cache.Cache, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		cache:    reportCache,
		logger:   logger,
	}
}

// GetCurrent returns the acting user. The API key actor has no stored account
// and is described from its context.
func (s *UserService) GetCurrent(ctx context.Context, actor *auth.UserContext) (*domain.UserDTO, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if actor.IsSystem() {
		return &domain.UserDTO{
			ID:       actor.UserID,
			Name:     actor.DisplayName,
			Email:    actor.Email,
			Role:     actor.Role,
			IsActive: true,
		}, nil
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, translateError("user", err)
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) GetByID(ctx context.Context, actor *auth.UserContext, id uuid.UUID) (*domain.UserDTO, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError("user", err)
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) List(ctx context.Context, actor *auth.UserContext, page, pageSize int, filters *repository.UserFilters) (*domain.PaginatedResponse, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	users, total, err := s.userRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return domain.NewPaginatedResponse(dtos, total, page, pageSize), nil
}

// Create adds an active account. MANAGER may only create REP and READ_ONLY users.
func (s *UserService) Create(ctx context.Context, actor *auth.UserContext, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !req.Role.IsValid() {
		return nil, domain.NewValidationError("role", "Must be one of the allowed values")
	}
	if !auth.CanCreateUser(actor.Actor(), req.Role) {
		return nil, ErrPermissionDenied
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureEmailAvailable(ctx, email, uuid.Nil); err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Role:     req.Role,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translateError("user", err)
	}

	s.logger.Info("user created",
		zap.String("target_user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Update changes a user's name and email. Users may edit themselves.
func (s *UserService) Update(ctx context.Context, actor *auth.UserContext, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	user, err := s.loadTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanEditProfile(actor.Actor(), user) {
		return nil, ErrPermissionDenied
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != user.Email {
		if err := s.ensureEmailAvailable(ctx, email, user.ID); err != nil {
			return nil, err
		}
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = email
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, translateError("user", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// ChangeRole assigns a new role. Users cannot change their own role and the last
// active ADMIN cannot be demoted.
func (s *UserService) ChangeRole(ctx context.Context, actor *auth.UserContext, id uuid.UUID, role domain.UserRole) (*domain.UserDTO, error) {
	user, err := s.loadTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if user.ID == actor.UserID {
		return nil, ErrCannotModifySelf
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError("role", "Must be one of the allowed values")
	}
	if !auth.CanAssignRole(actor.Actor(), user, role) {
		return nil, ErrPermissionDenied
	}
	if user.Role == role {
		dto := mapper.ToUserDTO(user)
		return &dto, nil
	}
	if role != domain.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx, user); err != nil {
			return nil, err
		}
	}

	previous := user.Role
	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, translateError("user", err)
	}

	s.logger.Info("user role changed",
		zap.String("target_user_id", user.ID.String()),
		zap.String("from_role", string(previous)),
		zap.String("to_role", string(role)),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// SetActive activates or deactivates a user. Deactivated users keep their records
// but can no longer authenticate.
func (s *UserService) SetActive(ctx context.Context, actor *auth.UserContext, id uuid.UUID, active bool) (*domain.UserDTO, error) {
	user, err := s.loadTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if user.ID == actor.UserID {
		return nil, ErrCannotModifySelf
	}
	if !auth.CanManageUser(actor.Actor(), user) {
		return nil, ErrPermissionDenied
	}
	if user.IsActive == active {
		dto := mapper.ToUserDTO(user)
		return &dto, nil
	}
	if !active {
		if err := s.ensureNotLastAdmin(ctx, user); err != nil {
			return nil, err
		}
	}

	user.IsActive = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, translateError("user", err)
	}

	s.logger.Info("user active state changed",
		zap.String("target_user_id", user.ID.String()),
		zap.Bool("is_active", active),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Delete removes a user. When transferTo is set, the user's contacts, leads,
// deals and activities are handed to that user; otherwise the references are cleared.
func (s *UserService) Delete(ctx context.Context, actor *auth.UserContext, id uuid.UUID, transferTo *uuid.UUID) error {
	user, err := s.loadTarget(ctx, actor, id)
	if err != nil {
		return err
	}
	if user.ID == actor.UserID {
		return ErrCannotModifySelf
	}
	if !auth.CanManageUser(actor.Actor(), user) {
		return ErrPermissionDenied
	}
	if err := s.ensureNotLastAdmin(ctx, user); err != nil {
		return err
	}

	if transferTo != nil {
		if *transferTo == user.ID {
			return domain.NewValidationError("transferUserId", "Cannot transfer records to the deleted user")
		}
		target, err := s.userRepo.GetByID(ctx, *transferTo)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewValidationError("transferUserId", "User does not exist")
		}
		if err != nil {
			return fmt.Errorf("failed to load transfer user: %w", err)
		}
		if !target.IsActive {
			return domain.NewValidationError("transferUserId", "User is deactivated")
		}
	}

	if err := s.userRepo.DeleteWithTransfer(ctx, user.ID, transferTo); err != nil {
		return translateError("user", err)
	}

	affected := []uuid.UUID{user.ID}
	if transferTo != nil {
		affected = append(affected, *transferTo)
	}
	invalidatePipelineScopes(ctx, s.cache, s.logger, affected...)

	fields := []zap.Field{
		zap.String("target_user_id", user.ID.String()),
		zap.String("user_id", actor.UserID.String()),
	}
	if transferTo != nil {
		fields = append(fields, zap.String("transfer_user_id", transferTo.String()))
	}
	s.logger.Info("user deleted", fields...)
	return nil
}

func (s *UserService) loadTarget(ctx context.Context, actor *auth.UserContext, id uuid.UUID) (*domain.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError("user", err)
	}
	return user, nil
}

// ensureNotLastAdmin fails when user is the only active ADMIN
func (s *UserService) ensureNotLastAdmin(ctx context.Context, user *domain.User) error {
	if user.Role != domain.RoleAdmin || !user.IsActive {
		return nil
	}
	count, err := s.userRepo.CountActiveByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count <= 1 {
		return ErrCannotRemoveLastAdmin
	}
	return nil
}

func (s *UserService) ensureEmailAvailable(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check user email: %w", err)
	}
	if existing.ID != self {
		return fmt.Errorf("%w: a user with email %s already exists", ErrConflict, email)
	}
	return nil
}
