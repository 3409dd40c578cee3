package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/trackdesk/trackdesk/internal/domain"
	"github.com/trackdesk/trackdesk/internal/identity"
	"github.com/trackdesk/trackdesk/internal/repository"
	apperrors "github.com/trackdesk/trackdesk/pkg/util"
)

// UserService covers the admin dashboard: directory listing and user
// management. Project managers get the employee pick list for
// assignment.
type UserService struct {
	provider identity.Provider
	users    repository.UserRepository
	logger   *zap.Logger
}

// UserDependencies bundles collaborators for user service.
type UserDependencies struct {
	Provider identity.Provider
	UserRepo repository.UserRepository
	Logger   *zap.Logger
}

// UserCreateInput describes an admin-created account.
type UserCreateInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		provider: deps.Provider,
		users:    deps.UserRepo,
		logger:   deps.Logger,
	}
}

// List returns the full user directory. Admin only.
func (s *UserService) List(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListEmployees returns users with the employee role for the project
// manager's assignment picker.
func (s *UserService) ListEmployees(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleProjectManager && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("not permitted to list employees")
	}
	users, err := s.users.ListByRole(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Create provisions a credential and paired profile with any role.
// Admin only; shares the non-transactional pairing gap with Register.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input UserCreateInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Email) == "" || input.Password == "" || strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("email, password, and name are required", nil)
	}
	if !input.Role.IsValid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(input.Role)})
	}

	identityID, err := s.provider.CreateCredential(ctx, input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailInUse):
			return nil, apperrors.NewEmailInUse(input.Email)
		case errors.Is(err, identity.ErrInvalidEmail):
			return nil, apperrors.NewInvalidEmail(input.Email)
		case errors.Is(err, identity.ErrWeakPassword):
			return nil, apperrors.NewWeakPassword()
		default:
			return nil, apperrors.MapError(err)
		}
	}

	user := &domain.User{
		ID:        identityID,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Role:      input.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("profile write failed after credential creation; credential orphaned",
			zap.String("identity_id", identityID), zap.Error(err))
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Update changes the admin-mutable profile fields: name and role.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id, name string, role domain.Role) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if !role.IsValid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(role)})
	}

	if err := s.users.UpdateProfile(ctx, id, name, role); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return s.users.GetByID(ctx, id)
}

// Delete removes the user profile. The credential is left behind; a
// later login with it fails with PROFILE_NOT_FOUND.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return apperrors.NewConflict("cannot delete own account", nil)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func requireAdmin(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}
