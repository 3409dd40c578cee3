package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/trackdesk/trackdesk/internal/auth"
	"github.com/trackdesk/trackdesk/internal/config"
	"github.com/trackdesk/trackdesk/internal/domain"
	"github.com/trackdesk/trackdesk/internal/events"
	"github.com/trackdesk/trackdesk/internal/identity"
	"github.com/trackdesk/trackdesk/internal/repository"
	"github.com/trackdesk/trackdesk/internal/session"
	apperrors "github.com/trackdesk/trackdesk/pkg/util"
)

// AuthService coordinates registration, login, and session flows. It
// combines the identity-provider credential with the user profile into
// the application-level current user.
type AuthService struct {
	provider   identity.Provider
	users      repository.UserRepository
	sessions   session.Store
	tracker    *session.Tracker
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborator requirements.
type AuthDependencies struct {
	Provider   identity.Provider
	UserRepo   repository.UserRepository
	Sessions   session.Store
	Tracker    *session.Tracker
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// LoginResult is the combined identity + profile object plus the
// issued token.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
	SessionID string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		provider:   deps.Provider,
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		tracker:    deps.Tracker,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Register creates an identity-provider credential and a paired user
// profile under the same identifier. The two writes are not
// transactional: a profile-write failure leaves an orphaned credential
// that surfaces as PROFILE_NOT_FOUND on the next login attempt.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" || strings.TrimSpace(input.Name) == "" || input.Role == "" {
		return nil, apperrors.NewValidationError("email, password, name, and role are required", nil)
	}
	if !input.Role.IsValid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(input.Role)})
	}
	if len(input.Password) < 6 {
		return nil, apperrors.NewWeakPassword()
	}

	identityID, err := s.provider.CreateCredential(ctx, input.Email, input.Password)
	if err != nil {
		return nil, s.mapProviderError(err, input.Email)
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

	s.publishEvent(ctx, events.Event{
		Type:  events.EventUserRegistered,
		Actor: events.Actor{UserID: user.ID, Role: user.Role},
		Payload: events.UserRegisteredPayload{
			Email: user.Email,
			Role:  user.Role,
		},
	})
	return user, nil
}

// Login verifies the credential, resolves the paired profile, opens a
// session, and publishes the combined user to subscribers.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	identityID, err := s.provider.VerifyCredential(ctx, email, password)
	if err != nil {
		return nil, s.mapProviderError(err, email)
	}

	user, err := s.ResolveUser(ctx, identityID)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	if err := s.sessions.Create(ctx, sessionID, identityID, s.tokenMgr.TTL()); err != nil {
		return nil, apperrors.MapError(err)
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID, user.Role, sessionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.tracker.Publish(user)
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt, SessionID: sessionID}, nil
}

// Logout clears the session record and publishes a signed-out state.
// Idempotent: logging out an absent session succeeds.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.MapError(err)
	}
	s.tracker.Publish(nil)
	return nil
}

// RequestPasswordReset triggers the provider's out-of-band reset email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.NewValidationError("email is required", nil)
	}
	if err := s.provider.SendResetEmail(ctx, email); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return apperrors.NewUnknownAccount(email)
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ResolveUser fetches the profile for a verified identity. A missing
// profile is an error state: the session is treated as unauthenticated
// and nil is published to subscribers.
func (s *AuthService) ResolveUser(ctx context.Context, identityID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.tracker.Publish(nil)
			return nil, apperrors.NewProfileNotFound(identityID)
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Role.IsValid() {
		s.tracker.Publish(nil)
		return nil, apperrors.NewProfileNotFound(identityID)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) mapProviderError(err error, email string) error {
	switch {
	case errors.Is(err, identity.ErrEmailInUse):
		return apperrors.NewEmailInUse(email)
	case errors.Is(err, identity.ErrInvalidEmail):
		return apperrors.NewInvalidEmail(email)
	case errors.Is(err, identity.ErrWeakPassword):
		return apperrors.NewWeakPassword()
	case errors.Is(err, identity.ErrNotFound), errors.Is(err, identity.ErrWrongPassword):
		return apperrors.NewInvalidCredentials()
	default:
		return apperrors.MapError(err)
	}
}

func (s *AuthService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
