package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/trackdesk/trackdesk/internal/config"
	"github.com/trackdesk/trackdesk/internal/domain"
	"github.com/trackdesk/trackdesk/internal/identity"
	"github.com/trackdesk/trackdesk/internal/service"
	"github.com/trackdesk/trackdesk/internal/session"
)

// fakeProvider is an in-memory identity.Provider.
type fakeProvider struct {
	mu          sync.Mutex
	credentials map[string]fakeCredential // keyed by lowercased email
	resetsSent  []string
}

type fakeCredential struct {
	id       string
	password string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{credentials: map[string]fakeCredential{}}
}

func (p *fakeProvider) CreateCredential(_ context.Context, email, password string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(key, "@") {
		return "", identity.ErrInvalidEmail
	}
	if len(password) < 6 {
		return "", identity.ErrWeakPassword
	}
	if _, exists := p.credentials[key]; exists {
		return "", identity.ErrEmailInUse
	}
	id := uuid.NewString()
	p.credentials[key] = fakeCredential{id: id, password: password}
	return id, nil
}

func (p *fakeProvider) VerifyCredential(_ context.Context, email, password string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cred, ok := p.credentials[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return "", identity.ErrNotFound
	}
	if cred.password != password {
		return "", identity.ErrWrongPassword
	}
	return cred.id, nil
}

func (p *fakeProvider) SendResetEmail(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.credentials[strings.ToLower(strings.TrimSpace(email))]; !ok {
		return identity.ErrNotFound
	}
	p.resetsSent = append(p.resetsSent, email)
	return nil
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id, name string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	user.Name = name
	user.Role = role
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.users, id)
	return nil
}

// fakeSessionStore is an in-memory session.Store.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]string{}}
}

func (s *fakeSessionStore) Create(_ context.Context, sessionID, identityID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = identityID
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identityID, ok := s.sessions[sessionID]
	if !ok {
		return "", session.ErrNotFound
	}
	return identityID, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

type authFixture struct {
	svc      *service.AuthService
	provider *fakeProvider
	users    *fakeUserRepo
	sessions *fakeSessionStore
	tracker  *session.Tracker
}

func newAuthFixture() *authFixture {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 15,
		},
	}
	f := &authFixture{
		provider: newFakeProvider(),
		users:    newFakeUserRepo(),
		sessions: newFakeSessionStore(),
		tracker:  session.NewTracker(),
	}
	f.svc = service.NewAuthService(cfg, service.AuthDependencies{
		Provider: f.provider,
		UserRepo: f.users,
		Sessions: f.sessions,
		Tracker:  f.tracker,
		Logger:   zap.NewNop(),
	})
	return f
}

func TestRegisterThenLoginRoundTrip(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, service.RegisterInput{
		Email:    "Carol@Example.com",
		Password: "s3cret!",
		Name:     "carol",
		Role:     domain.RoleClientHead,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.ID)
	assert.Equal(t, "carol@example.com", registered.Email)
	assert.Equal(t, domain.RoleClientHead, registered.Role)

	result, err := f.svc.Login(ctx, "carol@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, result.User.ID)
	assert.Equal(t, domain.RoleClientHead, result.User.Role)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.SessionID)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	identityID, err := f.sessions.Get(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, identityID)

	current, loading := f.tracker.Current()
	assert.False(t, loading)
	require.NotNil(t, current)
	assert.Equal(t, registered.ID, current.ID)
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		input service.RegisterInput
		code  string
	}{
		{
			name:  "missing fields",
			input: service.RegisterInput{Email: "a@b.com", Password: "secret"},
			code:  "VALIDATION_FAILED",
		},
		{
			name:  "unknown role",
			input: service.RegisterInput{Email: "a@b.com", Password: "secret", Name: "a", Role: domain.Role("superuser")},
			code:  "VALIDATION_FAILED",
		},
		{
			name:  "short password",
			input: service.RegisterInput{Email: "a@b.com", Password: "12345", Name: "a", Role: domain.RoleClient},
			code:  "WEAK_PASSWORD",
		},
		{
			name:  "malformed email",
			input: service.RegisterInput{Email: "not-an-email", Password: "secret", Name: "a", Role: domain.RoleClient},
			code:  "INVALID_EMAIL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tt.input)
			assertCode(t, err, tt.code)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	input := service.RegisterInput{Email: "dup@example.com", Password: "secret", Name: "first", Role: domain.RoleClient}
	_, err := f.svc.Register(ctx, input)
	require.NoError(t, err)

	input.Name = "second"
	_, err = f.svc.Register(ctx, input)
	assertCode(t, err, "EMAIL_IN_USE")
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, service.RegisterInput{
		Email: "dana@example.com", Password: "secret", Name: "dana", Role: domain.RoleEmployee,
	})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "dana@example.com", "wrong-password")
	assertCode(t, err, "INVALID_CREDENTIALS")
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Login(context.Background(), "nobody@example.com", "whatever")
	assertCode(t, err, "INVALID_CREDENTIALS")
}

func TestLoginOrphanedCredential(t *testing.T) {
	// a credential without a paired profile is unauthenticated, not a
	// partially signed-in state
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.provider.CreateCredential(ctx, "ghost@example.com", "secret")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "ghost@example.com", "secret")
	assertCode(t, err, "PROFILE_NOT_FOUND")

	current, loading := f.tracker.Current()
	assert.False(t, loading)
	assert.Nil(t, current)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, service.RegisterInput{
		Email: "erin@example.com", Password: "secret", Name: "erin", Role: domain.RoleClient,
	})
	require.NoError(t, err)
	result, err := f.svc.Login(ctx, "erin@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, result.SessionID))
	_, err = f.sessions.Get(ctx, result.SessionID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	current, loading := f.tracker.Current()
	assert.False(t, loading)
	assert.Nil(t, current)

	// second logout of the same session still succeeds
	require.NoError(t, f.svc.Logout(ctx, result.SessionID))
}

func TestRequestPasswordReset(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, service.RegisterInput{
		Email: "frank@example.com", Password: "secret", Name: "frank", Role: domain.RoleClient,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "frank@example.com"))
	assert.Equal(t, []string{"frank@example.com"}, f.provider.resetsSent)

	err = f.svc.RequestPasswordReset(ctx, "unknown@example.com")
	assertCode(t, err, "UNKNOWN_ACCOUNT")
}
