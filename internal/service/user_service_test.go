package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trackdesk/trackdesk/internal/domain"
	"github.com/trackdesk/trackdesk/internal/service"
)

type userFixture struct {
	svc      *service.UserService
	provider *fakeProvider
	users    *fakeUserRepo
}

func newUserFixture() *userFixture {
	f := &userFixture{
		provider: newFakeProvider(),
		users:    newFakeUserRepo(),
	}
	f.svc = service.NewUserService(service.UserDependencies{
		Provider: f.provider,
		UserRepo: f.users,
		Logger:   zap.NewNop(),
	})
	return f
}

var admin = &domain.User{ID: "admin-1", Name: "root", Email: "root@example.com", Role: domain.RoleAdmin}

func TestUserManagementRequiresAdmin(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	for _, actor := range []*domain.User{nil, alice, bob, pm, head} {
		_, err := f.svc.List(ctx, actor)
		require.Error(t, err)

		_, err = f.svc.Create(ctx, actor, service.UserCreateInput{
			Email: "x@example.com", Password: "secret", Name: "x", Role: domain.RoleClient,
		})
		require.Error(t, err)

		err = f.svc.Delete(ctx, actor, "someone")
		require.Error(t, err)
	}
}

func TestAdminCreatesUserWithAnyRole(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	for _, role := range domain.Roles() {
		user, err := f.svc.Create(ctx, admin, service.UserCreateInput{
			Email:    string(role) + "@example.com",
			Password: "secret",
			Name:     string(role),
			Role:     role,
		})
		require.NoError(t, err)
		assert.Equal(t, role, user.Role)

		stored, err := f.users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, role, stored.Role)
	}
}

func TestAdminUpdateNameAndRole(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, admin, service.UserCreateInput{
		Email: "gwen@example.com", Password: "secret", Name: "gwen", Role: domain.RoleClient,
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, admin, created.ID, "gwen c.", domain.RoleClientHead)
	require.NoError(t, err)
	assert.Equal(t, "gwen c.", updated.Name)
	assert.Equal(t, domain.RoleClientHead, updated.Role)
	assert.Equal(t, created.Email, updated.Email)

	_, err = f.svc.Update(ctx, admin, "missing", "name", domain.RoleClient)
	assertCode(t, err, "NOT_FOUND")
}

func TestAdminCannotDeleteOwnAccount(t *testing.T) {
	f := newUserFixture()

	err := f.svc.Delete(context.Background(), admin, admin.ID)
	assertCode(t, err, "CONFLICT")
}

func TestDeleteLeavesCredentialBehind(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, admin, service.UserCreateInput{
		Email: "ivan@example.com", Password: "secret", Name: "ivan", Role: domain.RoleEmployee,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, admin, created.ID))

	// the profile is gone but the credential still verifies
	_, err = f.users.GetByID(ctx, created.ID)
	require.Error(t, err)
	identityID, err := f.provider.VerifyCredential(ctx, "ivan@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, identityID)
}

func TestListEmployeesForAssignmentPicker(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, admin, service.UserCreateInput{
		Email: "e1@example.com", Password: "secret", Name: "e1", Role: domain.RoleEmployee,
	})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, admin, service.UserCreateInput{
		Email: "c1@example.com", Password: "secret", Name: "c1", Role: domain.RoleClient,
	})
	require.NoError(t, err)

	employees, err := f.svc.ListEmployees(ctx, pm)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, domain.RoleEmployee, employees[0].Role)

	_, err = f.svc.ListEmployees(ctx, alice)
	assertCode(t, err, "FORBIDDEN")
}
