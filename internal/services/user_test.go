package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/internal/store"
	"github.com/fleetops/apiserver/types"
)

func TestUserCreate_RequiresUsername(t *testing.T) {
	svc := services.NewUserService(&mockUserRepo{})

	_, err := svc.Create(context.Background(), types.User{
		Username:     "   ",
		Fullname:     "Driver One",
		Role:         types.RoleDriver,
		EntityID:     intPtr(1),
		PasswordHash: "hash",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestUserCreate_RejectsUnknownRole(t *testing.T) {
	svc := services.NewUserService(&mockUserRepo{})

	_, err := svc.Create(context.Background(), types.User{
		Username:     "d.one",
		Fullname:     "Driver One",
		Role:         "janitor",
		EntityID:     intPtr(1),
		PasswordHash: "hash",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestUserCreate_RequiresEntityForScopedRoles(t *testing.T) {
	svc := services.NewUserService(&mockUserRepo{})

	_, err := svc.Create(context.Background(), types.User{
		Username:     "d.one",
		Fullname:     "Driver One",
		Role:         types.RoleDriver,
		PasswordHash: "hash",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestUserCreate_SuperAdminWithoutEntity(t *testing.T) {
	repo := &mockUserRepo{
		create: func(_ context.Context, user types.User) (types.User, error) {
			user.ID = 1
			return user, nil
		},
	}
	svc := services.NewUserService(repo)

	user, err := svc.Create(context.Background(), types.User{
		Username:     "root",
		Fullname:     "Root Admin",
		Role:         types.RoleSuperAdmin,
		PasswordHash: "hash",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Nil(t, user.EntityID)
}

func TestUserList_RejectsUnknownRoleFilter(t *testing.T) {
	svc := services.NewUserService(&mockUserRepo{})

	_, err := svc.List(context.Background(), supervisorScope(2, 1), "janitor")

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestUserDelete_ReferencedUserIsConflict(t *testing.T) {
	repo := &mockUserRepo{
		delete: func(_ context.Context, _ int) error {
			return store.ErrConflict
		},
	}
	svc := services.NewUserService(repo)

	err := svc.Delete(context.Background(), 7)

	assert.ErrorIs(t, err, store.ErrConflict)
}
