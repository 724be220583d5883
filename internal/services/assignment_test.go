package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/internal/store"
	"github.com/fleetops/apiserver/types"
)

func driverUser(id, entityID int) types.User {
	return types.User{
		ID:       id,
		Username: "driver",
		Fullname: "Driver One",
		Role:     types.RoleDriver,
		EntityID: intPtr(entityID),
	}
}

func TestAssignmentCreateOrReplace_Success(t *testing.T) {
	scope := supervisorScope(2, 1)

	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Vehicle, error) {
			return vehicleFixture(id, 1), nil
		},
	}
	users := &mockUserRepo{
		getByID: func(_ context.Context, id int) (types.User, error) {
			return driverUser(id, 1), nil
		},
	}
	assignments := &mockAssignmentRepo{
		createOrReplace: func(_ context.Context, vehicleID, driverID int, permanent bool) (types.Assignment, error) {
			assert.Equal(t, 3, vehicleID)
			assert.Equal(t, 7, driverID)
			assert.True(t, permanent)
			return types.Assignment{
				ID:         11,
				VehicleID:  vehicleID,
				DriverID:   driverID,
				Permanent:  permanent,
				AssignedAt: time.Now().UTC(),
			}, nil
		},
	}
	svc := services.NewAssignmentService(assignments, vehicles, users)

	assignment, err := svc.CreateOrReplace(context.Background(), scope, 3, 7, true)

	require.NoError(t, err)
	assert.Equal(t, 11, assignment.ID)
	assert.True(t, assignment.Active())
}

func TestAssignmentCreateOrReplace_NotADriver(t *testing.T) {
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Vehicle, error) {
			return vehicleFixture(id, 1), nil
		},
	}
	users := &mockUserRepo{
		getByID: func(_ context.Context, id int) (types.User, error) {
			user := driverUser(id, 1)
			user.Role = types.RoleSupervisor
			return user, nil
		},
	}
	svc := services.NewAssignmentService(&mockAssignmentRepo{}, vehicles, users)

	_, err := svc.CreateOrReplace(context.Background(), supervisorScope(2, 1), 3, 7, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestAssignmentCreateOrReplace_DriverFromAnotherEntity(t *testing.T) {
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Vehicle, error) {
			return vehicleFixture(id, 1), nil
		},
	}
	users := &mockUserRepo{
		getByID: func(_ context.Context, id int) (types.User, error) {
			return driverUser(id, 2), nil
		},
	}
	svc := services.NewAssignmentService(&mockAssignmentRepo{}, vehicles, users)

	_, err := svc.CreateOrReplace(context.Background(), supervisorScope(2, 1), 3, 7, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestAssignmentCreateOrReplace_VehicleNotVisible(t *testing.T) {
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, _ types.Scope, _ int) (types.Vehicle, error) {
			return types.Vehicle{}, store.ErrNotFound
		},
	}
	svc := services.NewAssignmentService(&mockAssignmentRepo{}, vehicles, &mockUserRepo{})

	_, err := svc.CreateOrReplace(context.Background(), supervisorScope(2, 1), 3, 7, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAssignmentUpdateActive_Success(t *testing.T) {
	assignments := &mockAssignmentRepo{
		getActiveByID: func(_ context.Context, _ types.Scope, id int) (types.Assignment, error) {
			return types.Assignment{ID: id, VehicleID: 3, DriverID: 7}, nil
		},
		updateActive: func(_ context.Context, id, driverID int, permanent bool) (types.Assignment, error) {
			return types.Assignment{ID: id, VehicleID: 3, DriverID: driverID, Permanent: permanent}, nil
		},
	}
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Vehicle, error) {
			return vehicleFixture(id, 1), nil
		},
	}
	users := &mockUserRepo{
		getByID: func(_ context.Context, id int) (types.User, error) {
			return driverUser(id, 1), nil
		},
	}
	svc := services.NewAssignmentService(assignments, vehicles, users)

	assignment, err := svc.UpdateActive(context.Background(), supervisorScope(2, 1), 11, 8, true)

	require.NoError(t, err)
	assert.Equal(t, 8, assignment.DriverID)
	assert.True(t, assignment.Permanent)
}

// An assignment on another entity's vehicle is invisible to the caller: the
// scoped lookup misses and the update never reaches the ledger.
func TestAssignmentUpdateActive_AssignmentOutOfScope(t *testing.T) {
	assignments := &mockAssignmentRepo{
		getActiveByID: func(_ context.Context, scope types.Scope, _ int) (types.Assignment, error) {
			require.NotNil(t, scope.EntityID)
			assert.Equal(t, 1, *scope.EntityID)
			return types.Assignment{}, store.ErrNotFound
		},
	}
	svc := services.NewAssignmentService(assignments, &mockVehicleRepo{}, &mockUserRepo{})

	_, err := svc.UpdateActive(context.Background(), supervisorScope(2, 1), 11, 7, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// Moving an assignment to a driver from another entity fails the same entity
// rule CreateOrReplace enforces.
func TestAssignmentUpdateActive_DriverFromAnotherEntity(t *testing.T) {
	assignments := &mockAssignmentRepo{
		getActiveByID: func(_ context.Context, _ types.Scope, id int) (types.Assignment, error) {
			return types.Assignment{ID: id, VehicleID: 3, DriverID: 7}, nil
		},
	}
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Vehicle, error) {
			return vehicleFixture(id, 1), nil
		},
	}
	users := &mockUserRepo{
		getByID: func(_ context.Context, id int) (types.User, error) {
			return driverUser(id, 2), nil
		},
	}
	svc := services.NewAssignmentService(assignments, vehicles, users)

	_, err := svc.UpdateActive(context.Background(), supervisorScope(2, 1), 11, 8, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestAssignmentRemove_Success(t *testing.T) {
	ended := false
	assignments := &mockAssignmentRepo{
		getActiveByID: func(_ context.Context, _ types.Scope, id int) (types.Assignment, error) {
			return types.Assignment{ID: id, VehicleID: 3, DriverID: 7}, nil
		},
		end: func(_ context.Context, id int) error {
			assert.Equal(t, 11, id)
			ended = true
			return nil
		},
	}
	svc := services.NewAssignmentService(assignments, &mockVehicleRepo{}, &mockUserRepo{})

	err := svc.Remove(context.Background(), supervisorScope(2, 1), 11)

	require.NoError(t, err)
	assert.True(t, ended)
}

// A supervisor cannot end an assignment on another entity's vehicle: the
// scoped lookup returns nothing and End is never called.
func TestAssignmentRemove_OutOfScope(t *testing.T) {
	assignments := &mockAssignmentRepo{
		getActiveByID: func(_ context.Context, scope types.Scope, _ int) (types.Assignment, error) {
			require.NotNil(t, scope.EntityID)
			assert.Equal(t, 1, *scope.EntityID)
			return types.Assignment{}, store.ErrNotFound
		},
		end: func(_ context.Context, _ int) error {
			t.Fatal("End must not be reached for an out-of-scope assignment")
			return nil
		},
	}
	svc := services.NewAssignmentService(assignments, &mockVehicleRepo{}, &mockUserRepo{})

	err := svc.Remove(context.Background(), supervisorScope(2, 1), 55)

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAssignmentRemove_NotFound(t *testing.T) {
	assignments := &mockAssignmentRepo{
		getActiveByID: func(_ context.Context, _ types.Scope, _ int) (types.Assignment, error) {
			return types.Assignment{}, store.ErrNotFound
		},
	}
	svc := services.NewAssignmentService(assignments, &mockVehicleRepo{}, &mockUserRepo{})

	err := svc.Remove(context.Background(), supervisorScope(2, 1), 11)

	assert.ErrorIs(t, err, store.ErrNotFound)
}
