package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/internal/store"
	"github.com/fleetops/apiserver/types"
)

func TestCheckIn_NegativeOdometer(t *testing.T) {
	svc := services.NewTripService(&mockTripRepo{}, &mockAssignmentRepo{}, &mockVehicleRepo{}, nil)

	_, err := svc.CheckIn(context.Background(), driverScope(7, 1), services.CheckInRequest{
		VehicleID:     3,
		DriverID:      7,
		OdometerStart: -1,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestCheckIn_DriverCannotActForOthers(t *testing.T) {
	svc := services.NewTripService(&mockTripRepo{}, &mockAssignmentRepo{}, &mockVehicleRepo{}, nil)

	_, err := svc.CheckIn(context.Background(), driverScope(7, 1), services.CheckInRequest{
		VehicleID:     3,
		DriverID:      8,
		OdometerStart: 100,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestCheckIn_VehicleNotVisible(t *testing.T) {
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, _ types.Scope, _ int) (types.Vehicle, error) {
			return types.Vehicle{}, store.ErrNotFound
		},
	}
	svc := services.NewTripService(&mockTripRepo{}, &mockAssignmentRepo{}, vehicles, nil)

	_, err := svc.CheckIn(context.Background(), driverScope(7, 1), services.CheckInRequest{
		VehicleID:     3,
		DriverID:      7,
		OdometerStart: 100,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCheckIn_NoActiveAssignment(t *testing.T) {
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Vehicle, error) {
			return vehicleFixture(id, 1), nil
		},
	}
	assignments := &mockAssignmentRepo{
		hasActive: func(_ context.Context, _, _ int) (bool, error) {
			return false, nil
		},
	}
	svc := services.NewTripService(&mockTripRepo{}, assignments, vehicles, nil)

	_, err := svc.CheckIn(context.Background(), driverScope(7, 1), services.CheckInRequest{
		VehicleID:     3,
		DriverID:      7,
		OdometerStart: 100,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestCheckIn_VehicleBusyConflictFromStore(t *testing.T) {
	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Vehicle, error) {
			return vehicleFixture(id, 1), nil
		},
	}
	assignments := &mockAssignmentRepo{
		hasActive: func(_ context.Context, _, _ int) (bool, error) {
			return true, nil
		},
	}
	trips := &mockTripRepo{
		checkIn: func(_ context.Context, _ store.CheckInParams) (types.Trip, error) {
			return types.Trip{}, store.ErrConflict
		},
	}
	svc := services.NewTripService(trips, assignments, vehicles, nil)

	_, err := svc.CheckIn(context.Background(), driverScope(7, 1), services.CheckInRequest{
		VehicleID:     3,
		DriverID:      7,
		OdometerStart: 100,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestCheckIn_SupervisorForDriver_PublishesEvent(t *testing.T) {
	scope := supervisorScope(2, 1)

	vehicles := &mockVehicleRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Vehicle, error) {
			return vehicleFixture(id, 1), nil
		},
	}
	assignments := &mockAssignmentRepo{
		hasActive: func(_ context.Context, vehicleID, driverID int) (bool, error) {
			assert.Equal(t, 3, vehicleID)
			assert.Equal(t, 7, driverID)
			return true, nil
		},
	}
	trips := &mockTripRepo{
		checkIn: func(_ context.Context, p store.CheckInParams) (types.Trip, error) {
			assert.Equal(t, 2, p.PerformedByID)
			assert.Equal(t, types.RoleSupervisor, p.PerformedByRole)
			assert.Equal(t, 7, p.DriverID)
			return openTripFixture(42, p.VehicleID, p.DriverID), nil
		},
	}
	publisher := newMockPublisher()
	svc := services.NewTripService(trips, assignments, vehicles, publisher)

	trip, err := svc.CheckIn(context.Background(), scope, services.CheckInRequest{
		VehicleID:     3,
		DriverID:      7,
		OdometerStart: 12000,
		LocationStart: "Depot A",
		Purpose:       "site visit",
	})

	require.NoError(t, err)
	assert.Equal(t, 42, trip.ID)
	assert.True(t, trip.Open())

	select {
	case event := <-publisher.published:
		assert.Equal(t, services.ChannelTripCheckedIn, event.Channel)
		assert.Equal(t, "2", event.Attrs["performed_by_id"])
		assert.Equal(t, types.RoleSupervisor, event.Attrs["performed_by_role"])

		var payload types.Trip
		require.NoError(t, json.Unmarshal(event.Data, &payload))
		assert.Equal(t, 42, payload.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a check-in event to be published")
	}
}

func TestCheckOut_OdometerBelowStart(t *testing.T) {
	trips := &mockTripRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Trip, error) {
			return openTripFixture(id, 3, 7), nil
		},
	}
	svc := services.NewTripService(trips, &mockAssignmentRepo{}, &mockVehicleRepo{}, nil)

	_, err := svc.CheckOut(context.Background(), driverScope(7, 1), services.CheckOutRequest{
		TripID:      42,
		VehicleID:   3,
		OdometerEnd: 11000,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestCheckOut_DriverCannotCloseOthersTrip(t *testing.T) {
	trips := &mockTripRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Trip, error) {
			return openTripFixture(id, 3, 8), nil
		},
	}
	svc := services.NewTripService(trips, &mockAssignmentRepo{}, &mockVehicleRepo{}, nil)

	_, err := svc.CheckOut(context.Background(), driverScope(7, 1), services.CheckOutRequest{
		TripID:      42,
		VehicleID:   3,
		OdometerEnd: 12500,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestCheckOut_AlreadyClosedConflict(t *testing.T) {
	trips := &mockTripRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Trip, error) {
			return openTripFixture(id, 3, 7), nil
		},
		checkOut: func(_ context.Context, _ store.CheckOutParams) (types.Trip, error) {
			return types.Trip{}, store.ErrConflict
		},
	}
	svc := services.NewTripService(trips, &mockAssignmentRepo{}, &mockVehicleRepo{}, nil)

	_, err := svc.CheckOut(context.Background(), driverScope(7, 1), services.CheckOutRequest{
		TripID:      42,
		VehicleID:   3,
		OdometerEnd: 12500,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestCheckOut_Success_PublishesEvent(t *testing.T) {
	end := 12500.0
	endTime := time.Date(2026, 2, 1, 17, 0, 0, 0, time.UTC)
	trips := &mockTripRepo{
		getByID: func(_ context.Context, _ types.Scope, id int) (types.Trip, error) {
			return openTripFixture(id, 3, 7), nil
		},
		checkOut: func(_ context.Context, p store.CheckOutParams) (types.Trip, error) {
			closed := openTripFixture(p.TripID, p.VehicleID, 7)
			closed.OdometerEnd = &end
			closed.CheckOutTime = &endTime
			return closed, nil
		},
	}
	publisher := newMockPublisher()
	svc := services.NewTripService(trips, &mockAssignmentRepo{}, &mockVehicleRepo{}, publisher)

	trip, err := svc.CheckOut(context.Background(), driverScope(7, 1), services.CheckOutRequest{
		TripID:      42,
		VehicleID:   3,
		OdometerEnd: end,
		LocationEnd: "Depot A",
	})

	require.NoError(t, err)
	assert.False(t, trip.Open())

	distance, ok := trip.Distance()
	require.True(t, ok)
	assert.Equal(t, 500.0, distance)

	select {
	case event := <-publisher.published:
		assert.Equal(t, services.ChannelTripCheckedOut, event.Channel)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a check-out event to be published")
	}
}

func TestCheckOut_TripNotFound(t *testing.T) {
	trips := &mockTripRepo{
		getByID: func(_ context.Context, _ types.Scope, _ int) (types.Trip, error) {
			return types.Trip{}, store.ErrNotFound
		},
	}
	svc := services.NewTripService(trips, &mockAssignmentRepo{}, &mockVehicleRepo{}, nil)

	_, err := svc.CheckOut(context.Background(), driverScope(7, 1), services.CheckOutRequest{
		TripID:      99,
		VehicleID:   3,
		OdometerEnd: 12500,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
