package handlers_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/apiserver/internal/handlers"
	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/internal/store"
	"github.com/fleetops/apiserver/types"
)

const testSecret = "test-secret"

// Repository test doubles. Set only the method fields a test needs.

type mockUserRepo struct {
	getByID       func(ctx context.Context, id int) (types.User, error)
	getByUsername func(ctx context.Context, username string) (types.User, error)
	list          func(ctx context.Context, scope types.Scope, role string) ([]types.User, error)
	create        func(ctx context.Context, user types.User) (types.User, error)
	update        func(ctx context.Context, user types.User) (types.User, error)
	delete        func(ctx context.Context, id int) error
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	return m.getByID(ctx, id)
}
func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return m.getByUsername(ctx, username)
}
func (m *mockUserRepo) List(ctx context.Context, scope types.Scope, role string) ([]types.User, error) {
	return m.list(ctx, scope, role)
}
func (m *mockUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	return m.create(ctx, user)
}
func (m *mockUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	return m.update(ctx, user)
}
func (m *mockUserRepo) Delete(ctx context.Context, id int) error {
	return m.delete(ctx, id)
}

var _ services.UserRepository = (*mockUserRepo)(nil)

type mockTripRepo struct {
	checkIn          func(ctx context.Context, p store.CheckInParams) (types.Trip, error)
	checkOut         func(ctx context.Context, p store.CheckOutParams) (types.Trip, error)
	getByID          func(ctx context.Context, scope types.Scope, id int) (types.Trip, error)
	getOpenByDriver  func(ctx context.Context, scope types.Scope, driverID int) (types.Trip, error)
	getOpenByVehicle func(ctx context.Context, scope types.Scope, vehicleID int) (types.Trip, error)
	list             func(ctx context.Context, scope types.Scope, filter store.TripFilter) ([]types.Trip, error)
	listEvents       func(ctx context.Context, tripID int) ([]types.TripEvent, error)
}

func (m *mockTripRepo) CheckIn(ctx context.Context, p store.CheckInParams) (types.Trip, error) {
	return m.checkIn(ctx, p)
}
func (m *mockTripRepo) CheckOut(ctx context.Context, p store.CheckOutParams) (types.Trip, error) {
	return m.checkOut(ctx, p)
}
func (m *mockTripRepo) GetByID(ctx context.Context, scope types.Scope, id int) (types.Trip, error) {
	return m.getByID(ctx, scope, id)
}
func (m *mockTripRepo) GetOpenByDriver(ctx context.Context, scope types.Scope, driverID int) (types.Trip, error) {
	return m.getOpenByDriver(ctx, scope, driverID)
}
func (m *mockTripRepo) GetOpenByVehicle(ctx context.Context, scope types.Scope, vehicleID int) (types.Trip, error) {
	return m.getOpenByVehicle(ctx, scope, vehicleID)
}
func (m *mockTripRepo) List(ctx context.Context, scope types.Scope, filter store.TripFilter) ([]types.Trip, error) {
	return m.list(ctx, scope, filter)
}
func (m *mockTripRepo) ListEvents(ctx context.Context, tripID int) ([]types.TripEvent, error) {
	return m.listEvents(ctx, tripID)
}

var _ services.TripRepository = (*mockTripRepo)(nil)

type mockAssignmentRepo struct {
	createOrReplace    func(ctx context.Context, vehicleID, driverID int, permanent bool) (types.Assignment, error)
	updateActive       func(ctx context.Context, id, driverID int, permanent bool) (types.Assignment, error)
	end                func(ctx context.Context, id int) error
	getActiveByID      func(ctx context.Context, scope types.Scope, id int) (types.Assignment, error)
	getActiveByVehicle func(ctx context.Context, scope types.Scope, vehicleID int) (types.Assignment, error)
	getActiveByDriver  func(ctx context.Context, scope types.Scope, driverID int) (types.Assignment, error)
	hasActive          func(ctx context.Context, vehicleID, driverID int) (bool, error)
}

func (m *mockAssignmentRepo) CreateOrReplace(ctx context.Context, vehicleID, driverID int, permanent bool) (types.Assignment, error) {
	return m.createOrReplace(ctx, vehicleID, driverID, permanent)
}
func (m *mockAssignmentRepo) UpdateActive(ctx context.Context, id, driverID int, permanent bool) (types.Assignment, error) {
	return m.updateActive(ctx, id, driverID, permanent)
}
func (m *mockAssignmentRepo) End(ctx context.Context, id int) error {
	return m.end(ctx, id)
}
func (m *mockAssignmentRepo) GetActiveByID(ctx context.Context, scope types.Scope, id int) (types.Assignment, error) {
	return m.getActiveByID(ctx, scope, id)
}
func (m *mockAssignmentRepo) GetActiveByVehicle(ctx context.Context, scope types.Scope, vehicleID int) (types.Assignment, error) {
	return m.getActiveByVehicle(ctx, scope, vehicleID)
}
func (m *mockAssignmentRepo) GetActiveByDriver(ctx context.Context, scope types.Scope, driverID int) (types.Assignment, error) {
	return m.getActiveByDriver(ctx, scope, driverID)
}
func (m *mockAssignmentRepo) HasActive(ctx context.Context, vehicleID, driverID int) (bool, error) {
	return m.hasActive(ctx, vehicleID, driverID)
}

var _ services.AssignmentRepository = (*mockAssignmentRepo)(nil)

type mockVehicleRepo struct {
	getByID        func(ctx context.Context, scope types.Scope, id int) (types.Vehicle, error)
	list           func(ctx context.Context, scope types.Scope) ([]types.Vehicle, error)
	create         func(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error)
	update         func(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error)
	setMaintenance func(ctx context.Context, id int, maintenance bool) (types.Vehicle, error)
}

func (m *mockVehicleRepo) GetByID(ctx context.Context, scope types.Scope, id int) (types.Vehicle, error) {
	return m.getByID(ctx, scope, id)
}
func (m *mockVehicleRepo) List(ctx context.Context, scope types.Scope) ([]types.Vehicle, error) {
	return m.list(ctx, scope)
}
func (m *mockVehicleRepo) Create(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error) {
	return m.create(ctx, vehicle)
}
func (m *mockVehicleRepo) Update(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error) {
	return m.update(ctx, vehicle)
}
func (m *mockVehicleRepo) SetMaintenance(ctx context.Context, id int, maintenance bool) (types.Vehicle, error) {
	return m.setMaintenance(ctx, id, maintenance)
}

var _ services.VehicleRepository = (*mockVehicleRepo)(nil)

type mockFuelRepo struct {
	create func(ctx context.Context, log types.FuelLog) (types.FuelLog, error)
	list   func(ctx context.Context, scope types.Scope, filter store.FuelFilter) ([]types.FuelLog, error)
}

func (m *mockFuelRepo) Create(ctx context.Context, log types.FuelLog) (types.FuelLog, error) {
	return m.create(ctx, log)
}
func (m *mockFuelRepo) List(ctx context.Context, scope types.Scope, filter store.FuelFilter) ([]types.FuelLog, error) {
	return m.list(ctx, scope, filter)
}

var _ services.FuelLogRepository = (*mockFuelRepo)(nil)

// ---- helpers ---------------------------------------------------------------

func intPtr(v int) *int { return &v }

// signToken issues a token the auth middleware accepts, shaped exactly like
// the ones Login hands out.
func signToken(t *testing.T, userID int, role string, entityID *int) string {
	t.Helper()
	now := time.Now()
	claims := handlers.Claims{
		Role:     role,
		EntityID: entityID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}
