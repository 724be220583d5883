package services_test

import (
	"context"
	"time"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/internal/store"
	"github.com/fleetops/apiserver/types"
)

// Test doubles for the repository interfaces. Set only the method fields a
// test needs; an unset field that gets called panics and fails the test.

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

// mockPublisher records publishes and signals on a channel so tests can wait
// for the async emit.
type mockPublisher struct {
	published chan publishedEvent
}

type publishedEvent struct {
	Channel string
	Data    []byte
	Attrs   map[string]string
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{published: make(chan publishedEvent, 4)}
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	m.published <- publishedEvent{Channel: channel, Data: data, Attrs: attrs}
	return "msg-1", nil
}

var _ services.EventPublisher = (*mockPublisher)(nil)

// ---- fixtures --------------------------------------------------------------

func intPtr(v int) *int { return &v }

func driverScope(userID, entityID int) types.Scope {
	return types.Scope{UserID: userID, Role: types.RoleDriver, EntityID: intPtr(entityID)}
}

func supervisorScope(userID, entityID int) types.Scope {
	return types.Scope{UserID: userID, Role: types.RoleSupervisor, EntityID: intPtr(entityID)}
}

func vehicleFixture(id, entityID int) types.Vehicle {
	return types.Vehicle{
		ID:          id,
		PlateNumber: "KA-01-1234",
		Make:        "Toyota",
		Model:       "Hilux",
		Status:      types.VehicleAvailable,
		EntityID:    entityID,
		CreatedAt:   time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

func openTripFixture(id, vehicleID, driverID int) types.Trip {
	return types.Trip{
		ID:            id,
		VehicleID:     vehicleID,
		DriverID:      driverID,
		Purpose:       "site visit",
		OdometerStart: 12000,
		LocationStart: "Depot A",
		CheckInTime:   time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}
}
