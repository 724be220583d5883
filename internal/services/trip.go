package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/fleetops/apiserver/internal/store"
	"github.com/fleetops/apiserver/types"
)

// Channels trip lifecycle events are published on.
const (
	ChannelTripCheckedIn  = "fleet.trip.checked_in"
	ChannelTripCheckedOut = "fleet.trip.checked_out"
)

// TripRepository defines persistence operations for trips.
type TripRepository interface {
	CheckIn(ctx context.Context, p store.CheckInParams) (types.Trip, error)
	CheckOut(ctx context.Context, p store.CheckOutParams) (types.Trip, error)
	GetByID(ctx context.Context, scope types.Scope, id int) (types.Trip, error)
	GetOpenByDriver(ctx context.Context, scope types.Scope, driverID int) (types.Trip, error)
	GetOpenByVehicle(ctx context.Context, scope types.Scope, vehicleID int) (types.Trip, error)
	List(ctx context.Context, scope types.Scope, filter store.TripFilter) ([]types.Trip, error)
	ListEvents(ctx context.Context, tripID int) ([]types.TripEvent, error)
}

// EventPublisher sends a message to a named channel. Satisfied by *mq.MQ.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// TripService implements the check-in/check-out state machine.
type TripService struct {
	trips       TripRepository
	assignments AssignmentRepository
	vehicles    VehicleRepository
	publisher   EventPublisher
}

// NewTripService constructs a TripService. publisher may be nil, in which case
// lifecycle events are not published.
func NewTripService(trips TripRepository, assignments AssignmentRepository, vehicles VehicleRepository, publisher EventPublisher) *TripService {
	return &TripService{trips: trips, assignments: assignments, vehicles: vehicles, publisher: publisher}
}

// CheckInRequest carries a check-in attempt. DriverID is the driver of record;
// the performer comes from the scope and may differ when a supervisor acts for
// a driver.
type CheckInRequest struct {
	VehicleID     int
	DriverID      int
	OdometerStart float64
	LocationStart string
	Purpose       string
}

// CheckIn opens a trip. Preconditions: the vehicle is visible to the scope and
// not in maintenance, the driver holds an active assignment on it, no trip is
// currently open for it, and the odometer reading is non-negative. The trip
// row, the vehicle status flip to in-use, and the audit event commit together.
func (s *TripService) CheckIn(ctx context.Context, scope types.Scope, req CheckInRequest) (types.Trip, error) {
	if req.OdometerStart < 0 {
		return types.Trip{}, fmt.Errorf("start odometer must be >= 0: %w", ErrValidation)
	}
	if req.DriverID != scope.UserID && !scope.CanActForOthers() {
		return types.Trip{}, fmt.Errorf("drivers may only check in for themselves: %w", ErrForbidden)
	}

	// Scope check doubles as the existence check.
	if _, err := s.vehicles.GetByID(ctx, scope, req.VehicleID); err != nil {
		return types.Trip{}, fmt.Errorf("vehicle: %w", err)
	}

	// Runs outside the check-in transaction. An assignment ended between this
	// check and the commit does not cancel the check-in; ending an assignment
	// never touches trips.
	assigned, err := s.assignments.HasActive(ctx, req.VehicleID, req.DriverID)
	if err != nil {
		return types.Trip{}, err
	}
	if !assigned {
		return types.Trip{}, fmt.Errorf("driver has no active assignment for vehicle: %w", store.ErrConflict)
	}

	trip, err := s.trips.CheckIn(ctx, store.CheckInParams{
		VehicleID:       req.VehicleID,
		DriverID:        req.DriverID,
		Purpose:         req.Purpose,
		OdometerStart:   req.OdometerStart,
		LocationStart:   req.LocationStart,
		PerformedByID:   scope.UserID,
		PerformedByRole: scope.Role,
	})
	if err != nil {
		return types.Trip{}, err
	}

	s.publish(ChannelTripCheckedIn, trip, scope)
	return trip, nil
}

// CheckOutRequest carries a check-out attempt.
type CheckOutRequest struct {
	TripID      int
	VehicleID   int
	OdometerEnd float64
	LocationEnd string
}

// CheckOut closes the open trip. The end odometer must not be below the start
// reading; a closed or mismatched trip is a conflict and leaves all state
// unchanged. The trip close, the vehicle status flip to available, and the
// audit event commit together.
func (s *TripService) CheckOut(ctx context.Context, scope types.Scope, req CheckOutRequest) (types.Trip, error) {
	current, err := s.trips.GetByID(ctx, scope, req.TripID)
	if err != nil {
		return types.Trip{}, fmt.Errorf("trip: %w", err)
	}
	if current.DriverID != scope.UserID && !scope.CanActForOthers() {
		return types.Trip{}, fmt.Errorf("drivers may only check out their own trips: %w", ErrForbidden)
	}
	if req.OdometerEnd < current.OdometerStart {
		return types.Trip{}, fmt.Errorf("end odometer %v below start %v: %w",
			req.OdometerEnd, current.OdometerStart, ErrValidation)
	}

	trip, err := s.trips.CheckOut(ctx, store.CheckOutParams{
		TripID:          req.TripID,
		VehicleID:       req.VehicleID,
		OdometerEnd:     req.OdometerEnd,
		LocationEnd:     req.LocationEnd,
		PerformedByID:   scope.UserID,
		PerformedByRole: scope.Role,
	})
	if err != nil {
		return types.Trip{}, err
	}

	s.publish(ChannelTripCheckedOut, trip, scope)
	return trip, nil
}

// ActiveForDriver returns the driver's open trip.
func (s *TripService) ActiveForDriver(ctx context.Context, scope types.Scope, driverID int) (types.Trip, error) {
	return s.trips.GetOpenByDriver(ctx, scope, driverID)
}

// List returns trips visible to the scope.
func (s *TripService) List(ctx context.Context, scope types.Scope, filter store.TripFilter) ([]types.Trip, error) {
	return s.trips.List(ctx, scope, filter)
}

// Events returns the audit trail for a trip visible to the scope.
func (s *TripService) Events(ctx context.Context, scope types.Scope, tripID int) ([]types.TripEvent, error) {
	if _, err := s.trips.GetByID(ctx, scope, tripID); err != nil {
		return nil, err
	}
	return s.trips.ListEvents(ctx, tripID)
}

// publish emits a lifecycle event without blocking or failing the request.
// The database commit already happened; a broker hiccup is logged and dropped.
func (s *TripService) publish(channel string, trip types.Trip, scope types.Scope) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(trip)
	if err != nil {
		log.Printf("[trips] marshal event for %s: %v", channel, err)
		return
	}
	attrs := map[string]string{
		"performed_by_id":   strconv.Itoa(scope.UserID),
		"performed_by_role": scope.Role,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.publisher.Publish(ctx, channel, data, attrs); err != nil {
			log.Printf("[trips] publish %s for trip %d: %v", channel, trip.ID, err)
		}
	}()
}
