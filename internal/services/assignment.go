package services

import (
	"context"
	"fmt"

	"github.com/fleetops/apiserver/types"
)

// AssignmentRepository defines persistence operations for the assignment ledger.
type AssignmentRepository interface {
	CreateOrReplace(ctx context.Context, vehicleID, driverID int, permanent bool) (types.Assignment, error)
	UpdateActive(ctx context.Context, id, driverID int, permanent bool) (types.Assignment, error)
	End(ctx context.Context, id int) error
	GetActiveByID(ctx context.Context, scope types.Scope, id int) (types.Assignment, error)
	GetActiveByVehicle(ctx context.Context, scope types.Scope, vehicleID int) (types.Assignment, error)
	GetActiveByDriver(ctx context.Context, scope types.Scope, driverID int) (types.Assignment, error)
	HasActive(ctx context.Context, vehicleID, driverID int) (bool, error)
}

// AssignmentService encapsulates the assignment ledger use-cases.
type AssignmentService struct {
	assignments AssignmentRepository
	vehicles    VehicleRepository
	users       UserRepository
}

func NewAssignmentService(assignments AssignmentRepository, vehicles VehicleRepository, users UserRepository) *AssignmentService {
	return &AssignmentService{assignments: assignments, vehicles: vehicles, users: users}
}

// CreateOrReplace binds a driver to a vehicle, atomically replacing any
// existing active assignment for that vehicle. The vehicle must be visible to
// the scope and not in maintenance; the driver must hold the driver role and
// belong to the vehicle's entity.
func (s *AssignmentService) CreateOrReplace(ctx context.Context, scope types.Scope, vehicleID, driverID int, permanent bool) (types.Assignment, error) {
	vehicle, err := s.vehicles.GetByID(ctx, scope, vehicleID)
	if err != nil {
		return types.Assignment{}, fmt.Errorf("vehicle: %w", err)
	}

	if err := s.checkDriver(ctx, driverID, vehicle.EntityID); err != nil {
		return types.Assignment{}, err
	}

	return s.assignments.CreateOrReplace(ctx, vehicleID, driverID, permanent)
}

// UpdateActive changes the driver or permanence of an active assignment. The
// assignment's vehicle must be visible to the scope, and the new driver must
// satisfy the same role and entity rules as CreateOrReplace.
func (s *AssignmentService) UpdateActive(ctx context.Context, scope types.Scope, id, driverID int, permanent bool) (types.Assignment, error) {
	current, err := s.assignments.GetActiveByID(ctx, scope, id)
	if err != nil {
		return types.Assignment{}, fmt.Errorf("assignment: %w", err)
	}

	vehicle, err := s.vehicles.GetByID(ctx, scope, current.VehicleID)
	if err != nil {
		return types.Assignment{}, fmt.Errorf("vehicle: %w", err)
	}

	if err := s.checkDriver(ctx, driverID, vehicle.EntityID); err != nil {
		return types.Assignment{}, err
	}

	return s.assignments.UpdateActive(ctx, id, driverID, permanent)
}

// Remove ends an active assignment visible to the scope. An open trip on the
// vehicle is not touched: pulling the assignment never force-closes an
// in-progress trip.
func (s *AssignmentService) Remove(ctx context.Context, scope types.Scope, id int) error {
	if _, err := s.assignments.GetActiveByID(ctx, scope, id); err != nil {
		return fmt.Errorf("assignment: %w", err)
	}
	return s.assignments.End(ctx, id)
}

// ActiveForDriver returns the driver's current assignment.
func (s *AssignmentService) ActiveForDriver(ctx context.Context, scope types.Scope, driverID int) (types.Assignment, error) {
	return s.assignments.GetActiveByDriver(ctx, scope, driverID)
}

// ActiveForVehicle returns the vehicle's current assignment.
func (s *AssignmentService) ActiveForVehicle(ctx context.Context, scope types.Scope, vehicleID int) (types.Assignment, error) {
	return s.assignments.GetActiveByVehicle(ctx, scope, vehicleID)
}

func (s *AssignmentService) checkDriver(ctx context.Context, driverID, entityID int) error {
	driver, err := s.users.GetByID(ctx, driverID)
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	if driver.Role != types.RoleDriver {
		return fmt.Errorf("user %d is not a driver: %w", driverID, ErrValidation)
	}
	if driver.EntityID == nil || *driver.EntityID != entityID {
		return fmt.Errorf("driver belongs to another entity: %w", ErrValidation)
	}
	return nil
}
