package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/fleetops/apiserver/types"
)

// VehicleRepository defines persistence operations for vehicles.
type VehicleRepository interface {
	GetByID(ctx context.Context, scope types.Scope, id int) (types.Vehicle, error)
	List(ctx context.Context, scope types.Scope) ([]types.Vehicle, error)
	Create(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error)
	Update(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error)
	SetMaintenance(ctx context.Context, id int, maintenance bool) (types.Vehicle, error)
}

// VehicleService encapsulates vehicle registry use-cases.
type VehicleService struct {
	repo VehicleRepository
}

func NewVehicleService(repo VehicleRepository) *VehicleService {
	return &VehicleService{repo: repo}
}

func (s *VehicleService) GetByID(ctx context.Context, scope types.Scope, id int) (types.Vehicle, error) {
	return s.repo.GetByID(ctx, scope, id)
}

func (s *VehicleService) List(ctx context.Context, scope types.Scope) ([]types.Vehicle, error) {
	return s.repo.List(ctx, scope)
}

func (s *VehicleService) Create(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error) {
	vehicle.PlateNumber = strings.TrimSpace(vehicle.PlateNumber)
	if vehicle.PlateNumber == "" {
		return types.Vehicle{}, fmt.Errorf("plate number is required: %w", ErrValidation)
	}
	if vehicle.EntityID == 0 {
		return types.Vehicle{}, fmt.Errorf("entity is required: %w", ErrValidation)
	}
	// New vehicles always start available; in-use is owned by the trip
	// lifecycle and maintenance has its own transition.
	vehicle.Status = types.VehicleAvailable
	return s.repo.Create(ctx, vehicle)
}

// Update changes registry fields. Status is deliberately not updatable here:
// in-use is controlled by check-in/check-out and maintenance by SetMaintenance.
func (s *VehicleService) Update(ctx context.Context, scope types.Scope, vehicle types.Vehicle) (types.Vehicle, error) {
	vehicle.PlateNumber = strings.TrimSpace(vehicle.PlateNumber)
	if vehicle.PlateNumber == "" {
		return types.Vehicle{}, fmt.Errorf("plate number is required: %w", ErrValidation)
	}

	current, err := s.repo.GetByID(ctx, scope, vehicle.ID)
	if err != nil {
		return types.Vehicle{}, err
	}
	vehicle.Status = current.Status
	vehicle.CreatedAt = current.CreatedAt
	return s.repo.Update(ctx, vehicle)
}

// SetMaintenance moves a vehicle into or out of maintenance. The vehicle must
// be visible to the scope, and entering maintenance is refused while a trip is
// open.
func (s *VehicleService) SetMaintenance(ctx context.Context, scope types.Scope, id int, maintenance bool) (types.Vehicle, error) {
	if _, err := s.repo.GetByID(ctx, scope, id); err != nil {
		return types.Vehicle{}, err
	}
	return s.repo.SetMaintenance(ctx, id, maintenance)
}
