package services

import (
	"context"
	"fmt"

	"github.com/fleetops/apiserver/internal/store"
	"github.com/fleetops/apiserver/types"
)

// FuelLogRepository defines persistence operations for fuel logs.
type FuelLogRepository interface {
	Create(ctx context.Context, log types.FuelLog) (types.FuelLog, error)
	List(ctx context.Context, scope types.Scope, filter store.FuelFilter) ([]types.FuelLog, error)
}

// FuelService encapsulates fuel log use-cases. Fuel logs are pure appends;
// nothing else is mutated.
type FuelService struct {
	fuel     FuelLogRepository
	vehicles VehicleRepository
}

func NewFuelService(fuel FuelLogRepository, vehicles VehicleRepository) *FuelService {
	return &FuelService{fuel: fuel, vehicles: vehicles}
}

// Log appends a fuel record. litres must be positive; cost and odometer
// non-negative. When a trip is referenced it must belong to the same vehicle
// (the trip may already be closed: receipts are often logged after checkout).
func (s *FuelService) Log(ctx context.Context, scope types.Scope, log types.FuelLog) (types.FuelLog, error) {
	if log.Litres <= 0 {
		return types.FuelLog{}, fmt.Errorf("litres must be > 0: %w", ErrValidation)
	}
	if log.Cost < 0 {
		return types.FuelLog{}, fmt.Errorf("cost must be >= 0: %w", ErrValidation)
	}
	if log.Odometer < 0 {
		return types.FuelLog{}, fmt.Errorf("odometer must be >= 0: %w", ErrValidation)
	}

	if _, err := s.vehicles.GetByID(ctx, scope, log.VehicleID); err != nil {
		return types.FuelLog{}, fmt.Errorf("vehicle: %w", err)
	}

	if log.LoggedBy == 0 {
		log.LoggedBy = scope.UserID
	}

	return s.fuel.Create(ctx, log)
}

// List returns fuel logs visible to the scope.
func (s *FuelService) List(ctx context.Context, scope types.Scope, filter store.FuelFilter) ([]types.FuelLog, error) {
	return s.fuel.List(ctx, scope, filter)
}
