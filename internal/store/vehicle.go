package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fleetops/apiserver/types"
)

// VehicleRepository handles persistence for vehicles.
type VehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `id, plate_number, make, model, status, entity_id, created_at, updated_at`

func scanVehicle(row interface{ Scan(dest ...any) error }) (types.Vehicle, error) {
	var vehicle types.Vehicle
	err := row.Scan(
		&vehicle.ID,
		&vehicle.PlateNumber,
		&vehicle.Make,
		&vehicle.Model,
		&vehicle.Status,
		&vehicle.EntityID,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Vehicle{}, ErrNotFound
		}
		return types.Vehicle{}, err
	}
	return vehicle, nil
}

// GetByID returns a vehicle visible to the scope. Rows outside the caller's
// entity are indistinguishable from missing rows.
func (r *VehicleRepository) GetByID(ctx context.Context, scope types.Scope, id int) (types.Vehicle, error) {
	const query = `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE id = $1
		  AND ($2::int IS NULL OR entity_id = $2)`
	return scanVehicle(r.db.QueryRowContext(ctx, query, id, scopeEntity(scope)))
}

func (r *VehicleRepository) List(ctx context.Context, scope types.Scope) ([]types.Vehicle, error) {
	const query = `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE ($1::int IS NULL OR entity_id = $1)
		ORDER BY plate_number`
	rows, err := r.db.QueryContext(ctx, query, scopeEntity(scope))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []types.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error) {
	now := time.Now()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	if vehicle.Status == "" {
		vehicle.Status = types.VehicleAvailable
	}

	const query = `
		INSERT INTO vehicles (plate_number, make, model, status, entity_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		vehicle.PlateNumber,
		vehicle.Make,
		vehicle.Model,
		vehicle.Status,
		vehicle.EntityID,
		vehicle.CreatedAt,
		vehicle.UpdatedAt,
	).Scan(&vehicle.ID); err != nil {
		return types.Vehicle{}, mapConstraintErr(err)
	}
	return vehicle, nil
}

func (r *VehicleRepository) Update(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error) {
	vehicle.UpdatedAt = time.Now()

	const query = `
		UPDATE vehicles
		SET plate_number = $1,
			make = $2,
			model = $3,
			status = $4,
			entity_id = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		vehicle.PlateNumber,
		vehicle.Make,
		vehicle.Model,
		vehicle.Status,
		vehicle.EntityID,
		vehicle.UpdatedAt,
		vehicle.ID,
	)
	if err != nil {
		return types.Vehicle{}, mapConstraintErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Vehicle{}, err
	}
	if affected == 0 {
		return types.Vehicle{}, ErrNotFound
	}
	return vehicle, nil
}

// SetMaintenance moves a vehicle into or out of maintenance. Entering
// maintenance is refused while the vehicle has an open trip; leaving it always
// lands on available because a vehicle in maintenance can have no open trip.
func (r *VehicleRepository) SetMaintenance(ctx context.Context, id int, maintenance bool) (types.Vehicle, error) {
	if maintenance {
		const query = `
			UPDATE vehicles
			SET status = $1, updated_at = now()
			WHERE id = $2
			  AND NOT EXISTS (
				SELECT 1 FROM trips
				WHERE vehicle_id = $2 AND check_out_time IS NULL
			  )
			RETURNING ` + vehicleColumns
		vehicle, err := scanVehicle(r.db.QueryRowContext(ctx, query, types.VehicleMaintenance, id))
		if errors.Is(err, ErrNotFound) {
			// Distinguish "missing vehicle" from "open trip in the way".
			if exists, existsErr := r.vehicleExists(ctx, id); existsErr == nil && exists {
				return types.Vehicle{}, ErrConflict
			}
			return types.Vehicle{}, ErrNotFound
		}
		return vehicle, err
	}

	const query = `
		UPDATE vehicles
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
		RETURNING ` + vehicleColumns
	vehicle, err := scanVehicle(r.db.QueryRowContext(ctx, query, types.VehicleAvailable, id, types.VehicleMaintenance))
	if errors.Is(err, ErrNotFound) {
		if exists, existsErr := r.vehicleExists(ctx, id); existsErr == nil && exists {
			return types.Vehicle{}, ErrConflict
		}
		return types.Vehicle{}, ErrNotFound
	}
	return vehicle, err
}

func (r *VehicleRepository) vehicleExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
