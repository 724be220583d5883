package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fleetops/apiserver/types"
)

// TripFilter narrows List results. Nil fields are ignored.
type TripFilter struct {
	DriverID  *int
	VehicleID *int
	From      *time.Time
	To        *time.Time
}

// TripRepository handles persistence for trips and their audit events.
//
// Check-in and check-out each run one transaction covering the trip row, the
// vehicle status, and the audit event, so the "vehicle is in-use iff it has an
// open trip" invariant holds at every commit point. The partial unique index
// trips_one_open_per_vehicle is the backstop against concurrent check-ins.
type TripRepository struct {
	db *sql.DB
}

func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, vehicle_id, driver_id, purpose, odometer_start, odometer_end,
		location_start, location_end, check_in_time, check_out_time`

func scanTrip(row interface{ Scan(dest ...any) error }) (types.Trip, error) {
	var trip types.Trip
	err := row.Scan(
		&trip.ID,
		&trip.VehicleID,
		&trip.DriverID,
		&trip.Purpose,
		&trip.OdometerStart,
		&trip.OdometerEnd,
		&trip.LocationStart,
		&trip.LocationEnd,
		&trip.CheckInTime,
		&trip.CheckOutTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Trip{}, ErrNotFound
		}
		return types.Trip{}, err
	}
	return trip, nil
}

// CheckInParams carries everything a check-in writes.
type CheckInParams struct {
	VehicleID       int
	DriverID        int
	Purpose         string
	OdometerStart   float64
	LocationStart   string
	PerformedByID   int
	PerformedByRole string
}

// CheckIn opens a trip: locks the vehicle row, verifies it is available,
// inserts the open trip, flips the vehicle to in-use, and appends the check-in
// event, all in one transaction. Returns ErrConflict when the vehicle already
// has an open trip (directly or via the unique index) or is in maintenance.
func (r *TripRepository) CheckIn(ctx context.Context, p CheckInParams) (types.Trip, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Trip{}, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM vehicles WHERE id = $1 FOR UPDATE`, p.VehicleID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Trip{}, fmt.Errorf("vehicle: %w", ErrNotFound)
		}
		return types.Trip{}, err
	}
	switch status {
	case types.VehicleMaintenance:
		return types.Trip{}, fmt.Errorf("vehicle in maintenance: %w", ErrConflict)
	case types.VehicleInUse:
		return types.Trip{}, fmt.Errorf("vehicle already checked in: %w", ErrConflict)
	}

	trip, err := scanTrip(tx.QueryRowContext(ctx,
		`INSERT INTO trips (vehicle_id, driver_id, purpose, odometer_start, location_start)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+tripColumns,
		p.VehicleID, p.DriverID, p.Purpose, p.OdometerStart, p.LocationStart,
	))
	if err != nil {
		return types.Trip{}, mapConstraintErr(err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE vehicles SET status = $1, updated_at = now() WHERE id = $2`,
		types.VehicleInUse, p.VehicleID,
	); err != nil {
		return types.Trip{}, err
	}

	if err := insertTripEvent(ctx, tx, trip.ID, p.VehicleID, types.TripEventCheckIn, p.PerformedByID, p.PerformedByRole); err != nil {
		return types.Trip{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Trip{}, mapConstraintErr(err)
	}
	return trip, nil
}

// CheckOutParams carries everything a check-out writes.
type CheckOutParams struct {
	TripID          int
	VehicleID       int
	OdometerEnd     float64
	LocationEnd     string
	PerformedByID   int
	PerformedByRole string
}

// CheckOut closes an open trip and returns the vehicle to available in one
// transaction. The guarded UPDATE only matches an open trip belonging to the
// given vehicle; when it matches nothing the error distinguishes an unknown
// trip (ErrNotFound) from a closed or mismatched one (ErrConflict).
// OdometerEnd below the start reading violates the table check constraint and
// comes back as ErrConflict before anything is written.
func (r *TripRepository) CheckOut(ctx context.Context, p CheckOutParams) (types.Trip, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Trip{}, err
	}
	defer tx.Rollback()

	trip, err := scanTrip(tx.QueryRowContext(ctx,
		`UPDATE trips
		 SET odometer_end = $1, location_end = $2, check_out_time = now()
		 WHERE id = $3 AND vehicle_id = $4 AND check_out_time IS NULL
		 RETURNING `+tripColumns,
		p.OdometerEnd, p.LocationEnd, p.TripID, p.VehicleID,
	))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			var exists bool
			if scanErr := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1)`, p.TripID,
			).Scan(&exists); scanErr == nil && exists {
				return types.Trip{}, fmt.Errorf("no active trip: %w", ErrConflict)
			}
			return types.Trip{}, fmt.Errorf("trip: %w", ErrNotFound)
		}
		return types.Trip{}, mapConstraintErr(err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE vehicles SET status = $1, updated_at = now() WHERE id = $2`,
		types.VehicleAvailable, p.VehicleID,
	); err != nil {
		return types.Trip{}, err
	}

	if err := insertTripEvent(ctx, tx, trip.ID, p.VehicleID, types.TripEventCheckOut, p.PerformedByID, p.PerformedByRole); err != nil {
		return types.Trip{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Trip{}, mapConstraintErr(err)
	}
	return trip, nil
}

func insertTripEvent(ctx context.Context, tx *sql.Tx, tripID, vehicleID int, kind string, performedByID int, performedByRole string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO trip_events (trip_id, vehicle_id, kind, performed_by_id, performed_by_role)
		 VALUES ($1, $2, $3, $4, $5)`,
		tripID, vehicleID, kind, performedByID, performedByRole,
	)
	return err
}

// GetByID returns a trip visible to the scope.
func (r *TripRepository) GetByID(ctx context.Context, scope types.Scope, id int) (types.Trip, error) {
	const query = `
		SELECT t.id, t.vehicle_id, t.driver_id, t.purpose, t.odometer_start, t.odometer_end,
			t.location_start, t.location_end, t.check_in_time, t.check_out_time
		FROM trips t
		JOIN vehicles v ON v.id = t.vehicle_id
		WHERE t.id = $1
		  AND ($2::int IS NULL OR v.entity_id = $2)`
	return scanTrip(r.db.QueryRowContext(ctx, query, id, scopeEntity(scope)))
}

// GetOpenByDriver returns the driver's currently open trip.
func (r *TripRepository) GetOpenByDriver(ctx context.Context, scope types.Scope, driverID int) (types.Trip, error) {
	const query = `
		SELECT t.id, t.vehicle_id, t.driver_id, t.purpose, t.odometer_start, t.odometer_end,
			t.location_start, t.location_end, t.check_in_time, t.check_out_time
		FROM trips t
		JOIN vehicles v ON v.id = t.vehicle_id
		WHERE t.driver_id = $1
		  AND t.check_out_time IS NULL
		  AND ($2::int IS NULL OR v.entity_id = $2)
		ORDER BY t.check_in_time DESC
		LIMIT 1`
	return scanTrip(r.db.QueryRowContext(ctx, query, driverID, scopeEntity(scope)))
}

// GetOpenByVehicle returns the vehicle's currently open trip.
func (r *TripRepository) GetOpenByVehicle(ctx context.Context, scope types.Scope, vehicleID int) (types.Trip, error) {
	const query = `
		SELECT t.id, t.vehicle_id, t.driver_id, t.purpose, t.odometer_start, t.odometer_end,
			t.location_start, t.location_end, t.check_in_time, t.check_out_time
		FROM trips t
		JOIN vehicles v ON v.id = t.vehicle_id
		WHERE t.vehicle_id = $1
		  AND t.check_out_time IS NULL
		  AND ($2::int IS NULL OR v.entity_id = $2)`
	return scanTrip(r.db.QueryRowContext(ctx, query, vehicleID, scopeEntity(scope)))
}

// List returns trips visible to the scope within the optional time range,
// newest first. Zero time bounds are ignored.
func (r *TripRepository) List(ctx context.Context, scope types.Scope, filter TripFilter) ([]types.Trip, error) {
	const query = `
		SELECT t.id, t.vehicle_id, t.driver_id, t.purpose, t.odometer_start, t.odometer_end,
			t.location_start, t.location_end, t.check_in_time, t.check_out_time
		FROM trips t
		JOIN vehicles v ON v.id = t.vehicle_id
		WHERE ($1::int IS NULL OR v.entity_id = $1)
		  AND ($2::int IS NULL OR t.driver_id = $2)
		  AND ($3::int IS NULL OR t.vehicle_id = $3)
		  AND ($4::timestamptz IS NULL OR t.check_in_time >= $4)
		  AND ($5::timestamptz IS NULL OR t.check_in_time < $5)
		ORDER BY t.check_in_time DESC`
	rows, err := r.db.QueryContext(ctx, query,
		scopeEntity(scope), filter.DriverID, filter.VehicleID, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []types.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// ListEvents returns the audit trail for one trip, oldest first.
func (r *TripRepository) ListEvents(ctx context.Context, tripID int) ([]types.TripEvent, error) {
	const query = `
		SELECT id, trip_id, vehicle_id, kind, performed_by_id, performed_by_role, occurred_at
		FROM trip_events
		WHERE trip_id = $1
		ORDER BY occurred_at`
	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []types.TripEvent
	for rows.Next() {
		var event types.TripEvent
		if err := rows.Scan(
			&event.ID,
			&event.TripID,
			&event.VehicleID,
			&event.Kind,
			&event.PerformedByID,
			&event.PerformedByRole,
			&event.OccurredAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
