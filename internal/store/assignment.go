package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fleetops/apiserver/types"
)

// AssignmentRepository handles persistence for the driver-vehicle assignment
// ledger. The ledger is append-only: rows are ended, never deleted.
type AssignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, vehicle_id, driver_id, permanent, assigned_at, ended_at`

func scanAssignment(row interface{ Scan(dest ...any) error }) (types.Assignment, error) {
	var assignment types.Assignment
	err := row.Scan(
		&assignment.ID,
		&assignment.VehicleID,
		&assignment.DriverID,
		&assignment.Permanent,
		&assignment.AssignedAt,
		&assignment.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Assignment{}, ErrNotFound
		}
		return types.Assignment{}, err
	}
	return assignment, nil
}

// CreateOrReplace ends any active assignment for the vehicle and inserts the
// new one in a single transaction. Returns ErrConflict when the vehicle is in
// maintenance, or when a concurrent writer wins the partial unique index race.
func (r *AssignmentRepository) CreateOrReplace(ctx context.Context, vehicleID, driverID int, permanent bool) (types.Assignment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Assignment{}, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM vehicles WHERE id = $1 FOR UPDATE`, vehicleID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Assignment{}, fmt.Errorf("vehicle: %w", ErrNotFound)
		}
		return types.Assignment{}, err
	}
	if status == types.VehicleMaintenance {
		return types.Assignment{}, fmt.Errorf("vehicle in maintenance: %w", ErrConflict)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE assignments SET ended_at = now() WHERE vehicle_id = $1 AND ended_at IS NULL`,
		vehicleID,
	); err != nil {
		return types.Assignment{}, err
	}

	assignment, err := scanAssignment(tx.QueryRowContext(ctx,
		`INSERT INTO assignments (vehicle_id, driver_id, permanent)
		 VALUES ($1, $2, $3)
		 RETURNING `+assignmentColumns,
		vehicleID, driverID, permanent,
	))
	if err != nil {
		return types.Assignment{}, mapConstraintErr(err)
	}

	if err := tx.Commit(); err != nil {
		return types.Assignment{}, mapConstraintErr(err)
	}
	return assignment, nil
}

// UpdateActive changes the driver or permanent flag of an active assignment.
// Historical (ended) rows are immutable, so an ended id is ErrNotFound.
func (r *AssignmentRepository) UpdateActive(ctx context.Context, id, driverID int, permanent bool) (types.Assignment, error) {
	const query = `
		UPDATE assignments
		SET driver_id = $1, permanent = $2
		WHERE id = $3 AND ended_at IS NULL
		RETURNING ` + assignmentColumns
	assignment, err := scanAssignment(r.db.QueryRowContext(ctx, query, driverID, permanent, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return types.Assignment{}, mapConstraintErr(err)
	}
	return assignment, err
}

// End closes an active assignment. Ending an already-ended or unknown
// assignment is an error; double-remove is not idempotent.
func (r *AssignmentRepository) End(ctx context.Context, id int) error {
	const query = `
		UPDATE assignments
		SET ended_at = now()
		WHERE id = $1 AND ended_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetActiveByID returns an active assignment by id, scoped to the caller's
// entity via the vehicle it binds. Ended or out-of-scope ids are ErrNotFound.
func (r *AssignmentRepository) GetActiveByID(ctx context.Context, scope types.Scope, id int) (types.Assignment, error) {
	const query = `
		SELECT a.id, a.vehicle_id, a.driver_id, a.permanent, a.assigned_at, a.ended_at
		FROM assignments a
		JOIN vehicles v ON v.id = a.vehicle_id
		WHERE a.id = $1
		  AND a.ended_at IS NULL
		  AND ($2::int IS NULL OR v.entity_id = $2)`
	return scanAssignment(r.db.QueryRowContext(ctx, query, id, scopeEntity(scope)))
}

// GetActiveByVehicle returns the vehicle's current assignment, scoped to the
// caller's entity.
func (r *AssignmentRepository) GetActiveByVehicle(ctx context.Context, scope types.Scope, vehicleID int) (types.Assignment, error) {
	const query = `
		SELECT a.id, a.vehicle_id, a.driver_id, a.permanent, a.assigned_at, a.ended_at
		FROM assignments a
		JOIN vehicles v ON v.id = a.vehicle_id
		WHERE a.vehicle_id = $1
		  AND a.ended_at IS NULL
		  AND ($2::int IS NULL OR v.entity_id = $2)`
	return scanAssignment(r.db.QueryRowContext(ctx, query, vehicleID, scopeEntity(scope)))
}

// GetActiveByDriver returns the driver's current assignment, scoped to the
// caller's entity. A driver holds at most one vehicle at a time in practice;
// if several exist the most recent wins.
func (r *AssignmentRepository) GetActiveByDriver(ctx context.Context, scope types.Scope, driverID int) (types.Assignment, error) {
	const query = `
		SELECT a.id, a.vehicle_id, a.driver_id, a.permanent, a.assigned_at, a.ended_at
		FROM assignments a
		JOIN vehicles v ON v.id = a.vehicle_id
		WHERE a.driver_id = $1
		  AND a.ended_at IS NULL
		  AND ($2::int IS NULL OR v.entity_id = $2)
		ORDER BY a.assigned_at DESC
		LIMIT 1`
	return scanAssignment(r.db.QueryRowContext(ctx, query, driverID, scopeEntity(scope)))
}

// HasActive reports whether driverID currently holds vehicleID.
func (r *AssignmentRepository) HasActive(ctx context.Context, vehicleID, driverID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM assignments
			WHERE vehicle_id = $1 AND driver_id = $2 AND ended_at IS NULL
		)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, vehicleID, driverID).Scan(&exists)
	return exists, err
}
