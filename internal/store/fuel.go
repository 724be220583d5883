package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fleetops/apiserver/types"
)

// FuelFilter narrows List results. Nil fields are ignored.
type FuelFilter struct {
	VehicleID *int
	LoggedBy  *int
	From      *time.Time
	To        *time.Time
}

// FuelLogRepository handles persistence for fuel purchase records.
// Fuel logs are append-only; there is no update or delete.
type FuelLogRepository struct {
	db *sql.DB
}

func NewFuelLogRepository(db *sql.DB) *FuelLogRepository {
	return &FuelLogRepository{db: db}
}

// Create appends a fuel log. When TripID is set the referenced trip must
// belong to the same vehicle; a mismatch is ErrConflict.
func (r *FuelLogRepository) Create(ctx context.Context, log types.FuelLog) (types.FuelLog, error) {
	if log.TripID != nil {
		var tripVehicle int
		err := r.db.QueryRowContext(ctx,
			`SELECT vehicle_id FROM trips WHERE id = $1`, *log.TripID,
		).Scan(&tripVehicle)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.FuelLog{}, fmt.Errorf("trip: %w", ErrNotFound)
			}
			return types.FuelLog{}, err
		}
		if tripVehicle != log.VehicleID {
			return types.FuelLog{}, fmt.Errorf("trip belongs to another vehicle: %w", ErrConflict)
		}
	}

	const query = `
		INSERT INTO fuel_logs (vehicle_id, trip_id, litres, cost, odometer, location,
			payment_reference, receipt_url, logged_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		log.VehicleID,
		log.TripID,
		log.Litres,
		log.Cost,
		log.Odometer,
		log.Location,
		log.PaymentReference,
		log.ReceiptURL,
		log.LoggedBy,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return types.FuelLog{}, mapConstraintErr(err)
	}
	return log, nil
}

// List returns fuel logs visible to the scope, newest first.
func (r *FuelLogRepository) List(ctx context.Context, scope types.Scope, filter FuelFilter) ([]types.FuelLog, error) {
	const query = `
		SELECT f.id, f.vehicle_id, f.trip_id, f.litres, f.cost, f.odometer, f.location,
			f.payment_reference, f.receipt_url, f.logged_by, f.created_at
		FROM fuel_logs f
		JOIN vehicles v ON v.id = f.vehicle_id
		WHERE ($1::int IS NULL OR v.entity_id = $1)
		  AND ($2::int IS NULL OR f.vehicle_id = $2)
		  AND ($3::int IS NULL OR f.logged_by = $3)
		  AND ($4::timestamptz IS NULL OR f.created_at >= $4)
		  AND ($5::timestamptz IS NULL OR f.created_at < $5)
		ORDER BY f.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query,
		scopeEntity(scope), filter.VehicleID, filter.LoggedBy, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []types.FuelLog
	for rows.Next() {
		var log types.FuelLog
		if err := rows.Scan(
			&log.ID,
			&log.VehicleID,
			&log.TripID,
			&log.Litres,
			&log.Cost,
			&log.Odometer,
			&log.Location,
			&log.PaymentReference,
			&log.ReceiptURL,
			&log.LoggedBy,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
