package store

import (
	"context"
	"database/sql"

	"github.com/fleetops/apiserver/types"
)

// ReportRepository runs the read-only aggregation queries behind the admin
// report endpoints. Distance and duration are always computed from the stored
// odometer readings and timestamps, never stored redundantly.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// VehicleSummary is one row of the per-vehicle report.
type VehicleSummary struct {
	Vehicle       types.Vehicle `json:"vehicle"`
	TripCount     int           `json:"trip_count"`
	TotalDistance float64       `json:"total_distance"`
	TotalLitres   float64       `json:"total_litres"`
	TotalFuelCost float64       `json:"total_fuel_cost"`
}

// DriverSummary is one row of the per-driver report.
type DriverSummary struct {
	Driver        types.User `json:"driver"`
	TripCount     int        `json:"trip_count"`
	TotalDistance float64    `json:"total_distance"`
}

// VehicleSummaries aggregates trips and fuel per vehicle within the scope.
func (r *ReportRepository) VehicleSummaries(ctx context.Context, scope types.Scope) ([]VehicleSummary, error) {
	const query = `
		SELECT v.id, v.plate_number, v.make, v.model, v.status, v.entity_id, v.created_at, v.updated_at,
			COALESCE(t.trip_count, 0),
			COALESCE(t.total_distance, 0),
			COALESCE(f.total_litres, 0),
			COALESCE(f.total_cost, 0)
		FROM vehicles v
		LEFT JOIN (
			SELECT vehicle_id,
				COUNT(*) AS trip_count,
				SUM(odometer_end - odometer_start) FILTER (WHERE odometer_end IS NOT NULL) AS total_distance
			FROM trips
			GROUP BY vehicle_id
		) t ON t.vehicle_id = v.id
		LEFT JOIN (
			SELECT vehicle_id,
				SUM(litres) AS total_litres,
				SUM(cost) AS total_cost
			FROM fuel_logs
			GROUP BY vehicle_id
		) f ON f.vehicle_id = v.id
		WHERE ($1::int IS NULL OR v.entity_id = $1)
		ORDER BY v.plate_number`
	rows, err := r.db.QueryContext(ctx, query, scopeEntity(scope))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []VehicleSummary
	for rows.Next() {
		var s VehicleSummary
		if err := rows.Scan(
			&s.Vehicle.ID,
			&s.Vehicle.PlateNumber,
			&s.Vehicle.Make,
			&s.Vehicle.Model,
			&s.Vehicle.Status,
			&s.Vehicle.EntityID,
			&s.Vehicle.CreatedAt,
			&s.Vehicle.UpdatedAt,
			&s.TripCount,
			&s.TotalDistance,
			&s.TotalLitres,
			&s.TotalFuelCost,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DriverSummaries aggregates closed-trip distance per driver within the scope.
func (r *ReportRepository) DriverSummaries(ctx context.Context, scope types.Scope) ([]DriverSummary, error) {
	const query = `
		SELECT u.id, u.username, u.fullname, u.role, u.entity_id, u.created_at, u.updated_at,
			COALESCE(t.trip_count, 0),
			COALESCE(t.total_distance, 0)
		FROM users u
		LEFT JOIN (
			SELECT driver_id,
				COUNT(*) AS trip_count,
				SUM(odometer_end - odometer_start) FILTER (WHERE odometer_end IS NOT NULL) AS total_distance
			FROM trips
			GROUP BY driver_id
		) t ON t.driver_id = u.id
		WHERE u.role = 'driver'
		  AND ($1::int IS NULL OR u.entity_id = $1)
		ORDER BY u.fullname`
	rows, err := r.db.QueryContext(ctx, query, scopeEntity(scope))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []DriverSummary
	for rows.Next() {
		var s DriverSummary
		if err := rows.Scan(
			&s.Driver.ID,
			&s.Driver.Username,
			&s.Driver.Fullname,
			&s.Driver.Role,
			&s.Driver.EntityID,
			&s.Driver.CreatedAt,
			&s.Driver.UpdatedAt,
			&s.TripCount,
			&s.TotalDistance,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
