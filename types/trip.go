package types

import "time"

// Trip event kinds recorded in the audit trail.
const (
	TripEventCheckIn  = "check-in"
	TripEventCheckOut = "check-out"
)

// Trip is one usage cycle of a vehicle: opened by a check-in, closed by a
// check-out. OdometerEnd, LocationEnd, and CheckOutTime are nil while the trip
// is open. A closed trip is terminal; the next check-in creates a new row.
type Trip struct {
	ID            int        `json:"id" db:"id"`
	VehicleID     int        `json:"vehicle_id" db:"vehicle_id"`
	DriverID      int        `json:"driver_id" db:"driver_id"`
	Purpose       string     `json:"purpose,omitempty" db:"purpose"`
	OdometerStart float64    `json:"odometer_start" db:"odometer_start"`
	OdometerEnd   *float64   `json:"odometer_end,omitempty" db:"odometer_end"`
	LocationStart string     `json:"location_start" db:"location_start"`
	LocationEnd   *string    `json:"location_end,omitempty" db:"location_end"`
	CheckInTime   time.Time  `json:"check_in_time" db:"check_in_time"`
	CheckOutTime  *time.Time `json:"check_out_time,omitempty" db:"check_out_time"`
}

// Open reports whether the trip has not been checked out yet.
func (t Trip) Open() bool {
	return t.CheckOutTime == nil
}

// Distance returns the odometer delta for a closed trip and false for an open
// one. Computed on demand so the stored odometer readings stay the single
// source of truth.
func (t Trip) Distance() (float64, bool) {
	if t.OdometerEnd == nil {
		return 0, false
	}
	return *t.OdometerEnd - t.OdometerStart, true
}

// Duration returns the check-in to check-out span for a closed trip and false
// for an open one.
func (t Trip) Duration() (time.Duration, bool) {
	if t.CheckOutTime == nil {
		return 0, false
	}
	return t.CheckOutTime.Sub(t.CheckInTime), true
}

// TripEvent is an append-only audit record of who performed a check-in or
// check-out. PerformedByID may differ from the trip's DriverID when a
// supervisor acts on a driver's behalf.
type TripEvent struct {
	ID              int       `json:"id" db:"id"`
	TripID          int       `json:"trip_id" db:"trip_id"`
	VehicleID       int       `json:"vehicle_id" db:"vehicle_id"`
	Kind            string    `json:"kind" db:"kind"`
	PerformedByID   int       `json:"performed_by_id" db:"performed_by_id"`
	PerformedByRole string    `json:"performed_by_role" db:"performed_by_role"`
	OccurredAt      time.Time `json:"occurred_at" db:"occurred_at"`
}
