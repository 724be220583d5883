package types

import "time"

// Assignment binds a driver to a vehicle. The ledger is append-only: replacing
// an assignment ends the old row (EndedAt set) and inserts a new one, so the
// history of who held a vehicle is never lost. At most one row per vehicle has
// EndedAt == nil at any time.
type Assignment struct {
	ID         int        `json:"id" db:"id"`
	VehicleID  int        `json:"vehicle_id" db:"vehicle_id"`
	DriverID   int        `json:"driver_id" db:"driver_id"`
	Permanent  bool       `json:"permanent" db:"permanent"`
	AssignedAt time.Time  `json:"assigned_at" db:"assigned_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty" db:"ended_at"`
}

// Active reports whether the assignment is the vehicle's current one.
func (a Assignment) Active() bool {
	return a.EndedAt == nil
}
