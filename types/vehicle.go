package types

import "time"

// Vehicle status values. A vehicle is in-use exactly while it has an open trip;
// the trip service keeps the two in sync inside one transaction.
const (
	VehicleAvailable   = "available"
	VehicleInUse       = "in-use"
	VehicleMaintenance = "maintenance"
)

// ValidVehicleStatus reports whether status is a recognized vehicle status.
func ValidVehicleStatus(status string) bool {
	switch status {
	case VehicleAvailable, VehicleInUse, VehicleMaintenance:
		return true
	}
	return false
}

// Vehicle is a registered fleet vehicle.
type Vehicle struct {
	ID          int       `json:"id" db:"id"`
	PlateNumber string    `json:"plate_number" db:"plate_number"`
	Make        string    `json:"make" db:"make"`
	Model       string    `json:"model" db:"model"`
	Status      string    `json:"status" db:"status"`
	EntityID    int       `json:"entity_id" db:"entity_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
