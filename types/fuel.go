package types

import "time"

// FuelLog is an append-only record of a fuel purchase. Cost is a recorded
// value, not a payment transaction. TripID is nil when the purchase was not
// tied to a specific trip.
type FuelLog struct {
	ID               int       `json:"id" db:"id"`
	VehicleID        int       `json:"vehicle_id" db:"vehicle_id"`
	TripID           *int      `json:"trip_id,omitempty" db:"trip_id"`
	Litres           float64   `json:"litres" db:"litres"`
	Cost             float64   `json:"cost" db:"cost"`
	Odometer         float64   `json:"odometer" db:"odometer"`
	Location         string    `json:"location,omitempty" db:"location"`
	PaymentReference string    `json:"payment_reference,omitempty" db:"payment_reference"`
	ReceiptURL       string    `json:"receipt_url,omitempty" db:"receipt_url"`
	LoggedBy         int       `json:"logged_by" db:"logged_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
