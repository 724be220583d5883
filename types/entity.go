package types

import "time"

// Entity is an organizational scope. Vehicles, drivers, and trips belong to an
// entity, and every role below super_admin only sees rows within its own entity.
type Entity struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
