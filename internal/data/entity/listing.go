package entity

import (
	"time"

	"github.com/google/uuid"
)

// Listing is owned by the listing subsystem; this engine only reads it.
type Listing struct {
	ID          uuid.UUID `db:"id"`
	OwnerID     uuid.UUID `db:"owner_id"`
	Title       string    `db:"title"`
	PricePerDay float64   `db:"price_per_day"`
	IsAvailable bool      `db:"is_available"`
	CreatedAt   time.Time `db:"created_at"`
}
