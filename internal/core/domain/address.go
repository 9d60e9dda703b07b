package domain

import "time"

// Address is a saved delivery or pickup location. Coordinates are optional.
type Address struct {
	ID          string
	UserID      string
	Label       string
	AddressLine string
	Latitude    *float64
	Longitude   *float64
	IsDefault   bool
	CreatedAt   time.Time
}
