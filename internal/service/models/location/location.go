package location

import (
	"time"

	"github.com/pizzadash/dispatch/internal/service/models/apperr"
)

// Location is a single GPS report from a rider. Reports are append-only
// events: the current position of a rider is the report with the latest
// recorded_at, never a mutated row.
type Location struct {
	ID         int64     `json:"id"`
	RiderID    int64     `json:"riderId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Heading    *float64  `json:"heading,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Validate checks coordinate ranges and the optional heading.
func (l *Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return apperr.Validationf("latitude %v out of range [-90, 90]", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return apperr.Validationf("longitude %v out of range [-180, 180]", l.Longitude)
	}
	if l.Heading != nil && (*l.Heading < 0 || *l.Heading >= 360) {
		return apperr.Validationf("heading %v out of range [0, 360)", *l.Heading)
	}
	if l.Speed != nil && *l.Speed < 0 {
		return apperr.Validationf("speed must not be negative")
	}

	return nil
}

// StalenessOf returns how old the report is relative to now. Viewers surface
// this as "last seen Ns ago" rather than treating silence as an error.
func (l *Location) StalenessOf(now time.Time) time.Duration {
	return now.Sub(l.RecordedAt)
}
