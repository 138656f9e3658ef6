package rider

import (
	"strings"
	"time"

	"github.com/pizzadash/dispatch/internal/service/models/apperr"
)

// Rider represents a delivery rider in the directory. Deactivation only
// hides the rider from assignment pools, it never deletes history.
type Rider struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks an admin-submitted rider before it is stored.
func (r *Rider) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Validationf("rider name is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return apperr.Validationf("rider phone is required")
	}

	return nil
}
