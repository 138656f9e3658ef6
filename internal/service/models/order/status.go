package order

import (
	"database/sql/driver"

	"github.com/pizzadash/dispatch/internal/service/models/apperr"
)

// Status is the delivery status of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInDelivery Status = "in_delivery"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

// ParseStatus parses a status string, failing with a validation error on
// unknown values.
func ParseStatus(v string) (Status, error) {
	switch Status(v) {
	case StatusPending, StatusAssigned, StatusInDelivery, StatusDelivered, StatusCancelled:
		return Status(v), nil
	default:
		return "", apperr.Validationf("unknown delivery status %q", v)
	}
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// transitions is the delivery-status state machine. An order can only move
// along these edges; everything else is rejected.
var transitions = map[Status][]Status{
	StatusPending:  {StatusAssigned, StatusCancelled},
	StatusAssigned: {StatusInDelivery, StatusCancelled},
	StatusInDelivery: {
		StatusDelivered,
	},
}

// CanTransition reports whether from -> to is a valid status transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// ValidateTransition returns an invalid-transition error unless from -> to is
// an edge of the state machine.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return apperr.InvalidTransitionf("cannot move order from %s to %s", from, to)
	}

	return nil
}
