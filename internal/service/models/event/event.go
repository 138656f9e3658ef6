package event

import (
	"encoding/json"
	"time"
)

// Type is the kind of change carried by an event.
type Type string

const (
	TypeInsert Type = "insert"
	TypeUpdate Type = "update"
)

// Entity names the record type an event is about.
type Entity string

const (
	EntityOrder    Entity = "order"
	EntityLocation Entity = "location"
)

// Routing keys for the dispatch events exchange.
const (
	RoutingKeyOrderCreated     = "order.created"
	RoutingKeyOrderUpdated     = "order.updated"
	RoutingKeyLocationReported = "location.reported"
)

// Event is a change record fanned out to realtime subscribers. Delivery is
// at-least-once: subscribers may see duplicates and must apply events
// idempotently.
type Event struct {
	Type       Type            `json:"type"`
	Entity     Entity          `json:"entity"`
	OrderID    int64           `json:"orderId,omitempty"`
	RiderID    int64           `json:"riderId,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// RoutingKey returns the AMQP routing key for the event.
func (e Event) RoutingKey() string {
	if e.Entity == EntityLocation {
		return RoutingKeyLocationReported
	}
	if e.Type == TypeInsert {
		return RoutingKeyOrderCreated
	}

	return RoutingKeyOrderUpdated
}
