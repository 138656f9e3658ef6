package outbox

import (
	"time"
)

// Message is a change event or notification awaiting publication to
// RabbitMQ. Rows are written in the same transaction as the state change
// they describe and deleted once published.
type Message struct {
	ID           int64
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}
