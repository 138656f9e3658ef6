package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/pizzadash/dispatch/internal/dal/rabbitmq"
)

// Message is a push-notification command. The gateway only hands it to the
// transport; device tokens and delivery retries live on the other side of
// the queue.
type Message struct {
	Target string            `json:"target"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
	SentAt time.Time         `json:"sentAt"`
}

// Gateway delivers push notifications best-effort. Callers must treat a
// failure as a warning, never as a reason to roll back business state.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
	SendAll(ctx context.Context, msgs []Message) error
}

// RabbitMQGateway publishes notification commands to a queue consumed by
// the push delivery service.
type RabbitMQGateway struct {
	client *rabbitmq.Client
	queue  amqp.Queue
}

// NewRabbitMQGateway creates a gateway publishing to the configured
// notifications queue.
func NewRabbitMQGateway(client *rabbitmq.Client) *RabbitMQGateway {
	queueName := viper.GetString("rabbitmq.notifications_queue")
	if queueName == "" {
		panic("rabbitmq.notifications_queue is not set in config")
	}

	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queueName,
		Durable: true,
	})
	if err != nil {
		panic(err)
	}

	return &RabbitMQGateway{
		client: client,
		queue:  queue,
	}
}

// Send publishes a single notification command.
func (g *RabbitMQGateway) Send(ctx context.Context, msg Message) error {
	msg.SentAt = time.Now()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return g.client.Channel().Publish(
		"",
		g.queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// SendAll publishes several notification commands with bounded concurrency.
func (g *RabbitMQGateway) SendAll(ctx context.Context, msgs []Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	eg, sendCtx := errgroup.WithContext(sendCtx)
	eg.SetLimit(3)

	for _, msg := range msgs {
		msg := msg
		eg.Go(func() error {
			return g.Send(sendCtx, msg)
		})
	}

	return eg.Wait()
}
