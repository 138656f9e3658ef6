package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"

	"github.com/pizzadash/dispatch/internal/dal/rabbitmq"
	"github.com/pizzadash/dispatch/internal/fanout"
	"github.com/pizzadash/dispatch/internal/service/models/event"
)

// Consumer reads change events from the dispatch events exchange and feeds
// the in-process fan-out hub. Every running instance gets its own queue, so
// each instance's SSE subscribers see the full event stream.
type Consumer struct {
	client *rabbitmq.Client
	hub    *fanout.Hub
	queue  amqp.Queue
	stop   chan struct{}
	done   chan struct{}
}

// NewConsumer declares the events exchange and a queue bound to it, and
// returns a consumer feeding the hub.
func NewConsumer(client *rabbitmq.Client, hub *fanout.Hub) *Consumer {
	exchangeName := viper.GetString("rabbitmq.events_exchange")
	if exchangeName == "" {
		panic("rabbitmq.events_exchange is not set in config")
	}

	if err := client.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name:    exchangeName,
		Kind:    "fanout",
		Durable: true,
	}); err != nil {
		panic(err)
	}

	// Exclusive auto-delete queue: the stream is per-instance, reconnecting
	// clients re-fetch state instead of replaying.
	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:       "",
		AutoDelete: true,
		Exclusive:  true,
	})
	if err != nil {
		panic(err)
	}

	if err := client.BindQueue(queue.Name, "", exchangeName); err != nil {
		panic(err)
	}

	return &Consumer{
		client: client,
		hub:    hub,
		queue:  queue,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run consumes events until the context is cancelled or Shutdown is called.
func (c *Consumer) Run(ctx context.Context) error {
	defer close(c.done)

	deliveries, err := c.client.Channel().Consume(
		c.queue.Name,
		"dispatch-fanout",
		false,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.stop:
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	tracer := otel.Tracer("dispatch-svc")
	_, span := tracer.Start(ctx, "consume "+delivery.RoutingKey)
	defer span.End()

	var e event.Event
	if err := json.Unmarshal(delivery.Body, &e); err != nil {
		slog.Error("Failed to unmarshal change event, discarding",
			"routing_key", delivery.RoutingKey,
			"error", err,
		)
		if err := delivery.Ack(false); err != nil {
			slog.Error("Failed to ack malformed change event", "error", err)
		}

		return
	}

	c.hub.Publish(e)

	if err := delivery.Ack(false); err != nil {
		slog.Error("Failed to ack change event", "error", err)
	}
}

// Shutdown stops the consume loop and waits for it to drain.
func (c *Consumer) Shutdown() error {
	close(c.stop)
	<-c.done

	return nil
}
