package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/pizzadash/dispatch/internal/dal/postgres"
	"github.com/pizzadash/dispatch/internal/dal/rabbitmq"
	"github.com/pizzadash/dispatch/internal/dal/uow"
	"github.com/pizzadash/dispatch/internal/fanout"
	"github.com/pizzadash/dispatch/internal/notify"
	"github.com/pizzadash/dispatch/internal/otel"
	"github.com/pizzadash/dispatch/internal/service/services/dispatchsvc"
	"github.com/pizzadash/dispatch/internal/service/services/locationsvc"
	"github.com/pizzadash/dispatch/internal/service/services/ordersvc"
	"github.com/pizzadash/dispatch/internal/service/services/ridersvc"
	"github.com/pizzadash/dispatch/internal/transport/consumer"
	httptransport "github.com/pizzadash/dispatch/internal/transport/http"
	outboxworker "github.com/pizzadash/dispatch/internal/worker/outbox"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	dispatchSvc    *dispatchsvc.DispatchService
	locationSvc    *locationsvc.LocationService
	riderSvc       *ridersvc.RiderService
	transport      *httptransport.HTTPTransport
	eventConsumer  *consumer.Consumer
	outboxWorker   *outboxworker.Worker
	hub            *fanout.Hub
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
	)

	riderSvc := ridersvc.MustNewRiderService(
		ridersvc.WithPostgresClient(postgresClient),
	)

	locationSvc := locationsvc.MustNewLocationService(
		locationsvc.WithPostgresClient(postgresClient),
	)

	notifier := notify.NewRabbitMQGateway(rabbitMqClient)

	dispatchSvc := dispatchsvc.MustNewDispatchService(
		dispatchsvc.WithOrderStore(orderSvc),
		dispatchsvc.WithRiderDirectory(uow.NewUnitOfWork(postgresClient).RiderRepository()),
		dispatchsvc.WithNotifier(notifier),
	)

	hub := fanout.NewHub(viper.GetInt("fanout.subscriber_buffer"))

	eventConsumer := consumer.NewConsumer(rabbitMqClient, hub)

	outboxWorker := outboxworker.NewWorker(
		uow.NewUnitOfWork(postgresClient).OutboxRepository(),
		rabbitMqClient,
	)

	transport := httptransport.NewHTTPTransport(orderSvc, dispatchSvc, locationSvc, riderSvc, hub)
	transport.RegisterRoutes()

	return &App{
		orderSvc:       orderSvc,
		dispatchSvc:    dispatchSvc,
		locationSvc:    locationSvc,
		riderSvc:       riderSvc,
		transport:      transport,
		eventConsumer:  eventConsumer,
		outboxWorker:   outboxWorker,
		hub:            hub,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	go func() {
		slog.Info("Starting event consumer")
		if err := a.eventConsumer.Run(ctx); err != nil {
			slog.Error("Event consumer error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown performs graceful shutdown of all application components.
// It shuts down components sequentially: HTTP server, outbox worker, event
// consumer, RabbitMQ, PostgreSQL, and OpenTelemetry.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	if err := a.eventConsumer.Shutdown(); err != nil {
		slog.Error("Event consumer shutdown error", "error", err)
	} else {
		slog.Info("Event consumer stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
