package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/pizzadash/dispatch/internal/dal/interfaces/iorderrepo"
	"github.com/pizzadash/dispatch/internal/fanout"
	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/location"
	"github.com/pizzadash/dispatch/internal/service/models/order"
	"github.com/pizzadash/dispatch/internal/service/models/rider"
	"github.com/pizzadash/dispatch/internal/service/services/locationsvc"
	assignrider "github.com/pizzadash/dispatch/internal/transport/http/assign_rider"
	cancelorder "github.com/pizzadash/dispatch/internal/transport/http/cancel_order"
	completedelivery "github.com/pizzadash/dispatch/internal/transport/http/complete_delivery"
	createorder "github.com/pizzadash/dispatch/internal/transport/http/create_order"
	dispatchorder "github.com/pizzadash/dispatch/internal/transport/http/dispatch_order"
	fleetlocations "github.com/pizzadash/dispatch/internal/transport/http/fleet_locations"
	getorder "github.com/pizzadash/dispatch/internal/transport/http/get_order"
	listorders "github.com/pizzadash/dispatch/internal/transport/http/list_orders"
	reportlocation "github.com/pizzadash/dispatch/internal/transport/http/report_location"
	"github.com/pizzadash/dispatch/internal/transport/http/riders"
	riderlocation "github.com/pizzadash/dispatch/internal/transport/http/rider_location"
	subscribeevents "github.com/pizzadash/dispatch/internal/transport/http/subscribe_events"
	"github.com/pizzadash/dispatch/pkg/http/middleware/trace"
	"github.com/pizzadash/dispatch/pkg/logger"
)

// orderService is the slice of the order store the transport needs.
type orderService interface {
	CreateOrder(ctx context.Context, act actor.Actor, draft order.Order) (order.Order, error)
	GetOrder(ctx context.Context, id int64) (order.Order, error)
	ListOrdersByStatus(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	TransitionStatus(ctx context.Context, act actor.Actor, model iorderrepo.UpdateStatusModel) (order.Order, error)
}

// dispatchService is the slice of the dispatch coordinator the transport needs.
type dispatchService interface {
	AssignRider(ctx context.Context, act actor.Actor, orderID, riderID int64) (order.Order, error)
	StartDelivery(ctx context.Context, act actor.Actor, orderID int64) (order.Order, error)
	CompleteDelivery(ctx context.Context, act actor.Actor, orderID int64) (order.Order, error)
	CancelOrder(ctx context.Context, act actor.Actor, orderID int64, reason string) (order.Order, error)
}

// locationService is the slice of the location stream the transport needs.
type locationService interface {
	ReportLocation(ctx context.Context, act actor.Actor, loc location.Location) (location.Location, error)
	GetLatestLocation(ctx context.Context, riderID int64) (location.Location, error)
	GetLatestLocationsForActiveRiders(ctx context.Context) (map[int64]location.Location, error)
	TrackRider(ctx context.Context, riderID int64, destLat, destLng float64) (locationsvc.Tracking, error)
}

// riderService is the slice of the rider directory the transport needs.
type riderService interface {
	CreateRider(ctx context.Context, act actor.Actor, r rider.Rider) (rider.Rider, error)
	ListRiders(ctx context.Context, onlyActive bool) ([]rider.Rider, error)
	SetRiderActive(ctx context.Context, act actor.Actor, id int64, active bool) (rider.Rider, error)
}

type HTTPTransport struct {
	server      *http.Server
	router      *chi.Mux
	orderSvc    orderService
	dispatchSvc dispatchService
	locationSvc locationService
	riderSvc    riderService
	hub         *fanout.Hub
}

func NewHTTPTransport(
	orderSvc orderService,
	dispatchSvc dispatchService,
	locationSvc locationService,
	riderSvc riderService,
	hub *fanout.Hub,
) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:      server,
		router:      router,
		orderSvc:    orderSvc,
		dispatchSvc: dispatchSvc,
		locationSvc: locationSvc,
		riderSvc:    riderSvc,
		hub:         hub,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/{orderID}", h.getOrder)
			r.Post("/{orderID}/assign", h.assignRider)
			r.Post("/{orderID}/dispatch", h.startDelivery)
			r.Post("/{orderID}/deliver", h.completeDelivery)
			r.Post("/{orderID}/cancel", h.cancelOrder)
		})

		r.Route("/riders", func(r chi.Router) {
			r.Post("/", h.createRider)
			r.Get("/", h.listRiders)
			r.Get("/locations", h.fleetLocations)
			r.Post("/{riderID}/deactivate", h.deactivateRider)
			r.Post("/{riderID}/location", h.reportLocation)
			r.Get("/{riderID}/location", h.riderLocation)
		})

		r.Get("/events", h.subscribeEvents)
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.orderSvc)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.orderSvc)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orderSvc)
}

func (h *HTTPTransport) assignRider(w http.ResponseWriter, r *http.Request) {
	assignrider.AssignRider(w, r, h.dispatchSvc)
}

func (h *HTTPTransport) startDelivery(w http.ResponseWriter, r *http.Request) {
	dispatchorder.StartDelivery(w, r, h.dispatchSvc)
}

func (h *HTTPTransport) completeDelivery(w http.ResponseWriter, r *http.Request) {
	completedelivery.CompleteDelivery(w, r, h.dispatchSvc)
}

func (h *HTTPTransport) cancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelorder.CancelOrder(w, r, h.dispatchSvc)
}

func (h *HTTPTransport) createRider(w http.ResponseWriter, r *http.Request) {
	riders.CreateRider(w, r, h.riderSvc)
}

func (h *HTTPTransport) listRiders(w http.ResponseWriter, r *http.Request) {
	riders.ListRiders(w, r, h.riderSvc)
}

func (h *HTTPTransport) deactivateRider(w http.ResponseWriter, r *http.Request) {
	riders.DeactivateRider(w, r, h.riderSvc)
}

func (h *HTTPTransport) reportLocation(w http.ResponseWriter, r *http.Request) {
	reportlocation.ReportLocation(w, r, h.locationSvc)
}

func (h *HTTPTransport) riderLocation(w http.ResponseWriter, r *http.Request) {
	riderlocation.GetLatestLocation(w, r, h.locationSvc)
}

func (h *HTTPTransport) fleetLocations(w http.ResponseWriter, r *http.Request) {
	fleetlocations.FleetLocations(w, r, h.locationSvc)
}

func (h *HTTPTransport) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	subscribeevents.Subscribe(w, r, h.hub)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(trace.NewTraceMiddleware)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
