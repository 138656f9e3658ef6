package locationsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/pizzadash/dispatch/internal/dal/interfaces/ilocationrepo"
	"github.com/pizzadash/dispatch/internal/dal/interfaces/ioutboxrepo"
	"github.com/pizzadash/dispatch/internal/dal/interfaces/iriderrepo"
	"github.com/pizzadash/dispatch/internal/dal/postgres"
	"github.com/pizzadash/dispatch/internal/dal/uow"
	"github.com/pizzadash/dispatch/internal/geo"
	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/event"
	"github.com/pizzadash/dispatch/internal/service/models/location"
	"github.com/pizzadash/dispatch/internal/service/models/outbox"
)

// LocationService ingests rider GPS reports and exposes latest-position
// views. Reports are append-only; out-of-order arrivals are resolved by
// recorded_at, so a retried duplicate or a late report never clobbers a
// newer position.
type LocationService struct {
	pgClient *postgres.Client
	newUOW   func() unitOfWork
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	LocationRepository() ilocationrepo.ILocationRepository
	RiderRepository() iriderrepo.IRiderRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the LocationService.
type option func(*LocationService)

// MustNewLocationService creates a new LocationService.
func MustNewLocationService(opts ...option) *LocationService {
	s := &LocationService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("locationsvc: no unit of work configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the LocationService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *LocationService) {
		s.pgClient = pgClient
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWorkFactory overrides how units of work are built. Used by tests.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *LocationService) {
		s.newUOW = factory
	}
}

// ReportLocation appends a GPS report for a rider. The timestamp is
// server-assigned. Duplicate reports are accepted as no-ops and produce no
// second fan-out event.
func (s *LocationService) ReportLocation(ctx context.Context, act actor.Actor, loc location.Location) (location.Location, error) {
	if err := loc.Validate(); err != nil {
		return location.Location{}, err
	}

	if loc.RecordedAt.IsZero() {
		loc.RecordedAt = time.Now()
	}

	work := s.newUOW()

	if _, err := work.RiderRepository().Get(ctx, loc.RiderID); err != nil {
		return location.Location{}, err
	}

	if err := work.Begin(ctx); err != nil {
		return location.Location{}, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	stored, inserted, err := work.LocationRepository().Append(ctx, loc)
	if err != nil {
		return location.Location{}, err
	}

	if inserted {
		if err := s.enqueueLocationEvent(ctx, work, stored); err != nil {
			return location.Location{}, err
		}
	}

	if err := work.Commit(ctx); err != nil {
		return location.Location{}, err
	}

	if !inserted {
		slog.Debug("Duplicate location report ignored",
			"rider_id", loc.RiderID,
			"recorded_at", loc.RecordedAt,
		)
	}

	return stored, nil
}

// GetLatestLocation returns the most recent report for a rider.
func (s *LocationService) GetLatestLocation(ctx context.Context, riderID int64) (location.Location, error) {
	return s.newUOW().LocationRepository().Latest(ctx, riderID)
}

// GetLatestLocationsForActiveRiders returns the fleet snapshot used by the
// admin map: one latest position per active rider.
func (s *LocationService) GetLatestLocationsForActiveRiders(ctx context.Context) (map[int64]location.Location, error) {
	return s.newUOW().LocationRepository().LatestForActiveRiders(ctx)
}

// Tracking is a latest position annotated with display-only distance and
// ETA to a destination.
type Tracking struct {
	Location   location.Location `json:"location"`
	DistanceKm float64           `json:"distanceKm"`
	ETASeconds int64             `json:"etaSeconds"`
	StalenessS int64             `json:"stalenessSeconds"`
}

// TrackRider returns the rider's latest position with the great-circle
// distance and ETA to the given destination.
func (s *LocationService) TrackRider(ctx context.Context, riderID int64, destLat, destLng float64) (Tracking, error) {
	loc, err := s.GetLatestLocation(ctx, riderID)
	if err != nil {
		return Tracking{}, err
	}

	distance := geo.HaversineKm(loc.Latitude, loc.Longitude, destLat, destLng)

	speed := 0.0
	if loc.Speed != nil {
		speed = *loc.Speed
	}

	return Tracking{
		Location:   loc,
		DistanceKm: distance,
		ETASeconds: int64(geo.ETA(distance, speed).Seconds()),
		StalenessS: int64(loc.StalenessOf(time.Now()).Seconds()),
	}, nil
}

// enqueueLocationEvent writes a location change event into the outbox in the
// same transaction as the report itself.
func (s *LocationService) enqueueLocationEvent(ctx context.Context, work unitOfWork, loc location.Location) error {
	payload, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to marshal location event payload: %w", err)
	}

	e := event.Event{
		Type:       event.TypeInsert,
		Entity:     event.EntityLocation,
		RiderID:    loc.RiderID,
		OccurredAt: time.Now(),
		Payload:    payload,
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal location event: %w", err)
	}

	maxRetries := viper.GetInt("rabbitmq.outbox.max_retries")
	if maxRetries == 0 {
		maxRetries = 10
	}

	now := time.Now()

	return work.OutboxRepository().Insert(ctx, outbox.Message{
		ExchangeName: viper.GetString("rabbitmq.events_exchange"),
		RoutingKey:   e.RoutingKey(),
		Payload:      body,
		ContentType:  "application/json",
		MaxRetries:   maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	})
}
