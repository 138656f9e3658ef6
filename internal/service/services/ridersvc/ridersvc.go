package ridersvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/pizzadash/dispatch/internal/dal/interfaces/iriderrepo"
	"github.com/pizzadash/dispatch/internal/dal/postgres"
	"github.com/pizzadash/dispatch/internal/dal/uow"
	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/rider"
)

// RiderService manages the rider directory. Riders are never deleted;
// deactivation removes them from assignment pools while orders and location
// history keep referencing them.
type RiderService struct {
	pgClient *postgres.Client
	newRepo  func() iriderrepo.IRiderRepository
}

// option is a function that configures the RiderService.
type option func(*RiderService)

// MustNewRiderService creates a new RiderService.
func MustNewRiderService(opts ...option) *RiderService {
	s := &RiderService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.newRepo == nil {
		panic("ridersvc: no rider repository configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the RiderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *RiderService) {
		s.pgClient = pgClient
		s.newRepo = func() iriderrepo.IRiderRepository {
			return uow.NewUnitOfWork(pgClient).RiderRepository()
		}
	}
}

// WithRepositoryFactory overrides how repositories are built. Used by tests.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRepositoryFactory(factory func() iriderrepo.IRiderRepository) option {
	return func(s *RiderService) {
		s.newRepo = factory
	}
}

// CreateRider stores a new active rider.
func (s *RiderService) CreateRider(ctx context.Context, act actor.Actor, r rider.Rider) (rider.Rider, error) {
	if err := r.Validate(); err != nil {
		return rider.Rider{}, err
	}

	now := time.Now()
	r.IsActive = true
	r.CreatedAt = now
	r.UpdatedAt = now

	created, err := s.newRepo().Insert(ctx, r)
	if err != nil {
		return rider.Rider{}, err
	}

	slog.Info("Rider created", "rider_id", created.ID, "actor_id", act.ID, "actor_role", act.Role)

	return created, nil
}

// GetRider retrieves a rider by id.
func (s *RiderService) GetRider(ctx context.Context, id int64) (rider.Rider, error) {
	return s.newRepo().Get(ctx, id)
}

// ListRiders lists riders, optionally only active ones.
func (s *RiderService) ListRiders(ctx context.Context, onlyActive bool) ([]rider.Rider, error) {
	return s.newRepo().List(ctx, onlyActive)
}

// SetRiderActive flips the rider's active flag.
func (s *RiderService) SetRiderActive(ctx context.Context, act actor.Actor, id int64, active bool) (rider.Rider, error) {
	updated, err := s.newRepo().SetActive(ctx, id, active)
	if err != nil {
		return rider.Rider{}, err
	}

	slog.Info("Rider active flag changed",
		"rider_id", updated.ID,
		"is_active", updated.IsActive,
		"actor_id", act.ID,
		"actor_role", act.Role,
	)

	return updated, nil
}
