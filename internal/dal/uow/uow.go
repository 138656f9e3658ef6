package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pizzadash/dispatch/internal/dal/interfaces/ilocationrepo"
	"github.com/pizzadash/dispatch/internal/dal/interfaces/iorderitemrepo"
	"github.com/pizzadash/dispatch/internal/dal/interfaces/iorderrepo"
	"github.com/pizzadash/dispatch/internal/dal/interfaces/ioutboxrepo"
	"github.com/pizzadash/dispatch/internal/dal/interfaces/iriderrepo"
	"github.com/pizzadash/dispatch/internal/dal/postgres"
	locationrepo "github.com/pizzadash/dispatch/internal/dal/repositories/location/postgres"
	orderrepo "github.com/pizzadash/dispatch/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/pizzadash/dispatch/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/pizzadash/dispatch/internal/dal/repositories/outbox/postgres"
	riderrepo "github.com/pizzadash/dispatch/internal/dal/repositories/rider/postgres"
)

// UnitOfWork groups repository calls into one transaction. Before Begin the
// repositories run directly on the pool; after Begin they share a pgx.Tx
// until Commit or Rollback.
type UnitOfWork struct {
	client *postgres.Client
	tx     pgx.Tx

	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	riderRepo     iriderrepo.IRiderRepository
	locationRepo  ilocationrepo.ILocationRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

// NewUnitOfWork creates a unit of work running on the pool.
func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	u := &UnitOfWork{client: client}
	u.bind(client.Pool())

	return u
}

func (u *UnitOfWork) bind(conn postgres.Conn) {
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.riderRepo = riderrepo.NewPostgresRiderRepository(conn)
	u.locationRepo = locationrepo.NewPostgresLocationRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *UnitOfWork) RiderRepository() iriderrepo.IRiderRepository {
	return u.riderRepo
}

func (u *UnitOfWork) LocationRepository() ilocationrepo.ILocationRepository {
	return u.locationRepo
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

// Begin starts a transaction and rebinds the repositories onto it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

// Commit commits the transaction, if one was begun.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

// Rollback rolls back the transaction, if one was begun. Safe to defer after
// Commit: pgx treats rollback of a finished transaction as a no-op error.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Rollback(ctx)
}
