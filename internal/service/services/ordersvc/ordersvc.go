package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/pizzadash/dispatch/internal/dal/interfaces/iorderitemrepo"
	"github.com/pizzadash/dispatch/internal/dal/interfaces/iorderrepo"
	"github.com/pizzadash/dispatch/internal/dal/interfaces/ioutboxrepo"
	"github.com/pizzadash/dispatch/internal/dal/postgres"
	"github.com/pizzadash/dispatch/internal/dal/uow"
	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/currency"
	"github.com/pizzadash/dispatch/internal/service/models/event"
	"github.com/pizzadash/dispatch/internal/service/models/order"
	"github.com/pizzadash/dispatch/internal/service/models/outbox"
)

// OrderService owns order records and the delivery-status state machine.
// Status transitions are serialized per order by an expected-status check in
// the repository, never by locks.
type OrderService struct {
	pgClient *postgres.Client
	newUOW   func() unitOfWork
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("ordersvc: no unit of work configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
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
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// CreateOrder validates a customer draft, computes its total, stores it as
// pending and enqueues the created event, all in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, act actor.Actor, draft order.Order) (order.Order, error) {
	now := time.Now()

	if draft.Currency == "" {
		draft.Currency = currency.CurrencyEUR
	}
	for i := range draft.OrderItems {
		if draft.OrderItems[i].PriceCurrency == "" {
			draft.OrderItems[i].PriceCurrency = draft.Currency
		}
		draft.OrderItems[i].CreatedAt = now
	}

	draft.DeliveryStatus = order.StatusPending
	draft.RiderID = nil
	draft.DispatchedAt = nil
	draft.DeliveredAt = nil
	draft.CreatedAt = now
	draft.UpdatedAt = now

	if err := draft.ValidateDraft(); err != nil {
		return order.Order{}, err
	}

	draft.TotalAmountCents = order.ComputeTotalCents(
		draft.OrderItems,
		draft.DeliveryFeeCents,
		draft.PaymentMethod,
		viper.GetInt64("pricing.pos_surcharge_cents"),
	)

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	items := draft.OrderItems
	draft.OrderItems = nil

	inserted, err := work.OrderRepository().Insert(ctx, draft)
	if err != nil {
		return order.Order{}, err
	}

	for i := range items {
		items[i].OrderID = inserted.ID
	}
	insertedItems, err := work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return order.Order{}, err
	}
	inserted.OrderItems = insertedItems

	if err := s.enqueueOrderEvent(ctx, work, event.TypeInsert, inserted); err != nil {
		return order.Order{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, err
	}

	slog.Info("Order created",
		"order_id", inserted.ID,
		"order_number", inserted.OrderNumber,
		"total_cents", inserted.TotalAmountCents,
		"actor_id", act.ID,
		"actor_role", act.Role,
	)

	return inserted, nil
}

// GetOrder retrieves a single order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	work := s.newUOW()

	o, err := work.OrderRepository().Get(ctx, id)
	if err != nil {
		return order.Order{}, err
	}

	items, err := work.OrderItemRepository().QueryByOrderIds(ctx, []int64{o.ID})
	if err != nil {
		return order.Order{}, err
	}
	o.OrderItems = items

	return o, nil
}

// ListOrdersByStatus returns orders in the given statuses, oldest first,
// with their items attached.
func (s *OrderService) ListOrdersByStatus(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	orderIds := make([]int64, 0, len(orders))
	for _, o := range orders {
		orderIds = append(orderIds, o.ID)
	}

	items, err := work.OrderItemRepository().QueryByOrderIds(ctx, orderIds)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		for _, item := range items {
			if item.OrderID == orders[i].ID {
				orders[i].OrderItems = append(orders[i].OrderItems, item)
			}
		}
	}

	return orders, nil
}

// TransitionStatus applies one edge of the state machine with optimistic
// concurrency. When the compare-and-set misses, the current row decides the
// failure: absent means not found, anything else means a concurrent writer
// got there first.
func (s *OrderService) TransitionStatus(ctx context.Context, act actor.Actor, model iorderrepo.UpdateStatusModel) (order.Order, error) {
	if err := order.ValidateTransition(model.FromExpected, model.To); err != nil {
		return order.Order{}, err
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	updated, err := work.OrderRepository().UpdateStatus(ctx, model)
	if err != nil {
		if !errors.Is(err, iorderrepo.ErrNotUpdated) {
			return order.Order{}, err
		}

		_ = work.Rollback(ctx)

		current, getErr := s.GetOrder(ctx, model.OrderID)
		if getErr != nil {
			return order.Order{}, getErr
		}

		return order.Order{}, apperr.Conflictf(
			"order %d moved to %s while a transition from %s was in flight",
			model.OrderID, current.DeliveryStatus, model.FromExpected,
		)
	}

	if err := s.enqueueOrderEvent(ctx, work, event.TypeUpdate, updated); err != nil {
		return order.Order{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, err
	}

	slog.Info("Order status changed",
		"order_id", updated.ID,
		"from", model.FromExpected,
		"to", model.To,
		"actor_id", act.ID,
		"actor_role", act.Role,
	)

	return updated, nil
}

// enqueueOrderEvent writes a change event into the outbox inside the same
// transaction as the order mutation.
func (s *OrderService) enqueueOrderEvent(ctx context.Context, work unitOfWork, t event.Type, o order.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal order event payload: %w", err)
	}

	e := event.Event{
		Type:       t,
		Entity:     event.EntityOrder,
		OrderID:    o.ID,
		OccurredAt: time.Now(),
		Payload:    payload,
	}
	if o.RiderID != nil {
		e.RiderID = *o.RiderID
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
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
