package dispatchsvc

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pizzadash/dispatch/internal/dal/interfaces/iorderrepo"
	"github.com/pizzadash/dispatch/internal/notify"
	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/order"
	"github.com/pizzadash/dispatch/internal/service/models/rider"
)

// orderStore is the slice of the order service the coordinator needs.
type orderStore interface {
	GetOrder(ctx context.Context, id int64) (order.Order, error)
	TransitionStatus(ctx context.Context, act actor.Actor, model iorderrepo.UpdateStatusModel) (order.Order, error)
}

// riderDirectory is the slice of the rider repository the coordinator needs.
type riderDirectory interface {
	Get(ctx context.Context, id int64) (rider.Rider, error)
}

// DispatchService orchestrates the order lifecycle between the order store,
// the rider directory and the notification gateway. The status transition is
// the source of truth; notifications are a best-effort side channel and a
// failed send never rolls a transition back.
type DispatchService struct {
	orders   orderStore
	riders   riderDirectory
	notifier notify.Gateway
}

// option is a function that configures the DispatchService.
type option func(*DispatchService)

// MustNewDispatchService creates a new DispatchService.
func MustNewDispatchService(opts ...option) *DispatchService {
	s := &DispatchService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.orders == nil || s.riders == nil || s.notifier == nil {
		panic("dispatchsvc: order store, rider directory and notifier are all required")
	}

	return s
}

// WithOrderStore sets the order store.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderStore(orders orderStore) option {
	return func(s *DispatchService) {
		s.orders = orders
	}
}

// WithRiderDirectory sets the rider directory.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRiderDirectory(riders riderDirectory) option {
	return func(s *DispatchService) {
		s.riders = riders
	}
}

// WithNotifier sets the notification gateway.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithNotifier(notifier notify.Gateway) option {
	return func(s *DispatchService) {
		s.notifier = notifier
	}
}

// AssignRider assigns an active rider to a pending order. Two concurrent
// assignments race on the pending status; exactly one wins, the loser gets
// a conflict and must re-fetch.
func (s *DispatchService) AssignRider(ctx context.Context, act actor.Actor, orderID, riderID int64) (order.Order, error) {
	rd, err := s.riders.Get(ctx, riderID)
	if err != nil {
		return order.Order{}, err
	}
	if !rd.IsActive {
		return order.Order{}, apperr.RiderInactivef("rider %s is not active", rd.Name)
	}

	updated, err := s.orders.TransitionStatus(ctx, act, iorderrepo.UpdateStatusModel{
		OrderID:      orderID,
		FromExpected: order.StatusPending,
		To:           order.StatusAssigned,
		RiderID:      &riderID,
	})
	if err != nil {
		return order.Order{}, err
	}

	s.notifyBestEffort(ctx, "assign_rider", []notify.Message{
		{
			Target: riderTarget(riderID),
			Title:  "New delivery assigned",
			Body:   fmt.Sprintf("Order %s is waiting for pickup.", updated.OrderNumber),
			Data:   orderData(updated),
		},
		{
			Target: customerTarget(updated),
			Title:  "Your order has a rider",
			Body:   fmt.Sprintf("%s will deliver order %s.", rd.Name, updated.OrderNumber),
			Data:   orderData(updated),
		},
	})

	return updated, nil
}

// StartDelivery moves an assigned order into active delivery. From this
// point the rider's location reports are what customers see on the map.
func (s *DispatchService) StartDelivery(ctx context.Context, act actor.Actor, orderID int64) (order.Order, error) {
	current, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}

	now := time.Now()
	updated, err := s.orders.TransitionStatus(ctx, act, iorderrepo.UpdateStatusModel{
		OrderID:      orderID,
		FromExpected: current.DeliveryStatus,
		To:           order.StatusInDelivery,
		DispatchedAt: &now,
	})
	if err != nil {
		return order.Order{}, err
	}

	s.notifyBestEffort(ctx, "start_delivery", []notify.Message{
		{
			Target: customerTarget(updated),
			Title:  "Rider en route",
			Body:   fmt.Sprintf("Order %s is on its way.", updated.OrderNumber),
			Data:   orderData(updated),
		},
	})

	return updated, nil
}

// CompleteDelivery marks an order delivered. The location stream is
// rider-scoped, not order-scoped, so nothing needs stopping there; the
// rider can pick up the next order immediately.
func (s *DispatchService) CompleteDelivery(ctx context.Context, act actor.Actor, orderID int64) (order.Order, error) {
	current, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}

	now := time.Now()
	updated, err := s.orders.TransitionStatus(ctx, act, iorderrepo.UpdateStatusModel{
		OrderID:      orderID,
		FromExpected: current.DeliveryStatus,
		To:           order.StatusDelivered,
		DeliveredAt:  &now,
	})
	if err != nil {
		return order.Order{}, err
	}

	s.notifyBestEffort(ctx, "complete_delivery", []notify.Message{
		{
			Target: customerTarget(updated),
			Title:  "Order delivered",
			Body:   fmt.Sprintf("Order %s has been delivered. Enjoy!", updated.OrderNumber),
			Data:   orderData(updated),
		},
	})

	return updated, nil
}

// CancelOrder cancels an order that has not left the shop yet.
func (s *DispatchService) CancelOrder(ctx context.Context, act actor.Actor, orderID int64, reason string) (order.Order, error) {
	current, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}

	updated, err := s.orders.TransitionStatus(ctx, act, iorderrepo.UpdateStatusModel{
		OrderID:      orderID,
		FromExpected: current.DeliveryStatus,
		To:           order.StatusCancelled,
	})
	if err != nil {
		return order.Order{}, err
	}

	body := fmt.Sprintf("Order %s was cancelled.", updated.OrderNumber)
	if reason != "" {
		body = fmt.Sprintf("Order %s was cancelled: %s", updated.OrderNumber, reason)
	}

	s.notifyBestEffort(ctx, "cancel_order", []notify.Message{
		{
			Target: customerTarget(updated),
			Title:  "Order cancelled",
			Body:   body,
			Data:   orderData(updated),
		},
	})

	return updated, nil
}

// notifyBestEffort sends notifications and only logs failures. The state
// change already committed and always wins.
func (s *DispatchService) notifyBestEffort(ctx context.Context, operation string, msgs []notify.Message) {
	if err := s.notifier.SendAll(ctx, msgs); err != nil {
		slog.Warn("Notification delivery failed",
			"operation", operation,
			"error", err,
		)
	}
}

func riderTarget(riderID int64) string {
	return "rider:" + strconv.FormatInt(riderID, 10)
}

func customerTarget(o order.Order) string {
	return "customer:" + o.CustomerEmail
}

func orderData(o order.Order) map[string]string {
	return map[string]string{
		"orderId":     strconv.FormatInt(o.ID, 10),
		"orderNumber": o.OrderNumber,
		"status":      o.DeliveryStatus.String(),
	}
}
