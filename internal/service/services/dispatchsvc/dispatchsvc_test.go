package dispatchsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/pizzadash/dispatch/internal/dal/interfaces/iorderrepo"
	"github.com/pizzadash/dispatch/internal/notify"
	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/order"
	"github.com/pizzadash/dispatch/internal/service/models/rider"
)

// fakeOrderStore mirrors the real order service: it enforces the state
// machine and the expected-status check, in memory.
type fakeOrderStore struct {
	orders map[int64]order.Order
}

func (f *fakeOrderStore) GetOrder(_ context.Context, id int64) (order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return order.Order{}, apperr.NotFoundf("order %d not found", id)
	}

	return o, nil
}

func (f *fakeOrderStore) TransitionStatus(_ context.Context, _ actor.Actor, model iorderrepo.UpdateStatusModel) (order.Order, error) {
	if err := order.ValidateTransition(model.FromExpected, model.To); err != nil {
		return order.Order{}, err
	}

	o, ok := f.orders[model.OrderID]
	if !ok {
		return order.Order{}, apperr.NotFoundf("order %d not found", model.OrderID)
	}
	if o.DeliveryStatus != model.FromExpected {
		return order.Order{}, apperr.Conflictf(
			"order %d moved to %s while a transition from %s was in flight",
			model.OrderID, o.DeliveryStatus, model.FromExpected,
		)
	}

	o.DeliveryStatus = model.To
	if model.RiderID != nil {
		o.RiderID = model.RiderID
	}
	if model.DispatchedAt != nil {
		o.DispatchedAt = model.DispatchedAt
	}
	if model.DeliveredAt != nil {
		o.DeliveredAt = model.DeliveredAt
	}
	f.orders[model.OrderID] = o

	return o, nil
}

type fakeRiderDirectory struct {
	riders map[int64]rider.Rider
}

func (f *fakeRiderDirectory) Get(_ context.Context, id int64) (rider.Rider, error) {
	r, ok := f.riders[id]
	if !ok {
		return rider.Rider{}, apperr.NotFoundf("rider %d not found", id)
	}

	return r, nil
}

type fakeNotifier struct {
	sent []notify.Message
	fail bool
}

func (f *fakeNotifier) Send(_ context.Context, msg notify.Message) error {
	if f.fail {
		return errors.New("push service unavailable")
	}
	f.sent = append(f.sent, msg)

	return nil
}

func (f *fakeNotifier) SendAll(ctx context.Context, msgs []notify.Message) error {
	for _, msg := range msgs {
		if err := f.Send(ctx, msg); err != nil {
			return err
		}
	}

	return nil
}

func newFixture() (*fakeOrderStore, *fakeRiderDirectory, *fakeNotifier, *DispatchService) {
	store := &fakeOrderStore{orders: map[int64]order.Order{
		1: {ID: 1, OrderNumber: "ORD-000001", CustomerEmail: "ada@example.com", DeliveryStatus: order.StatusPending},
	}}
	riders := &fakeRiderDirectory{riders: map[int64]rider.Rider{
		10: {ID: 10, Name: "Marco", IsActive: true},
		11: {ID: 11, Name: "Luca", IsActive: false},
	}}
	notifier := &fakeNotifier{}

	svc := MustNewDispatchService(
		WithOrderStore(store),
		WithRiderDirectory(riders),
		WithNotifier(notifier),
	)

	return store, riders, notifier, svc
}

func TestAssignRider(t *testing.T) {
	store, _, notifier, svc := newFixture()

	updated, err := svc.AssignRider(context.Background(), actor.System, 1, 10)
	if err != nil {
		t.Fatalf("AssignRider() error: %v", err)
	}

	if updated.DeliveryStatus != order.StatusAssigned {
		t.Errorf("status = %s, want assigned", updated.DeliveryStatus)
	}
	if updated.RiderID == nil || *updated.RiderID != 10 {
		t.Error("rider 10 should be recorded on the order")
	}
	if store.orders[1].DeliveryStatus != order.StatusAssigned {
		t.Error("assignment must be persisted")
	}
	// Rider and customer are both told.
	if len(notifier.sent) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(notifier.sent))
	}
}

func TestAssignRider_InactiveRider(t *testing.T) {
	store, _, _, svc := newFixture()

	_, err := svc.AssignRider(context.Background(), actor.System, 1, 11)
	if apperr.KindOf(err) != apperr.KindRiderInactive {
		t.Fatalf("expected rider inactive error, got %v", err)
	}
	if store.orders[1].DeliveryStatus != order.StatusPending {
		t.Error("order must stay pending when the rider is inactive")
	}
}

func TestAssignRider_SecondAssignmentConflicts(t *testing.T) {
	_, _, _, svc := newFixture()

	if _, err := svc.AssignRider(context.Background(), actor.System, 1, 10); err != nil {
		t.Fatalf("first assignment failed: %v", err)
	}

	_, err := svc.AssignRider(context.Background(), actor.System, 1, 10)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("second assignment should conflict, got %v", err)
	}
}

func TestAssignRider_UnknownOrder(t *testing.T) {
	_, _, _, svc := newFixture()

	_, err := svc.AssignRider(context.Background(), actor.System, 404, 10)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStartDelivery(t *testing.T) {
	store, _, _, svc := newFixture()
	store.orders[1] = order.Order{ID: 1, DeliveryStatus: order.StatusAssigned}

	updated, err := svc.StartDelivery(context.Background(), actor.System, 1)
	if err != nil {
		t.Fatalf("StartDelivery() error: %v", err)
	}
	if updated.DeliveryStatus != order.StatusInDelivery {
		t.Errorf("status = %s, want in_delivery", updated.DeliveryStatus)
	}
	if updated.DispatchedAt == nil {
		t.Error("dispatched_at must be stamped")
	}
}

func TestStartDelivery_AlreadyDelivered(t *testing.T) {
	store, _, _, svc := newFixture()
	store.orders[1] = order.Order{ID: 1, DeliveryStatus: order.StatusDelivered}

	_, err := svc.StartDelivery(context.Background(), actor.System, 1)
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestCompleteDelivery(t *testing.T) {
	store, _, notifier, svc := newFixture()
	store.orders[1] = order.Order{ID: 1, OrderNumber: "ORD-000001", DeliveryStatus: order.StatusInDelivery}

	updated, err := svc.CompleteDelivery(context.Background(), actor.System, 1)
	if err != nil {
		t.Fatalf("CompleteDelivery() error: %v", err)
	}
	if updated.DeliveryStatus != order.StatusDelivered {
		t.Errorf("status = %s, want delivered", updated.DeliveryStatus)
	}
	if updated.DeliveredAt == nil {
		t.Error("delivered_at must be stamped")
	}
	if len(notifier.sent) != 1 {
		t.Errorf("expected 1 notification, got %d", len(notifier.sent))
	}
}

func TestCancelOrder(t *testing.T) {
	_, _, notifier, svc := newFixture()

	updated, err := svc.CancelOrder(context.Background(), actor.System, 1, "kitchen closed")
	if err != nil {
		t.Fatalf("CancelOrder() error: %v", err)
	}
	if updated.DeliveryStatus != order.StatusCancelled {
		t.Errorf("status = %s, want cancelled", updated.DeliveryStatus)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	if notifier.sent[0].Body != "Order ORD-000001 was cancelled: kitchen closed" {
		t.Errorf("unexpected notification body: %q", notifier.sent[0].Body)
	}
}

func TestCancelOrder_AfterDelivery(t *testing.T) {
	store, _, _, svc := newFixture()
	store.orders[1] = order.Order{ID: 1, DeliveryStatus: order.StatusDelivered}

	_, err := svc.CancelOrder(context.Background(), actor.System, 1, "")
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestCancelOrder_DuringDelivery(t *testing.T) {
	store, _, _, svc := newFixture()
	store.orders[1] = order.Order{ID: 1, DeliveryStatus: order.StatusInDelivery}

	_, err := svc.CancelOrder(context.Background(), actor.System, 1, "")
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("an order out for delivery must not be cancellable, got %v", err)
	}
}

func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	store, _, notifier, svc := newFixture()
	notifier.fail = true

	updated, err := svc.AssignRider(context.Background(), actor.System, 1, 10)
	if err != nil {
		t.Fatalf("a failed notification must not fail the assignment: %v", err)
	}
	if updated.DeliveryStatus != order.StatusAssigned {
		t.Errorf("status = %s, want assigned", updated.DeliveryStatus)
	}
	if store.orders[1].DeliveryStatus != order.StatusAssigned {
		t.Error("assignment must be persisted despite the notification failure")
	}
}
