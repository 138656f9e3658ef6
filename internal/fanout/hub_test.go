package fanout

import (
	"testing"

	"github.com/pizzadash/dispatch/internal/service/models/event"
)

func orderEvent(orderID, riderID int64) event.Event {
	return event.Event{
		Type:    event.TypeUpdate,
		Entity:  event.EntityOrder,
		OrderID: orderID,
		RiderID: riderID,
	}
}

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		e      event.Event
		want   bool
	}{
		{name: "zero filter matches everything", filter: Filter{}, e: orderEvent(1, 2), want: true},
		{
			name:   "entity match",
			filter: Filter{Entity: event.EntityOrder},
			e:      orderEvent(1, 0),
			want:   true,
		},
		{
			name:   "entity mismatch",
			filter: Filter{Entity: event.EntityLocation},
			e:      orderEvent(1, 0),
			want:   false,
		},
		{
			name:   "order id narrowing",
			filter: Filter{Entity: event.EntityOrder, OrderID: 7},
			e:      orderEvent(7, 0),
			want:   true,
		},
		{
			name:   "order id mismatch",
			filter: Filter{Entity: event.EntityOrder, OrderID: 7},
			e:      orderEvent(8, 0),
			want:   false,
		},
		{
			name:   "rider id narrowing",
			filter: Filter{RiderID: 3},
			e:      orderEvent(1, 3),
			want:   true,
		},
		{
			name:   "rider id mismatch",
			filter: Filter{RiderID: 3},
			e:      orderEvent(1, 4),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.e); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHubDeliversToMatchingSubscribers(t *testing.T) {
	hub := NewHub(4)

	orders := hub.Subscribe(Filter{Entity: event.EntityOrder})
	locations := hub.Subscribe(Filter{Entity: event.EntityLocation})
	defer orders.Close()
	defer locations.Close()

	hub.Publish(orderEvent(1, 0))

	select {
	case e := <-orders.Events():
		if e.OrderID != 1 {
			t.Errorf("got event for order %d, want 1", e.OrderID)
		}
	default:
		t.Fatal("order subscriber should have received the event")
	}

	select {
	case <-locations.Events():
		t.Fatal("location subscriber must not receive order events")
	default:
	}
}

func TestHubDropsLaggingSubscriber(t *testing.T) {
	hub := NewHub(1)

	sub := hub.Subscribe(Filter{})

	// First event fills the buffer, second one exceeds it.
	hub.Publish(orderEvent(1, 0))
	hub.Publish(orderEvent(2, 0))

	if n := hub.SubscriberCount(); n != 0 {
		t.Fatalf("lagging subscriber should be dropped, still %d connected", n)
	}

	// The buffered event is still readable, then the channel closes so the
	// subscriber knows it was cut off.
	if e, ok := <-sub.Events(); !ok || e.OrderID != 1 {
		t.Fatalf("expected buffered event for order 1, got %+v ok=%v", e, ok)
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatal("channel should be closed after the drop")
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := NewHub(4)

	sub := hub.Subscribe(Filter{})
	sub.Close()
	sub.Close()

	if n := hub.SubscriberCount(); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}
}

func TestCloseAfterDropDoesNotPanic(t *testing.T) {
	hub := NewHub(1)

	sub := hub.Subscribe(Filter{})
	hub.Publish(orderEvent(1, 0))
	hub.Publish(orderEvent(2, 0))

	// The hub already closed the channel; a late Close from the handler
	// must be a no-op.
	sub.Close()
}

func TestPublishWithNoSubscribers(t *testing.T) {
	hub := NewHub(4)
	hub.Publish(orderEvent(1, 0))

	if n := hub.SubscriberCount(); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}
}
