package fanout

import (
	"log/slog"
	"sync"

	"github.com/pizzadash/dispatch/internal/service/models/event"
)

// Filter selects the events a subscriber wants: an entity type plus optional
// order and rider narrowing. A zero id means "any".
type Filter struct {
	Entity  event.Entity
	OrderID int64
	RiderID int64
}

// Matches reports whether the event should be delivered for this filter.
func (f Filter) Matches(e event.Event) bool {
	if f.Entity != "" && f.Entity != e.Entity {
		return false
	}
	if f.OrderID != 0 && f.OrderID != e.OrderID {
		return false
	}
	if f.RiderID != 0 && f.RiderID != e.RiderID {
		return false
	}

	return true
}

// Subscription is one subscriber's event stream. The channel is closed when
// the subscription ends, either by Close or because the subscriber fell too
// far behind.
type Subscription struct {
	id     uint64
	filter Filter
	ch     chan event.Event
	hub    *Hub
	once   sync.Once
}

// Events returns the subscriber's event channel.
func (s *Subscription) Events() <-chan event.Event {
	return s.ch
}

// Close unsubscribes and closes the event channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
		close(s.ch)
	})
}

// Hub fans change events out to subscribers. Delivery is at-least-once while
// a subscriber is connected: events are never silently skipped. A subscriber
// whose buffer is full is disconnected instead, so it knows to re-fetch
// current state on reconnect.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
}

// NewHub creates a hub with the given per-subscriber buffer size.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}

	return &Hub{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
	}
}

// Subscribe registers interest matching the filter.
func (h *Hub) Subscribe(filter Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		filter: filter,
		ch:     make(chan event.Event, h.buffer),
		hub:    h,
	}
	h.subs[sub.id] = sub

	return sub
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// Publish delivers the event to every matching subscriber. Subscribers that
// cannot keep up are dropped.
func (h *Hub) Publish(e event.Event) {
	h.mu.Lock()
	var lagging []*Subscription
	for _, sub := range h.subs {
		if !sub.filter.Matches(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			lagging = append(lagging, sub)
		}
	}
	for _, sub := range lagging {
		delete(h.subs, sub.id)
	}
	h.mu.Unlock()

	for _, sub := range lagging {
		slog.Warn("Dropping lagging fan-out subscriber", "subscription_id", sub.id)
		sub.once.Do(func() { close(sub.ch) })
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}
