package subscribeevents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pizzadash/dispatch/internal/fanout"
	"github.com/pizzadash/dispatch/internal/service/models/event"
)

func TestSubscribe_RejectsUnknownStream(t *testing.T) {
	hub := fanout.NewHub(4)

	req := httptest.NewRequest(http.MethodGet, "/api/events?stream=everything", nil)
	rec := httptest.NewRecorder()

	Subscribe(rec, req, hub)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if hub.SubscriberCount() != 0 {
		t.Error("a rejected request must not leave a subscription behind")
	}
}

func TestSubscribe_RejectsBadOrderId(t *testing.T) {
	hub := fanout.NewHub(4)

	req := httptest.NewRequest(http.MethodGet, "/api/events?stream=orders&orderId=abc", nil)
	rec := httptest.NewRecorder()

	Subscribe(rec, req, hub)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSubscribe_StreamsMatchingEvents(t *testing.T) {
	hub := fanout.NewHub(4)

	req := httptest.NewRequest(http.MethodGet, "/api/events?stream=orders&orderId=7", nil)
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		Subscribe(rec, req, hub)
		close(done)
	}()

	waitForSubscribers(t, hub, 1)

	hub.Publish(event.Event{
		Type:    event.TypeUpdate,
		Entity:  event.EntityOrder,
		OrderID: 7,
		Payload: []byte(`{"id":7}`),
	})
	hub.Publish(event.Event{
		Type:    event.TypeUpdate,
		Entity:  event.EntityOrder,
		OrderID: 8,
		Payload: []byte(`{"id":8}`),
	})

	// Give the handler a moment to drain the channel, then disconnect.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: order") {
		t.Errorf("body missing order event: %q", body)
	}
	if !strings.Contains(body, `{"id":7}`) {
		t.Errorf("body missing payload for order 7: %q", body)
	}
	if strings.Contains(body, `{"id":8}`) {
		t.Error("event for order 8 must be filtered out")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
}

func waitForSubscribers(t *testing.T, hub *fanout.Hub, n int) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for hub.SubscriberCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(time.Millisecond)
	}
}
