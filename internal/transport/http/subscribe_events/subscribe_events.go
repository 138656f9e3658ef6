package subscribeevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pizzadash/dispatch/internal/fanout"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/event"
	"github.com/pizzadash/dispatch/internal/transport/http/httpx"
)

// Subscribe streams change events over SSE. Clients pick a stream (orders
// or locations) and may narrow by orderId or riderId. Delivery is
// at-least-once while connected; on reconnect the client re-fetches current
// state instead of replaying.
func Subscribe(w http.ResponseWriter, r *http.Request, hub *fanout.Hub) {
	filter, err := filterFromQuery(r)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(w, apperr.Validationf("streaming is not supported by this connection"))

		return
	}

	sub := hub.Subscribe(filter)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				// Dropped as a lagging subscriber; the client reconnects and
				// re-fetches.
				return
			}
			if err := writeEvent(w, e); err != nil {
				slog.Error("Error writing SSE event", "error", err)

				return
			}
			flusher.Flush()
		}
	}
}

func filterFromQuery(r *http.Request) (fanout.Filter, error) {
	query := r.URL.Query()

	var filter fanout.Filter
	switch query.Get("stream") {
	case "orders":
		filter.Entity = event.EntityOrder
	case "locations":
		filter.Entity = event.EntityLocation
	default:
		return fanout.Filter{}, apperr.Validationf("stream must be orders or locations")
	}

	if raw := query.Get("orderId"); raw != "" {
		orderID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fanout.Filter{}, apperr.Validationf("orderId must be an integer")
		}
		filter.OrderID = orderID
	}

	if raw := query.Get("riderId"); raw != "" {
		riderID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fanout.Filter{}, apperr.Validationf("riderId must be an integer")
		}
		filter.RiderID = riderID
	}

	return filter, nil
}

func writeEvent(w http.ResponseWriter, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Entity, data)

	return err
}
