package listorders

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pizzadash/dispatch/internal/service/models/order"
	"github.com/pizzadash/dispatch/internal/transport/http/httpx"
)

// service is an interface for the service layer.
type service interface {
	ListOrdersByStatus(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
}

// ListOrders handles the list orders request. Statuses come as a
// comma-separated query parameter; unknown statuses are rejected.
func ListOrders(w http.ResponseWriter, r *http.Request, svc service) {
	query := r.URL.Query()

	filter := &order.QueryOrdersModel{}

	if raw := query.Get("statuses"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := order.ParseStatus(strings.TrimSpace(part))
			if err != nil {
				httpx.WriteError(w, err)

				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := query.Get("riderId"); raw != "" {
		riderID, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			filter.RiderIds = append(filter.RiderIds, riderID)
		}
	}

	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			filter.Offset = offset
		}
	}

	orders, err := svc.ListOrdersByStatus(r.Context(), filter)
	if err != nil {
		httpx.WriteError(w, err)
		slog.Error("Error listing orders", "error", err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, orders)
}
