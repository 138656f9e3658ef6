package cancelorder

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/order"
	"github.com/pizzadash/dispatch/internal/transport/http/httpx"
)

// service is an interface for the dispatch coordinator.
type service interface {
	CancelOrder(ctx context.Context, act actor.Actor, orderID int64, reason string) (order.Order, error)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder handles the cancellation request. Only pending and assigned
// orders can be cancelled; anything later is refused.
func CancelOrder(w http.ResponseWriter, r *http.Request, svc service) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.WriteError(w, apperr.Validationf("order id must be an integer"))

		return
	}

	var req cancelOrderRequest
	if r.Body != nil {
		// The reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	updated, err := svc.CancelOrder(r.Context(), httpx.ActorFromRequest(r), orderID, req.Reason)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, updated)
}
