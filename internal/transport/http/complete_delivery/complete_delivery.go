package completedelivery

import (
	"context"
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
	CompleteDelivery(ctx context.Context, act actor.Actor, orderID int64) (order.Order, error)
}

// CompleteDelivery handles the delivery completion request.
func CompleteDelivery(w http.ResponseWriter, r *http.Request, svc service) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.WriteError(w, apperr.Validationf("order id must be an integer"))

		return
	}

	updated, err := svc.CompleteDelivery(r.Context(), httpx.ActorFromRequest(r), orderID)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, updated)
}
