package assignrider

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
	AssignRider(ctx context.Context, act actor.Actor, orderID, riderID int64) (order.Order, error)
}

type assignRiderRequest struct {
	RiderID int64 `json:"riderId"`
}

// AssignRider handles the rider assignment request. When two admins race on
// the same pending order, one of them gets a conflict response and should
// refresh.
func AssignRider(w http.ResponseWriter, r *http.Request, svc service) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.WriteError(w, apperr.Validationf("order id must be an integer"))

		return
	}

	var req assignRiderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validationf("failed to decode request body"))

		return
	}
	if req.RiderID <= 0 {
		httpx.WriteError(w, apperr.Validationf("riderId is required"))

		return
	}

	updated, err := svc.AssignRider(r.Context(), httpx.ActorFromRequest(r), orderID, req.RiderID)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, updated)
}
