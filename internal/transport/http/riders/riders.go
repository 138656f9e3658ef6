package riders

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/rider"
	"github.com/pizzadash/dispatch/internal/transport/http/httpx"
)

// service is an interface for the rider directory service.
type service interface {
	CreateRider(ctx context.Context, act actor.Actor, r rider.Rider) (rider.Rider, error)
	ListRiders(ctx context.Context, onlyActive bool) ([]rider.Rider, error)
	SetRiderActive(ctx context.Context, act actor.Actor, id int64, active bool) (rider.Rider, error)
}

var validate = validator.New()

// createRiderRequest represents an admin create rider request.
type createRiderRequest struct {
	Name  string `json:"name"  validate:"required"`
	Phone string `json:"phone" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

// CreateRider handles the admin create rider request.
func CreateRider(w http.ResponseWriter, r *http.Request, svc service) {
	var req createRiderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validationf("failed to decode request body"))

		return
	}

	if err := validate.Struct(req); err != nil {
		httpx.WriteError(w, apperr.Wrap(apperr.KindValidation, "invalid create rider request", err))

		return
	}

	created, err := svc.CreateRider(r.Context(), httpx.ActorFromRequest(r), rider.Rider{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	httpx.WriteJSON(w, http.StatusCreated, created)
}

// ListRiders handles the rider listing request. active=true narrows the
// list to the assignment pool.
func ListRiders(w http.ResponseWriter, r *http.Request, svc service) {
	onlyActive := r.URL.Query().Get("active") == "true"

	result, err := svc.ListRiders(r.Context(), onlyActive)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

// DeactivateRider handles the admin deactivation request.
func DeactivateRider(w http.ResponseWriter, r *http.Request, svc service) {
	id, err := strconv.ParseInt(chi.URLParam(r, "riderID"), 10, 64)
	if err != nil {
		httpx.WriteError(w, apperr.Validationf("rider id must be an integer"))

		return
	}

	updated, err := svc.SetRiderActive(r.Context(), httpx.ActorFromRequest(r), id, false)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, updated)
}
