package reportlocation

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/location"
	"github.com/pizzadash/dispatch/internal/transport/http/httpx"
)

// service is an interface for the service layer.
type service interface {
	ReportLocation(ctx context.Context, act actor.Actor, loc location.Location) (location.Location, error)
}

var validate = validator.New()

// reportLocationRequest represents a GPS report from the rider app. RecordedAt
// is optional: a client that resends the original timestamp on retry hits the
// already stored report; when omitted the server assigns the receive time.
type reportLocationRequest struct {
	Latitude   float64   `json:"latitude"  validate:"gte=-90,lte=90"`
	Longitude  float64   `json:"longitude" validate:"gte=-180,lte=180"`
	Heading    *float64  `json:"heading,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	RecordedAt time.Time `json:"recordedAt,omitempty"`
}

// ReportLocation handles the periodic location report. Retried duplicates
// are accepted and return the already stored report.
func ReportLocation(w http.ResponseWriter, r *http.Request, svc service) {
	riderID, err := strconv.ParseInt(chi.URLParam(r, "riderID"), 10, 64)
	if err != nil {
		httpx.WriteError(w, apperr.Validationf("rider id must be an integer"))

		return
	}

	var req reportLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validationf("failed to decode request body"))

		return
	}

	if err := validate.Struct(req); err != nil {
		httpx.WriteError(w, apperr.Wrap(apperr.KindValidation, "invalid location report", err))

		return
	}

	stored, err := svc.ReportLocation(r.Context(), httpx.ActorFromRequest(r), location.Location{
		RiderID:    riderID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Heading:    req.Heading,
		Speed:      req.Speed,
		RecordedAt: req.RecordedAt,
	})
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, stored)
}
