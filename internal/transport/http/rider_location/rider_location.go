package riderlocation

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/location"
	"github.com/pizzadash/dispatch/internal/service/services/locationsvc"
	"github.com/pizzadash/dispatch/internal/transport/http/httpx"
)

// service is an interface for the service layer.
type service interface {
	GetLatestLocation(ctx context.Context, riderID int64) (location.Location, error)
	TrackRider(ctx context.Context, riderID int64, destLat, destLng float64) (locationsvc.Tracking, error)
}

// GetLatestLocation returns the rider's latest position. When dest_lat and
// dest_lng are supplied the response is annotated with display distance and
// ETA to the destination.
func GetLatestLocation(w http.ResponseWriter, r *http.Request, svc service) {
	riderID, err := strconv.ParseInt(chi.URLParam(r, "riderID"), 10, 64)
	if err != nil {
		httpx.WriteError(w, apperr.Validationf("rider id must be an integer"))

		return
	}

	query := r.URL.Query()
	destLatRaw := query.Get("dest_lat")
	destLngRaw := query.Get("dest_lng")

	if destLatRaw == "" || destLngRaw == "" {
		loc, err := svc.GetLatestLocation(r.Context(), riderID)
		if err != nil {
			httpx.WriteError(w, err)

			return
		}

		httpx.WriteJSON(w, http.StatusOK, loc)

		return
	}

	destLat, err := strconv.ParseFloat(destLatRaw, 64)
	if err != nil {
		httpx.WriteError(w, apperr.Validationf("dest_lat must be a number"))

		return
	}
	destLng, err := strconv.ParseFloat(destLngRaw, 64)
	if err != nil {
		httpx.WriteError(w, apperr.Validationf("dest_lng must be a number"))

		return
	}

	tracking, err := svc.TrackRider(r.Context(), riderID, destLat, destLng)
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	httpx.WriteJSON(w, http.StatusOK, tracking)
}
