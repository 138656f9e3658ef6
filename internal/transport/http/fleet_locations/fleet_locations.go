package fleetlocations

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pizzadash/dispatch/internal/service/models/location"
	"github.com/pizzadash/dispatch/internal/transport/http/httpx"
)

// service is an interface for the service layer.
type service interface {
	GetLatestLocationsForActiveRiders(ctx context.Context) (map[int64]location.Location, error)
}

// FleetLocations returns the latest position of every active rider for the
// admin map, keyed by rider id.
func FleetLocations(w http.ResponseWriter, r *http.Request, svc service) {
	locations, err := svc.GetLatestLocationsForActiveRiders(r.Context())
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	// JSON object keys must be strings.
	response := make(map[string]location.Location, len(locations))
	for riderID, loc := range locations {
		response[strconv.FormatInt(riderID, 10)] = loc
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}
