package ilocationrepo

import (
	"context"

	"github.com/pizzadash/dispatch/internal/service/models/location"
)

// ILocationRepository is an interface for the rider location postgres
// repository. The table is an append-only event log; "latest" views are
// derived by recorded_at, not by receipt order.
type ILocationRepository interface {
	// Append stores a report. A duplicate (rider_id, recorded_at) pair is a
	// harmless no-op; inserted reports false in that case.
	Append(ctx context.Context, loc location.Location) (stored location.Location, inserted bool, err error)
	Latest(ctx context.Context, riderID int64) (location.Location, error)
	LatestForActiveRiders(ctx context.Context) (map[int64]location.Location, error)
}
