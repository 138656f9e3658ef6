package iriderrepo

import (
	"context"

	"github.com/pizzadash/dispatch/internal/service/models/rider"
)

// IRiderRepository is an interface for the rider directory postgres repository.
type IRiderRepository interface {
	Insert(ctx context.Context, r rider.Rider) (rider.Rider, error)
	Get(ctx context.Context, id int64) (rider.Rider, error)
	List(ctx context.Context, onlyActive bool) ([]rider.Rider, error)
	SetActive(ctx context.Context, id int64, active bool) (rider.Rider, error)
}
