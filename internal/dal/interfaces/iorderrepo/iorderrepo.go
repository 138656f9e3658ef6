package iorderrepo

import (
	"context"
	"errors"
	"time"

	"github.com/pizzadash/dispatch/internal/service/models/order"
)

// ErrNotUpdated is returned by UpdateStatus when no row matched the
// optimistic-concurrency check: the order is absent or its status is no
// longer the expected one. The caller re-reads to tell those apart.
var ErrNotUpdated = errors.New("order status not updated")

// UpdateStatusModel carries a compare-and-set status transition plus the
// side fields written together with it.
type UpdateStatusModel struct {
	OrderID      int64
	FromExpected order.Status
	To           order.Status
	RiderID      *int64
	DispatchedAt *time.Time
	DeliveredAt  *time.Time
}

// IOrderRepository is an interface for the order postgres repository.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	Get(ctx context.Context, id int64) (order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	UpdateStatus(ctx context.Context, model UpdateStatusModel) (order.Order, error)
}
