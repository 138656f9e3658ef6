package orderitem

import (
	"time"

	"github.com/pizzadash/dispatch/internal/service/models/currency"
)

// OrderItem represents a line item within an order.
type OrderItem struct {
	ID             int64             `json:"id"`
	OrderID        int64             `json:"orderId"`
	ProductID      int64             `json:"productId"`
	Name           string            `json:"name"`
	Quantity       int               `json:"quantity"`
	UnitPriceCents int64             `json:"unitPriceCents"`
	PriceCurrency  currency.Currency `json:"priceCurrency"`
	SpecialRequest string            `json:"specialRequest,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// SubtotalCents returns quantity * unit price.
func (i OrderItem) SubtotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}
