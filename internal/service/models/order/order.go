package order

import (
	"net/mail"
	"strings"
	"time"

	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/currency"
	"github.com/pizzadash/dispatch/internal/service/models/orderitem"
)

// DeliveryType says whether the order is couriered or picked up in store.
type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
)

// ParseDeliveryType parses a delivery type string.
func ParseDeliveryType(v string) (DeliveryType, error) {
	switch DeliveryType(v) {
	case DeliveryTypeDelivery, DeliveryTypePickup:
		return DeliveryType(v), nil
	default:
		return "", apperr.Validationf("unknown delivery type %q", v)
	}
}

// PaymentMethod is how the customer pays for the order.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodPOS  PaymentMethod = "pos"
)

// ParsePaymentMethod parses a payment method string.
func ParsePaymentMethod(v string) (PaymentMethod, error) {
	switch PaymentMethod(v) {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodPOS:
		return PaymentMethod(v), nil
	default:
		return "", apperr.Validationf("unknown payment method %q", v)
	}
}

// Order represents an order in the system. It is the canonical truth for the
// delivery lifecycle: rider_id is null exactly while the order is pending or
// cancelled before assignment, dispatched_at is set once the order reaches
// in_delivery, delivered_at once it is delivered.
type Order struct {
	ID                  int64                 `json:"id"`
	OrderNumber         string                `json:"orderNumber"`
	CustomerName        string                `json:"customerName"`
	CustomerEmail       string                `json:"customerEmail"`
	CustomerPhone       string                `json:"customerPhone"`
	DeliveryAddress     string                `json:"deliveryAddress,omitempty"`
	DeliveryType        DeliveryType          `json:"deliveryType"`
	PaymentMethod       PaymentMethod         `json:"paymentMethod"`
	SpecialInstructions string                `json:"specialInstructions,omitempty"`
	DeliveryFeeCents    int64                 `json:"deliveryFeeCents"`
	TotalAmountCents    int64                 `json:"totalAmountCents"`
	Currency            currency.Currency     `json:"currency"`
	DeliveryStatus      Status                `json:"deliveryStatus"`
	RiderID             *int64                `json:"riderId,omitempty"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
	DispatchedAt        *time.Time            `json:"dispatchedAt,omitempty"`
	DeliveredAt         *time.Time            `json:"deliveredAt,omitempty"`
	OrderItems          []orderitem.OrderItem `json:"orderItems"`
}

// ComputeTotalCents returns the order total: sum of line items plus delivery
// fee plus the POS terminal surcharge when the customer pays by POS.
func ComputeTotalCents(items []orderitem.OrderItem, deliveryFeeCents int64, method PaymentMethod, posSurchargeCents int64) int64 {
	var total int64
	for _, item := range items {
		total += item.SubtotalCents()
	}

	total += deliveryFeeCents
	if method == PaymentMethodPOS {
		total += posSurchargeCents
	}

	return total
}

// ValidateDraft checks a customer-submitted order before it is stored.
// The delivery address is required only for couriered orders.
func (o *Order) ValidateDraft() error {
	if strings.TrimSpace(o.CustomerName) == "" {
		return apperr.Validationf("customer name is required")
	}
	if _, err := mail.ParseAddress(o.CustomerEmail); err != nil {
		return apperr.Validationf("customer email %q is not a valid address", o.CustomerEmail)
	}
	if strings.TrimSpace(o.CustomerPhone) == "" {
		return apperr.Validationf("customer phone is required")
	}
	if o.DeliveryType == DeliveryTypeDelivery && strings.TrimSpace(o.DeliveryAddress) == "" {
		return apperr.Validationf("delivery address is required for delivery orders")
	}
	if len(o.OrderItems) == 0 {
		return apperr.Validationf("order must contain at least one item")
	}
	if o.DeliveryFeeCents < 0 {
		return apperr.Validationf("delivery fee must not be negative")
	}
	for _, item := range o.OrderItems {
		if item.Quantity <= 0 {
			return apperr.Validationf("item %q quantity must be positive", item.Name)
		}
		if item.UnitPriceCents < 0 {
			return apperr.Validationf("item %q price must not be negative", item.Name)
		}
	}

	return nil
}
