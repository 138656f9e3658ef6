package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/order"
	"github.com/pizzadash/dispatch/internal/service/models/orderitem"
	"github.com/pizzadash/dispatch/internal/transport/http/httpx"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, act actor.Actor, draft order.Order) (order.Order, error)
}

var validate = validator.New()

// itemInCreateOrderRequest represents a line item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID      int64  `json:"productId"      validate:"gt=0"`
	Name           string `json:"name"           validate:"required"`
	Quantity       int    `json:"quantity"       validate:"gt=0"`
	UnitPriceCents int64  `json:"unitPriceCents" validate:"gte=0"`
	SpecialRequest string `json:"specialRequest"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	CustomerName        string                     `json:"customerName"  validate:"required"`
	CustomerEmail       string                     `json:"customerEmail" validate:"required,email"`
	CustomerPhone       string                     `json:"customerPhone" validate:"required"`
	DeliveryAddress     string                     `json:"deliveryAddress"`
	DeliveryType        string                     `json:"deliveryType"  validate:"required"`
	PaymentMethod       string                     `json:"paymentMethod" validate:"required"`
	SpecialInstructions string                     `json:"specialInstructions"`
	DeliveryFeeCents    int64                      `json:"deliveryFeeCents" validate:"gte=0"`
	OrderItems          []itemInCreateOrderRequest `json:"orderItems"    validate:"required,min=1,dive"`
}

// toModel converts createOrderRequest to an order draft.
func (r *createOrderRequest) toModel() (*order.Order, error) {
	deliveryType, err := order.ParseDeliveryType(r.DeliveryType)
	if err != nil {
		return nil, err
	}
	paymentMethod, err := order.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return nil, err
	}

	items := make([]orderitem.OrderItem, 0, len(r.OrderItems))
	for _, item := range r.OrderItems {
		items = append(items, orderitem.OrderItem{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			SpecialRequest: item.SpecialRequest,
		})
	}

	return &order.Order{
		CustomerName:        r.CustomerName,
		CustomerEmail:       r.CustomerEmail,
		CustomerPhone:       r.CustomerPhone,
		DeliveryAddress:     r.DeliveryAddress,
		DeliveryType:        deliveryType,
		PaymentMethod:       paymentMethod,
		SpecialInstructions: r.SpecialInstructions,
		DeliveryFeeCents:    r.DeliveryFeeCents,
		OrderItems:          items,
	}, nil
}

// CreateOrder handles the order creation request.
func CreateOrder(w http.ResponseWriter, r *http.Request, svc service) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validationf("failed to decode request body"))
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := validate.Struct(req); err != nil {
		httpx.WriteError(w, apperr.Wrap(apperr.KindValidation, "invalid create order request", err))

		return
	}

	draft, err := req.toModel()
	if err != nil {
		httpx.WriteError(w, err)

		return
	}

	created, err := svc.CreateOrder(r.Context(), httpx.ActorFromRequest(r), *draft)
	if err != nil {
		httpx.WriteError(w, err)
		slog.Error("Error creating order", "error", err)

		return
	}

	httpx.WriteJSON(w, http.StatusCreated, created)
}
