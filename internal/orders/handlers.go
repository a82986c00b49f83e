package orders

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"lambdakit/pkg/lambda"
	"lambdakit/pkg/logctx"
)

// Handlers exposes the order operations in the shapes the pipeline
// entrypoints consume.
type Handlers struct {
	service *Service
}

// NewHandlers creates handlers backed by the given service
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// Create handles order creation requests
func (h *Handlers) Create(ctx context.Context, req CreateOrderRequest) (*lambda.Response, error) {
	order, err := h.service.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return &lambda.Response{StatusCode: http.StatusCreated, Body: order}, nil
}

// Get handles single order lookups
func (h *Handlers) Get(ctx context.Context, req GetOrderRequest) (*lambda.Response, error) {
	order, err := h.service.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	return &lambda.Response{Body: order}, nil
}

// List handles order listing requests
func (h *Handlers) List(ctx context.Context, req ListOrdersRequest) (*lambda.Response, error) {
	matched, err := h.service.List(ctx, OrderStatus(req.Status), req.Limit)
	if err != nil {
		return nil, err
	}
	return &lambda.Response{Body: map[string]any{
		"orders": matched,
		"count":  len(matched),
	}}, nil
}

// Cancel handles order cancellation requests
func (h *Handlers) Cancel(ctx context.Context, req CancelOrderRequest) (*lambda.Response, error) {
	order, err := h.service.Cancel(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if req.Reason != "" {
		logctx.Logger(ctx).WithFields(logrus.Fields{
			"order_id": order.ID,
			"reason":   req.Reason,
		}).Info("order cancelled")
	}
	return &lambda.Response{Body: order}, nil
}

// ShipmentMessage is the queue payload asking for an order to ship
type ShipmentMessage struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
	Carrier string `json:"carrier" validate:"required"`
}

// Ship marks a confirmed order as shipped. It is consumed from the
// shipment queue one record at a time.
func (h *Handlers) Ship(ctx context.Context, item lambda.BatchItem[ShipmentMessage]) error {
	order, err := h.service.UpdateStatus(ctx, item.Body.OrderID, StatusShipped)
	if err != nil {
		return err
	}
	logctx.Logger(ctx).WithFields(logrus.Fields{
		"order_id": order.ID,
		"carrier":  item.Body.Carrier,
	}).Info("order shipped")
	return nil
}

// PaymentCapturedDetail is the bus event confirming an order's payment
type PaymentCapturedDetail struct {
	OrderID   string  `json:"order_id" validate:"required,uuid"`
	Amount    float64 `json:"amount" validate:"min=0"`
	Reference string  `json:"reference,omitempty"`
}

// Confirm moves a paid order from pending to confirmed
func (h *Handlers) Confirm(ctx context.Context, detail PaymentCapturedDetail) error {
	_, err := h.service.UpdateStatus(ctx, detail.OrderID, StatusConfirmed)
	return err
}
