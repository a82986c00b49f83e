package orders

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"lambdakit/pkg/logctx"
	"lambdakit/pkg/problem"
)

// CreateOrderRequest is the payload for creating an order
type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id" validate:"required,uuid"`
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes      string             `json:"notes,omitempty" validate:"max=500"`
}

// OrderItemRequest is one requested line item
type OrderItemRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	UnitPrice float64 `json:"unit_price" validate:"min=0"`
}

// GetOrderRequest is the payload for fetching one order
type GetOrderRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
}

// ListOrdersRequest is the payload for listing orders
type ListOrdersRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed shipped cancelled"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// CancelOrderRequest is the payload for cancelling an order
type CancelOrderRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
	Reason  string `json:"reason,omitempty" validate:"max=500"`
}

// Service holds orders in memory, keyed by ID. It stands in for a real
// repository so the request pipeline has an end to end path to exercise.
type Service struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

// NewService creates an empty order service
func NewService() *Service {
	return &Service{orders: make(map[string]*Order)}
}

// Create validates and stores a new pending order
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	items := make([]OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	order := NewOrder(req.CustomerID, items)
	order.Notes = req.Notes
	if err := order.Validate(); err != nil {
		return nil, problem.New(http.StatusUnprocessableEntity, err.Error())
	}

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()

	logctx.Logger(ctx).WithFields(logrus.Fields{
		"order_id": order.ID,
		"total":    order.Total(),
	}).Info("order created")

	return order.Clone(), nil
}

// Get retrieves an order by ID
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	s.mu.RLock()
	order, ok := s.orders[id]
	s.mu.RUnlock()

	if !ok {
		return nil, problem.New(http.StatusNotFound, "Order not found")
	}
	return order.Clone(), nil
}

// List retrieves orders, newest first, optionally filtered by status
func (s *Service) List(ctx context.Context, status OrderStatus, limit int) ([]*Order, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	matched := make([]*Order, 0, len(s.orders))
	for _, order := range s.orders {
		if status != "" && order.Status != status {
			continue
		}
		matched = append(matched, order.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// UpdateStatus moves an order to a new status, enforcing the lifecycle
func (s *Service) UpdateStatus(ctx context.Context, id string, status OrderStatus) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, problem.New(http.StatusNotFound, "Order not found")
	}
	if !order.CanTransition(status) {
		return nil, problem.Newf(http.StatusConflict, "Order is %s and cannot become %s", order.Status, status)
	}

	previous := order.Status
	order.Status = status
	order.UpdateTimestamp()

	logctx.Logger(ctx).WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       status,
	}).Info("order status changed")

	return order.Clone(), nil
}

// Cancel cancels an order that has not shipped yet
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled)
}

// Count returns the number of stored orders
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
