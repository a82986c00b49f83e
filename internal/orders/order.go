package orders

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusCancelled OrderStatus = "cancelled"
)

// transitions lists the states each status may move to.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {},
	StatusCancelled: {},
}

// Order represents a customer order
type Order struct {
	ID         string      `json:"id" validate:"required,uuid"`
	CustomerID string      `json:"customer_id" validate:"required,uuid"`
	Status     OrderStatus `json:"status" validate:"required,oneof=pending confirmed shipped cancelled"`
	Items      []OrderItem `json:"items" validate:"required,min=1,dive"`
	Notes      string      `json:"notes,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderItem represents one line of an order
type OrderItem struct {
	ProductID string  `json:"product_id" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	UnitPrice float64 `json:"unit_price" validate:"min=0"`
}

// NewOrder creates a new pending order with generated ID and timestamps
func NewOrder(customerID string, items []OrderItem) *Order {
	now := time.Now()
	return &Order{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Status:     StatusPending,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate validates the order data
func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("order ID is required")
	}
	if o.CustomerID == "" {
		return fmt.Errorf("customer ID is required")
	}
	if _, ok := transitions[o.Status]; !ok {
		return fmt.Errorf("invalid order status: %s", o.Status)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("order must have at least one item")
	}
	for i, item := range o.Items {
		if item.ProductID == "" {
			return fmt.Errorf("item %d: product ID is required", i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive", i)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("item %d: unit price cannot be negative", i)
		}
	}
	return nil
}

// Total returns the order total across all items
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}

// CanTransition reports whether the order may move to the given status
func (o *Order) CanTransition(to OrderStatus) bool {
	for _, allowed := range transitions[o.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order reached a final status
func (o *Order) IsTerminal() bool {
	return len(transitions[o.Status]) == 0
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (o *Order) UpdateTimestamp() {
	o.UpdatedAt = time.Now()
}

// Clone returns a deep copy of the order
func (o *Order) Clone() *Order {
	clone := *o
	clone.Items = make([]OrderItem, len(o.Items))
	copy(clone.Items, o.Items)
	return &clone
}
