package orders

import (
	"testing"

	"github.com/google/uuid"
)

func testItems() []OrderItem {
	return []OrderItem{
		{ProductID: "p-1", Quantity: 2, UnitPrice: 4.5},
		{ProductID: "p-2", Quantity: 1, UnitPrice: 3.0},
	}
}

func TestNewOrder(t *testing.T) {
	order := NewOrder(uuid.New().String(), testItems())

	if order.Status != StatusPending {
		t.Errorf("Expected a new order to be pending, got %s", order.Status)
	}
	if _, err := uuid.Parse(order.ID); err != nil {
		t.Errorf("Expected a generated UUID, got %q", order.ID)
	}
	if order.CreatedAt.IsZero() || order.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
	if err := order.Validate(); err != nil {
		t.Errorf("Expected a new order to be valid, got %v", err)
	}
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Order)
		wantErr bool
	}{
		{
			name:    "valid order",
			mutate:  func(o *Order) {},
			wantErr: false,
		},
		{
			name:    "missing customer",
			mutate:  func(o *Order) { o.CustomerID = "" },
			wantErr: true,
		},
		{
			name:    "no items",
			mutate:  func(o *Order) { o.Items = nil },
			wantErr: true,
		},
		{
			name:    "zero quantity",
			mutate:  func(o *Order) { o.Items[0].Quantity = 0 },
			wantErr: true,
		},
		{
			name:    "negative price",
			mutate:  func(o *Order) { o.Items[1].UnitPrice = -1 },
			wantErr: true,
		},
		{
			name:    "missing product",
			mutate:  func(o *Order) { o.Items[0].ProductID = "" },
			wantErr: true,
		},
		{
			name:    "unknown status",
			mutate:  func(o *Order) { o.Status = "returned" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := NewOrder(uuid.New().String(), testItems())
			tt.mutate(order)

			err := order.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestOrderTotal(t *testing.T) {
	order := NewOrder(uuid.New().String(), testItems())

	if got := order.Total(); got != 12.0 {
		t.Errorf("Expected total 12.0, got %f", got)
	}
}

func TestOrderTransitions(t *testing.T) {
	tests := []struct {
		from     OrderStatus
		to       OrderStatus
		allowed  bool
		terminal bool
	}{
		{StatusPending, StatusConfirmed, true, false},
		{StatusPending, StatusCancelled, true, false},
		{StatusPending, StatusShipped, false, false},
		{StatusConfirmed, StatusShipped, true, false},
		{StatusConfirmed, StatusCancelled, true, false},
		{StatusConfirmed, StatusPending, false, false},
		{StatusShipped, StatusCancelled, false, true},
		{StatusCancelled, StatusPending, false, true},
	}

	for _, tt := range tests {
		order := NewOrder(uuid.New().String(), testItems())
		order.Status = tt.from

		if got := order.CanTransition(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: expected allowed=%v, got %v", tt.from, tt.to, tt.allowed, got)
		}
		if got := order.IsTerminal(); got != tt.terminal {
			t.Errorf("%s: expected terminal=%v, got %v", tt.from, tt.terminal, got)
		}
	}
}

func TestOrderClone(t *testing.T) {
	order := NewOrder(uuid.New().String(), testItems())
	clone := order.Clone()

	clone.Items[0].Quantity = 99
	clone.Status = StatusCancelled

	if order.Items[0].Quantity != 2 {
		t.Error("Mutating the clone's items must not touch the original")
	}
	if order.Status != StatusPending {
		t.Error("Mutating the clone's status must not touch the original")
	}
}
