package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus progresses through the state machine:
//
//	pending → approved → shipped → delivered
//	pending | approved → cancelled
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderApproved  OrderStatus = "approved"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:  {OrderApproved, OrderCancelled},
	OrderApproved: {OrderShipped, OrderCancelled},
	OrderShipped:  {OrderDelivered},
}

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderApproved, OrderShipped, OrderDelivered, OrderCancelled:
		return st, nil
	}
	return "", validationErrorf("unknown order status %q", s)
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Editable reports whether items may still be changed. Stock is committed at
// placement, so edits stop once goods leave.
func (s OrderStatus) Editable() bool {
	return s == OrderPending || s == OrderApproved
}

// CustomerInfo identifies the customer on an order.
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Order is a customer order header. Quantity, TotalValue and TotalProfit are
// denormalized over Items and recomputed whenever items change.
type Order struct {
	ID              int             `json:"id"`
	OrderDate       time.Time       `json:"order_date"`
	Status          OrderStatus     `json:"status"`
	Customer        CustomerInfo    `json:"customer"`
	Quantity        int             `json:"quantity"`
	TotalValue      decimal.Decimal `json:"total_value"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	LegacyProductID *int            `json:"legacy_product_id,omitempty"`
	OrderedBy       *int            `json:"ordered_by,omitempty"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is one order line. Prices are captured when the line is saved.
type OrderItem struct {
	ID               int             `json:"id"`
	OrderID          int             `json:"order_id"`
	ProductID        int             `json:"product_id"`
	ProductName      string          `json:"product_name"` // joined from products
	SKU              string          `json:"sku"`          // joined from products
	InventoryItemID  int             `json:"inventory_item_id"`
	Unit             Unit            `json:"unit"`
	Quantity         int             `json:"quantity"`
	UnitSellingPrice decimal.Decimal `json:"unit_selling_price"`
	UnitCostPrice    decimal.Decimal `json:"unit_cost_price"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	PriceSource      PriceSource     `json:"price_source"`
}

// OrderLineInput selects a quantity from one inventory line.
// A zero Quantity is skipped. ProductID, if set, must match the line's product.
type OrderLineInput struct {
	ProductID        *int
	InventoryItemID  int
	Quantity         int
	UnitSellingPrice *decimal.Decimal // nil means "use inventory line or product price"
}

// OrderInput is used when placing or editing an order.
type OrderInput struct {
	Customer  CustomerInfo
	OrderDate *time.Time // nil means today
	Lines     []OrderLineInput
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Status *OrderStatus
	Search string // customer name or email
}

// LineTotals returns quantity × sell and quantity × (sell − cost).
func LineTotals(qty int, sell, cost decimal.Decimal) (total, profit decimal.Decimal) {
	q := decimal.NewFromInt(int64(qty))
	return q.Mul(sell), q.Mul(sell.Sub(cost))
}

// SumOrder recomputes the order-level caches from items.
func SumOrder(items []OrderItem) (qty int, value, profit decimal.Decimal) {
	for _, it := range items {
		qty += it.Quantity
		value = value.Add(it.TotalPrice)
		profit = profit.Add(it.TotalProfit)
	}
	return qty, value, profit
}

// normalizeOrderLines drops zero-quantity lines and rejects negative or duplicate ones.
// At least one positive line must remain.
func normalizeOrderLines(lines []OrderLineInput) ([]OrderLineInput, error) {
	seen := make(map[int]bool, len(lines))
	out := make([]OrderLineInput, 0, len(lines))
	for i, l := range lines {
		if l.Quantity < 0 {
			return nil, validationErrorf("line %d: quantity cannot be negative, got %d", i+1, l.Quantity)
		}
		if l.Quantity == 0 {
			continue
		}
		if l.InventoryItemID <= 0 {
			return nil, validationErrorf("line %d: inventory item is required", i+1)
		}
		if seen[l.InventoryItemID] {
			return nil, validationErrorf("line %d: inventory item %d selected more than once", i+1, l.InventoryItemID)
		}
		if l.UnitSellingPrice != nil {
			if l.UnitSellingPrice.IsNegative() {
				return nil, validationErrorf("line %d: selling price cannot be negative", i+1)
			}
			if err := CheckAmount(fmt.Sprintf("line %d: selling price", i+1), *l.UnitSellingPrice); err != nil {
				return nil, err
			}
		}
		seen[l.InventoryItemID] = true
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil, validationErrorf("order must have at least one line with a positive quantity")
	}
	return out, nil
}

// OrderService manages the customer order lifecycle and its inventory effects.
type OrderService interface {
	// PlaceOrder creates a pending order and consumes stock for every line atomically.
	// Any shortfall aborts the whole order with *InsufficientStockError.
	PlaceOrder(ctx context.Context, p Principal, input OrderInput) (*Order, error)
	// EditOrder restores the old lines, then validates and consumes the new ones, in one
	// transaction. A failed edit leaves inventory exactly as it was.
	EditOrder(ctx context.Context, p Principal, orderID int, input OrderInput) (*Order, error)
	// UpdateOrderStatus applies a state machine transition. Moving to cancelled restores stock.
	UpdateOrderStatus(ctx context.Context, p Principal, orderID int, status OrderStatus) (*Order, error)
	// CancelOrder cancels a pending or approved order and returns its stock.
	CancelOrder(ctx context.Context, p Principal, orderID int) (*Order, error)

	GetOrder(ctx context.Context, orderID int) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
}
