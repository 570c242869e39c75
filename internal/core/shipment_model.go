package core

import (
	"context"
	"time"
)

// ShipmentStatus moves forward only: dispatched → in_transit → delivered.
type ShipmentStatus string

const (
	ShipmentDispatched ShipmentStatus = "dispatched"
	ShipmentInTransit  ShipmentStatus = "in_transit"
	ShipmentDelivered  ShipmentStatus = "delivered"
)

var shipmentRank = map[ShipmentStatus]int{
	ShipmentDispatched: 0,
	ShipmentInTransit:  1,
	ShipmentDelivered:  2,
}

func ParseShipmentStatus(s string) (ShipmentStatus, error) {
	st := ShipmentStatus(s)
	if _, ok := shipmentRank[st]; !ok {
		return "", validationErrorf("unknown shipment status %q", s)
	}
	return st, nil
}

// CanAdvanceTo reports whether next is strictly later than s.
func (s ShipmentStatus) CanAdvanceTo(next ShipmentStatus) bool {
	cur, ok1 := shipmentRank[s]
	nxt, ok2 := shipmentRank[next]
	return ok1 && ok2 && nxt > cur
}

// Shipment is the single delivery of an approved order.
type Shipment struct {
	ID             int            `json:"id"`
	OrderID        int            `json:"order_id"`
	CustomerName   string         `json:"customer_name"` // joined from orders
	TrackingNumber string         `json:"tracking_number"`
	Carrier        string         `json:"carrier"`
	Status         ShipmentStatus `json:"status"`
	DispatchDate   time.Time      `json:"dispatch_date"`
	DeliveryDate   *time.Time     `json:"delivery_date,omitempty"`
	Remarks        string         `json:"remarks"`
	CreatedAt      time.Time      `json:"created_at"`
}

type CreateShipmentInput struct {
	OrderID        int
	TrackingNumber string
	Carrier        string
	DispatchDate   *time.Time // defaults to today
	Remarks        string
}

// UpdateShipmentInput changes only the non-nil fields.
type UpdateShipmentInput struct {
	Status       *ShipmentStatus
	Carrier      *string
	DeliveryDate *time.Time // defaults to today when the status becomes delivered
	Remarks      *string
}

type ShipmentFilter struct {
	Status *ShipmentStatus
}

// ShipmentService dispatches approved orders and tracks them to delivery.
type ShipmentService interface {
	// CreateShipment dispatches an approved order and moves it to shipped.
	CreateShipment(ctx context.Context, p Principal, input CreateShipmentInput) (*Shipment, error)
	// UpdateShipment advances the status or edits details. Delivery moves the order to delivered.
	UpdateShipment(ctx context.Context, p Principal, shipmentID int, input UpdateShipmentInput) (*Shipment, error)
	GetShipment(ctx context.Context, shipmentID int) (*Shipment, error)
	ListShipments(ctx context.Context, filter ShipmentFilter) ([]Shipment, error)
}
