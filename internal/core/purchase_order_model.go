package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// POStatus is the purchase order lifecycle state:
//
//	draft → sent → confirmed → partially_received → received
//	draft | sent | confirmed | partially_received → cancelled
type POStatus string

const (
	PODraft             POStatus = "draft"
	POSent              POStatus = "sent"
	POConfirmed         POStatus = "confirmed"
	POPartiallyReceived POStatus = "partially_received"
	POReceived          POStatus = "received"
	POCancelled         POStatus = "cancelled"
)

var poTransitions = map[POStatus][]POStatus{
	PODraft:             {POSent, POCancelled},
	POSent:              {POConfirmed, POCancelled},
	POConfirmed:         {POPartiallyReceived, POReceived, POCancelled},
	POPartiallyReceived: {POPartiallyReceived, POReceived, POCancelled},
}

// ParsePOStatus validates a status string.
func ParsePOStatus(s string) (POStatus, error) {
	switch st := POStatus(s); st {
	case PODraft, POSent, POConfirmed, POPartiallyReceived, POReceived, POCancelled:
		return st, nil
	}
	return "", validationErrorf("unknown purchase order status %q", s)
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s POStatus) CanTransitionTo(next POStatus) bool {
	for _, t := range poTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s POStatus) IsTerminal() bool {
	return s == POReceived || s == POCancelled
}

// Receivable reports whether goods may be received against a PO in this state.
func (s POStatus) Receivable() bool {
	return s == POConfirmed || s == POPartiallyReceived
}

// OverReceiptPolicy decides what happens when a receipt exceeds the pending quantity.
type OverReceiptPolicy string

const (
	// OverReceiptReject fails the whole receipt.
	OverReceiptReject OverReceiptPolicy = "reject"
	// OverReceiptClamp accepts only the pending quantity.
	OverReceiptClamp OverReceiptPolicy = "clamp"
)

// ParseOverReceiptPolicy validates a policy name. Empty means reject.
func ParseOverReceiptPolicy(s string) (OverReceiptPolicy, error) {
	switch p := OverReceiptPolicy(s); p {
	case "":
		return OverReceiptReject, nil
	case OverReceiptReject, OverReceiptClamp:
		return p, nil
	}
	return "", validationErrorf("unknown over-receipt policy %q", s)
}

// Accept returns the quantity to book for a line with the given ordered and already
// received quantities. Under reject, a request above the pending amount is an error.
func (p OverReceiptPolicy) Accept(ordered, received, requested int) (int, error) {
	pending := max(ordered-received, 0)
	if requested <= pending {
		return requested, nil
	}
	if p == OverReceiptClamp {
		return pending, nil
	}
	return 0, validationErrorf("cannot receive %d: ordered %d, already received %d, pending %d",
		requested, ordered, received, pending)
}

// PurchaseOrder is a purchase order header with its items.
type PurchaseOrder struct {
	ID                   int                 `json:"id"`
	PONumber             string              `json:"po_number"`
	SupplierID           int                 `json:"supplier_id"`
	SupplierName         string              `json:"supplier_name"` // joined from suppliers
	CreatedBy            *int                `json:"created_by,omitempty"`
	Status               POStatus            `json:"status"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
	Notes                string              `json:"notes"`
	TotalAmount          decimal.Decimal     `json:"total_amount"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	SentAt               *time.Time          `json:"sent_at,omitempty"`
	ConfirmedAt          *time.Time          `json:"confirmed_at,omitempty"`
	ReceivedAt           *time.Time          `json:"received_at,omitempty"`
	CancelledAt          *time.Time          `json:"cancelled_at,omitempty"`
	Items                []PurchaseOrderItem `json:"items,omitempty"`
}

// PurchaseOrderItem is one ordered line. QuantityReceived never exceeds QuantityOrdered.
type PurchaseOrderItem struct {
	ID               int              `json:"id"`
	PurchaseOrderID  int              `json:"purchase_order_id"`
	LineNumber       int              `json:"line_number"`
	ProductID        int              `json:"product_id"`
	ProductName      string           `json:"product_name"`
	SKU              string           `json:"sku"`
	UnitType         Unit             `json:"unit_type"`
	QuantityOrdered  int              `json:"quantity_ordered"`
	QuantityReceived int              `json:"quantity_received"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	UnitSellingPrice *decimal.Decimal `json:"unit_selling_price,omitempty"`
	TotalPrice       decimal.Decimal  `json:"total_price"`
}

// PendingQuantity is the amount still expected on this line.
func (i PurchaseOrderItem) PendingQuantity() int {
	return max(i.QuantityOrdered-i.QuantityReceived, 0)
}

// ReceiptStatus returns received when every item is fully received, otherwise partially_received.
func ReceiptStatus(items []PurchaseOrderItem) POStatus {
	for _, it := range items {
		if it.QuantityReceived < it.QuantityOrdered {
			return POPartiallyReceived
		}
	}
	return POReceived
}

// POLineInput is one requested purchase line. A zero Quantity is skipped.
type POLineInput struct {
	ProductID        int
	Quantity         int
	UnitPrice        decimal.Decimal
	UnitType         string
	UnitSellingPrice *decimal.Decimal
}

// CreatePOInput holds the fields required to create a draft purchase order.
type CreatePOInput struct {
	SupplierID           int
	ExpectedDeliveryDate *time.Time
	Notes                string
	Lines                []POLineInput
}

// ReceiveLineInput books Quantity against one purchase order item.
type ReceiveLineInput struct {
	POItemID int
	Quantity int
}

// ReceiveInput is one goods receipt against a purchase order.
type ReceiveInput struct {
	Lines []ReceiveLineInput
	Notes string
}

// GoodsReceipt records one delivery against a purchase order.
type GoodsReceipt struct {
	ID              int                `json:"id"`
	ReceiptNumber   string             `json:"receipt_number"`
	PurchaseOrderID int                `json:"purchase_order_id"`
	PONumber        string             `json:"po_number"`
	SupplierID      int                `json:"supplier_id"`
	SupplierName    string             `json:"supplier_name"`
	ReceivedBy      *int               `json:"received_by,omitempty"`
	ReceivedAt      time.Time          `json:"received_at"`
	Notes           string             `json:"notes"`
	Items           []GoodsReceiptItem `json:"items,omitempty"`
}

// GoodsReceiptItem is the accepted quantity for one purchase order item.
type GoodsReceiptItem struct {
	ID                  int    `json:"id"`
	GoodsReceiptID      int    `json:"goods_receipt_id"`
	PurchaseOrderItemID int    `json:"purchase_order_item_id"`
	InventoryItemID     int    `json:"inventory_item_id"`
	ProductID           int    `json:"product_id"`
	ProductName         string `json:"product_name"`
	Unit                Unit   `json:"unit"`
	QuantityReceived    int    `json:"quantity_received"`
}

// POFilter narrows ListPOs. Page is 1-based.
type POFilter struct {
	Status     *POStatus
	SupplierID *int // ignored for supplier principals
	Search     string
	Page       int
	PageSize   int
}

// POPage is one page of purchase orders.
type POPage struct {
	Orders   []PurchaseOrder `json:"orders"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

const (
	defaultPOPageSize = 20
	maxPOPageSize     = 100
)

// ReceiptFilter narrows ListReceipts.
type ReceiptFilter struct {
	SupplierID *int
	Since      *time.Time
	Search     string
}

// PurchaseSummary counts purchase orders for a dashboard. Staff see the first
// group; suppliers see the second, limited to their own orders.
type PurchaseSummary struct {
	Total           int `json:"total"`
	Pending         int `json:"pending,omitempty"`
	AwaitingReceipt int `json:"awaiting_receipt,omitempty"`
	PendingInvoices int `json:"pending_invoices,omitempty"`

	AwaitingConfirmation int `json:"awaiting_confirmation,omitempty"`
	Confirmed            int `json:"confirmed,omitempty"`
	Completed            int `json:"completed,omitempty"`
}

// PurchaseOrderService provides purchase order lifecycle operations.
type PurchaseOrderService interface {
	// CreatePO creates a draft purchase order with a generated PO-<year>-NNNN number.
	CreatePO(ctx context.Context, p Principal, input CreatePOInput) (*PurchaseOrder, error)

	// SendPO moves a draft PO to sent.
	SendPO(ctx context.Context, p Principal, poID int) (*PurchaseOrder, error)

	// ConfirmPO moves a sent PO to confirmed. Suppliers may confirm only their own.
	ConfirmPO(ctx context.Context, p Principal, poID int) (*PurchaseOrder, error)

	// CancelPO cancels a PO that is not yet received or cancelled.
	CancelPO(ctx context.Context, p Principal, poID int) (*PurchaseOrder, error)

	// ReceiveGoods books a goods receipt: it raises quantity_received, stocks inventory per
	// (product, unit) and moves the PO to partially_received or received, all in one transaction.
	ReceiveGoods(ctx context.Context, p Principal, poID int, input ReceiveInput) (*GoodsReceipt, *PurchaseOrder, error)

	GetPO(ctx context.Context, p Principal, poID int) (*PurchaseOrder, error)
	ListPOs(ctx context.Context, p Principal, filter POFilter) (*POPage, error)
	GetReceipt(ctx context.Context, p Principal, receiptID int) (*GoodsReceipt, error)
	ListReceipts(ctx context.Context, p Principal, filter ReceiptFilter) ([]GoodsReceipt, error)
	PurchaseSummary(ctx context.Context, p Principal) (*PurchaseSummary, error)
}
