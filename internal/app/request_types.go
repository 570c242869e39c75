package app

import (
	"github.com/shopspring/decimal"
)

// Dates in requests are calendar dates in YYYY-MM-DD form. Empty means the
// operation's default (usually today).

// LoginRequest is the input for AuthenticateUser.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateUserRequest is the input for creating a user.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"omitempty,max=254,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin manager staff supplier"`
}

// CategoryRequest is the input for creating a category.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ProductRequest is the input for creating or updating a product.
type ProductRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	SKU          string          `json:"sku" validate:"required,max=50"`
	CategoryID   *int            `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	CostPrice    decimal.Decimal `json:"cost_price" validate:"gte=0,money"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"gte=0,money"`
}

// ProductListRequest filters ListProducts.
type ProductListRequest struct {
	CategoryID *int   `json:"category_id,omitempty"`
	Search     string `json:"search,omitempty"`
}

// AddInventoryRequest is a manual stock-in against a (product, unit) line.
type AddInventoryRequest struct {
	ProductID        int              `json:"product_id" validate:"required,gt=0"`
	Unit             string           `json:"unit" validate:"required"`
	Quantity         int              `json:"quantity" validate:"gte=0"`
	Description      string           `json:"description,omitempty"`
	Location         string           `json:"location,omitempty" validate:"max=255"`
	UnitCostPrice    *decimal.Decimal `json:"unit_cost_price,omitempty" validate:"omitempty,gte=0,money"`
	UnitSellingPrice *decimal.Decimal `json:"unit_selling_price,omitempty" validate:"omitempty,gte=0,money"`
}

// AdjustInventoryRequest applies a signed delta to one inventory line.
type AdjustInventoryRequest struct {
	Delta int    `json:"delta" validate:"required"`
	Notes string `json:"notes" validate:"required,max=500"`
}

// CustomerRequest carries the customer identity of an order.
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email,omitempty" validate:"omitempty,max=254,email"`
	Phone   string `json:"phone,omitempty" validate:"max=20"`
	Address string `json:"address,omitempty"`
}

// OrderLineRequest selects a quantity from one inventory line. Zero quantities are skipped.
type OrderLineRequest struct {
	ProductID        *int             `json:"product_id,omitempty" validate:"omitempty,gt=0"`
	InventoryItemID  int              `json:"inventory_item_id" validate:"required,gt=0"`
	Quantity         int              `json:"quantity" validate:"gte=0"`
	UnitSellingPrice *decimal.Decimal `json:"unit_selling_price,omitempty" validate:"omitempty,gte=0,money"`
}

// OrderRequest is the input for placing or editing an order.
type OrderRequest struct {
	Customer  CustomerRequest    `json:"customer"`
	OrderDate string             `json:"order_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Lines     []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// OrderStatusRequest moves an order through its state machine.
type OrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved shipped delivered cancelled"`
}

// OrderListRequest filters ListOrders.
type OrderListRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=pending approved shipped delivered cancelled"`
	Search string `json:"search,omitempty"`
}

// LedgerListRequest filters ListLedger.
type LedgerListRequest struct {
	ProductID *int   `json:"product_id,omitempty"`
	From      string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To        string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// SupplierRequest is the input for creating or updating a supplier.
type SupplierRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contact_person,omitempty" validate:"max=100"`
	Email         string `json:"email,omitempty" validate:"omitempty,max=254,email"`
	Phone         string `json:"phone,omitempty" validate:"max=20"`
	Address       string `json:"address,omitempty"`
	UserID        *int   `json:"user_id,omitempty" validate:"omitempty,gt=0"`
}

// POLineRequest is one purchase line. Zero quantities are skipped.
type POLineRequest struct {
	ProductID        int              `json:"product_id" validate:"required,gt=0"`
	Quantity         int              `json:"quantity" validate:"gte=0"`
	UnitPrice        decimal.Decimal  `json:"unit_price" validate:"gte=0,money"`
	UnitType         string           `json:"unit_type" validate:"required"`
	UnitSellingPrice *decimal.Decimal `json:"unit_selling_price,omitempty" validate:"omitempty,gte=0,money"`
}

// CreatePORequest is the input for creating a draft purchase order.
type CreatePORequest struct {
	SupplierID           int             `json:"supplier_id" validate:"required,gt=0"`
	ExpectedDeliveryDate string          `json:"expected_delivery_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes                string          `json:"notes,omitempty"`
	Lines                []POLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReceiveLineRequest books a quantity against one purchase order item.
type ReceiveLineRequest struct {
	POItemID int `json:"po_item_id" validate:"required,gt=0"`
	Quantity int `json:"quantity" validate:"gte=0"`
}

// ReceiveGoodsRequest is one goods receipt against a purchase order.
type ReceiveGoodsRequest struct {
	Lines []ReceiveLineRequest `json:"lines" validate:"required,min=1,dive"`
	Notes string               `json:"notes,omitempty"`
}

// POListRequest filters ListPurchaseOrders. Page is 1-based.
type POListRequest struct {
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=draft sent confirmed partially_received received cancelled"`
	SupplierID *int   `json:"supplier_id,omitempty"`
	Search     string `json:"search,omitempty"`
	Page       int    `json:"page,omitempty" validate:"gte=0"`
	PageSize   int    `json:"page_size,omitempty" validate:"gte=0,lte=100"`
}

// ReceiptListRequest filters ListReceipts.
type ReceiptListRequest struct {
	SupplierID *int   `json:"supplier_id,omitempty"`
	Since      string `json:"since,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Search     string `json:"search,omitempty"`
}

// CreateInvoiceRequest issues the invoice of an order.
type CreateInvoiceRequest struct {
	OrderID       int     `json:"order_id" validate:"required,gt=0"`
	InvoiceNumber *string `json:"invoice_number,omitempty" validate:"omitempty,max=30"`
	DueDate       string  `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// RecalculateInvoiceRequest recomputes an unpaid invoice, optionally moving its due date.
type RecalculateInvoiceRequest struct {
	DueDate string `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// InvoiceListRequest filters ListInvoices.
type InvoiceListRequest struct {
	PaymentStatus string `json:"payment_status,omitempty" validate:"omitempty,oneof=unpaid paid overdue"`
}

// PurchaseInvoiceRequest records a supplier invoice against a purchase order.
type PurchaseInvoiceRequest struct {
	SupplierInvoiceNumber string `json:"supplier_invoice_number" validate:"required,max=50"`
	InvoiceDate           string `json:"invoice_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate               string `json:"due_date" validate:"required,datetime=2006-01-02"`
	Notes                 string `json:"notes,omitempty"`
}

// PurchaseInvoiceListRequest filters ListPurchaseInvoices.
type PurchaseInvoiceListRequest struct {
	PaymentStatus string `json:"payment_status,omitempty" validate:"omitempty,oneof=pending paid partially_paid overdue"`
	SupplierID    *int   `json:"supplier_id,omitempty"`
	Search        string `json:"search,omitempty"`
}

// CreateShipmentRequest dispatches an approved order.
type CreateShipmentRequest struct {
	OrderID        int    `json:"order_id" validate:"required,gt=0"`
	TrackingNumber string `json:"tracking_number" validate:"required,max=100"`
	Carrier        string `json:"carrier,omitempty" validate:"max=100"`
	DispatchDate   string `json:"dispatch_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Remarks        string `json:"remarks,omitempty"`
}

// UpdateShipmentRequest changes only the fields that are set.
type UpdateShipmentRequest struct {
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=dispatched in_transit delivered"`
	Carrier      *string `json:"carrier,omitempty" validate:"omitempty,max=100"`
	DeliveryDate string  `json:"delivery_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Remarks      *string `json:"remarks,omitempty"`
}

// ShipmentListRequest filters ListShipments.
type ShipmentListRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=dispatched in_transit delivered"`
}
