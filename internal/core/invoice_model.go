package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// InvoiceTaxRate is applied to the subtotal of every invoice.
	InvoiceTaxRate = decimal.RequireFromString("0.05")
	// InvoiceDeliveryFee is added once per invoice.
	InvoiceDeliveryFee = decimal.NewFromInt(100)
)

// InvoiceAmounts is the computed breakdown of an invoice.
type InvoiceAmounts struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Amount      decimal.Decimal `json:"amount"`
}

// ComputeInvoice derives tax, delivery and total from a subtotal, rounded to cents.
func ComputeInvoice(subtotal decimal.Decimal) InvoiceAmounts {
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(InvoiceTaxRate).Round(2)
	return InvoiceAmounts{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: InvoiceDeliveryFee,
		Amount:      subtotal.Add(tax).Add(InvoiceDeliveryFee).Round(2),
	}
}

// LegacyLine is the single-product line of an order created before order items existed.
type LegacyLine struct {
	Quantity     int
	SellingPrice decimal.Decimal
}

// OrderSubtotal sums item totals. An order without items falls back to its legacy line.
func OrderSubtotal(items []OrderItem, legacy *LegacyLine) decimal.Decimal {
	if len(items) == 0 {
		if legacy == nil {
			return decimal.Zero
		}
		return legacy.SellingPrice.Mul(decimal.NewFromInt(int64(legacy.Quantity)))
	}
	var sum decimal.Decimal
	for _, it := range items {
		sum = sum.Add(it.TotalPrice)
	}
	return sum
}

// PaymentStatus is the state of a customer invoice.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(s); st {
	case PaymentUnpaid, PaymentPaid, PaymentOverdue:
		return st, nil
	}
	return "", validationErrorf("unknown payment status %q", s)
}

// Invoice is the customer invoice of one order.
type Invoice struct {
	ID            int           `json:"id"`
	OrderID       int           `json:"order_id"`
	CustomerName  string        `json:"customer_name"` // joined from orders
	InvoiceNumber string        `json:"invoice_number"`
	InvoiceDate   time.Time     `json:"invoice_date"`
	DueDate       time.Time     `json:"due_date"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedBy     *int          `json:"created_by,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	InvoiceAmounts
}

// CreateInvoiceInput creates an invoice for an order. Nil fields take defaults.
type CreateInvoiceInput struct {
	OrderID       int
	InvoiceNumber *string    // defaults to INV-<year>-NNNN
	DueDate       *time.Time // defaults to today plus the configured due days
}

// InvoiceFilter narrows ListInvoices.
type InvoiceFilter struct {
	PaymentStatus *PaymentStatus
}

// PurchaseInvoiceStatus is the state of a supplier invoice.
type PurchaseInvoiceStatus string

const (
	PurchaseInvoicePending       PurchaseInvoiceStatus = "pending"
	PurchaseInvoicePaid          PurchaseInvoiceStatus = "paid"
	PurchaseInvoicePartiallyPaid PurchaseInvoiceStatus = "partially_paid"
	PurchaseInvoiceOverdue       PurchaseInvoiceStatus = "overdue"
)

func ParsePurchaseInvoiceStatus(s string) (PurchaseInvoiceStatus, error) {
	switch st := PurchaseInvoiceStatus(s); st {
	case PurchaseInvoicePending, PurchaseInvoicePaid, PurchaseInvoicePartiallyPaid, PurchaseInvoiceOverdue:
		return st, nil
	}
	return "", validationErrorf("unknown purchase invoice status %q", s)
}

// PurchaseInvoice is a supplier invoice against a purchase order.
type PurchaseInvoice struct {
	ID                    int                   `json:"id"`
	InvoiceNumber         string                `json:"invoice_number"`
	PurchaseOrderID       int                   `json:"purchase_order_id"`
	PONumber              string                `json:"po_number"`
	SupplierID            int                   `json:"supplier_id"`
	SupplierName          string                `json:"supplier_name"`
	SupplierInvoiceNumber string                `json:"supplier_invoice_number"`
	InvoiceDate           time.Time             `json:"invoice_date"`
	DueDate               time.Time             `json:"due_date"`
	PaymentStatus         PurchaseInvoiceStatus `json:"payment_status"`
	Notes                 string                `json:"notes"`
	PaidAt                *time.Time            `json:"paid_at,omitempty"`
	CreatedBy             *int                  `json:"created_by,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
	InvoiceAmounts
}

// CreatePurchaseInvoiceInput records a supplier invoice against a purchase order.
type CreatePurchaseInvoiceInput struct {
	POID                  int
	SupplierInvoiceNumber string
	InvoiceDate           *time.Time // defaults to today
	DueDate               time.Time
	Notes                 string
}

// PurchaseInvoiceFilter narrows ListPurchaseInvoices.
type PurchaseInvoiceFilter struct {
	PaymentStatus *PurchaseInvoiceStatus
	SupplierID    *int // ignored for supplier principals
	Search        string
}

// PurchaseInvoiceList is a filtered listing with aggregate counts over the same filter.
type PurchaseInvoiceList struct {
	Invoices     []PurchaseInvoice `json:"invoices"`
	Count        int               `json:"count"`
	PendingCount int               `json:"pending_count"`
	OverdueCount int               `json:"overdue_count"`
	TotalAmount  decimal.Decimal   `json:"total_amount"`
}

// OverdueResult counts invoices flipped to overdue.
type OverdueResult struct {
	Invoices         int `json:"invoices"`
	PurchaseInvoices int `json:"purchase_invoices"`
}

// InvoiceService manages customer and supplier invoices.
type InvoiceService interface {
	// CreateInvoice issues the single invoice of an order.
	CreateInvoice(ctx context.Context, p Principal, input CreateInvoiceInput) (*Invoice, error)
	// RecalculateInvoice recomputes an unpaid invoice from the order's current items.
	RecalculateInvoice(ctx context.Context, p Principal, invoiceID int, dueDate *time.Time) (*Invoice, error)
	MarkInvoicePaid(ctx context.Context, p Principal, invoiceID int) (*Invoice, error)
	GetInvoice(ctx context.Context, invoiceID int) (*Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)

	// CreatePurchaseInvoice records a supplier invoice with a PI-<year>-NNNN number.
	CreatePurchaseInvoice(ctx context.Context, p Principal, input CreatePurchaseInvoiceInput) (*PurchaseInvoice, error)
	MarkPurchaseInvoicePaid(ctx context.Context, p Principal, invoiceID int) (*PurchaseInvoice, error)
	GetPurchaseInvoice(ctx context.Context, p Principal, invoiceID int) (*PurchaseInvoice, error)
	ListPurchaseInvoices(ctx context.Context, p Principal, filter PurchaseInvoiceFilter) (*PurchaseInvoiceList, error)

	// MarkOverdue flips open invoices whose due date is before now to overdue.
	MarkOverdue(ctx context.Context, now time.Time) (*OverdueResult, error)
}
