package app

import (
	"context"
	"time"

	"backoffice/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It validates requests, threads the caller's Principal into the core and keeps
// the inventory cache coherent. Implementations contain no display logic.
type ApplicationService interface {
	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, req LoginRequest) (*UserSession, error)

	// BuildPrincipal loads a user and, for supplier users, the linked supplier id.
	BuildPrincipal(ctx context.Context, userID int) (core.Principal, error)

	// GetUser returns a user profile by ID.
	GetUser(ctx context.Context, userID int) (*core.User, error)

	// CreateUser stores a new user. Only admins may create users.
	CreateUser(ctx context.Context, p core.Principal, req CreateUserRequest) (*core.User, error)

	// Catalog
	CreateCategory(ctx context.Context, p core.Principal, req CategoryRequest) (*core.Category, error)
	ListCategories(ctx context.Context, p core.Principal) ([]core.Category, error)
	CreateProduct(ctx context.Context, p core.Principal, req ProductRequest) (*ProductResult, error)
	UpdateProduct(ctx context.Context, p core.Principal, productID int, req ProductRequest) (*ProductResult, error)
	GetProduct(ctx context.Context, p core.Principal, productID int) (*ProductResult, error)
	ListProducts(ctx context.Context, p core.Principal, req ProductListRequest) ([]ProductResult, error)

	// Inventory. ListInventory is served from the cache when enabled.
	ListInventory(ctx context.Context, p core.Principal, productID *int) ([]core.InventoryItem, error)
	GetStock(ctx context.Context, p core.Principal) (*StockResult, error)
	GetInventoryItem(ctx context.Context, p core.Principal, itemID int) (*core.InventoryItem, error)
	AddInventory(ctx context.Context, p core.Principal, req AddInventoryRequest) (*core.InventoryItem, error)
	AdjustInventory(ctx context.Context, p core.Principal, itemID int, req AdjustInventoryRequest) (*core.InventoryItem, error)
	ListMovements(ctx context.Context, p core.Principal, itemID int) ([]core.InventoryMovement, error)

	// Orders. Every mutation returns the order with its recomputed totals.
	PlaceOrder(ctx context.Context, p core.Principal, req OrderRequest) (*OrderResult, error)
	EditOrder(ctx context.Context, p core.Principal, orderID int, req OrderRequest) (*OrderResult, error)
	UpdateOrderStatus(ctx context.Context, p core.Principal, orderID int, req OrderStatusRequest) (*OrderResult, error)
	CancelOrder(ctx context.Context, p core.Principal, orderID int) (*OrderResult, error)
	GetOrder(ctx context.Context, p core.Principal, orderID int) (*OrderResult, error)
	ListOrders(ctx context.Context, p core.Principal, req OrderListRequest) ([]core.Order, error)

	// Profit ledger
	ListLedger(ctx context.Context, p core.Principal, req LedgerListRequest) ([]core.LedgerEntry, error)
	ProductProfit(ctx context.Context, p core.Principal) ([]core.ProductProfit, error)

	// Suppliers
	CreateSupplier(ctx context.Context, p core.Principal, req SupplierRequest) (*core.Supplier, error)
	UpdateSupplier(ctx context.Context, p core.Principal, supplierID int, req SupplierRequest) (*core.Supplier, error)
	GetSupplier(ctx context.Context, p core.Principal, supplierID int) (*core.Supplier, error)
	ListSuppliers(ctx context.Context, p core.Principal) ([]core.Supplier, error)

	// Purchasing
	CreatePurchaseOrder(ctx context.Context, p core.Principal, req CreatePORequest) (*core.PurchaseOrder, error)
	SendPurchaseOrder(ctx context.Context, p core.Principal, poID int) (*core.PurchaseOrder, error)
	ConfirmPurchaseOrder(ctx context.Context, p core.Principal, poID int) (*core.PurchaseOrder, error)
	CancelPurchaseOrder(ctx context.Context, p core.Principal, poID int) (*core.PurchaseOrder, error)
	ReceiveGoods(ctx context.Context, p core.Principal, poID int, req ReceiveGoodsRequest) (*ReceiptResult, error)
	GetPurchaseOrder(ctx context.Context, p core.Principal, poID int) (*core.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, p core.Principal, req POListRequest) (*core.POPage, error)
	PurchaseSummary(ctx context.Context, p core.Principal) (*core.PurchaseSummary, error)
	GetReceipt(ctx context.Context, p core.Principal, receiptID int) (*core.GoodsReceipt, error)
	ListReceipts(ctx context.Context, p core.Principal, req ReceiptListRequest) ([]core.GoodsReceipt, error)

	// Invoicing
	CreateInvoice(ctx context.Context, p core.Principal, req CreateInvoiceRequest) (*core.Invoice, error)
	RecalculateInvoice(ctx context.Context, p core.Principal, invoiceID int, req RecalculateInvoiceRequest) (*core.Invoice, error)
	PayInvoice(ctx context.Context, p core.Principal, invoiceID int) (*core.Invoice, error)
	GetInvoice(ctx context.Context, p core.Principal, invoiceID int) (*core.Invoice, error)
	ListInvoices(ctx context.Context, p core.Principal, req InvoiceListRequest) ([]core.Invoice, error)
	CreatePurchaseInvoice(ctx context.Context, p core.Principal, poID int, req PurchaseInvoiceRequest) (*core.PurchaseInvoice, error)
	PayPurchaseInvoice(ctx context.Context, p core.Principal, invoiceID int) (*core.PurchaseInvoice, error)
	ListPurchaseInvoices(ctx context.Context, p core.Principal, req PurchaseInvoiceListRequest) (*core.PurchaseInvoiceList, error)

	// MarkOverdueInvoices flips open invoices past their due date to overdue.
	MarkOverdueInvoices(ctx context.Context, now time.Time) (*core.OverdueResult, error)

	// Shipments
	CreateShipment(ctx context.Context, p core.Principal, req CreateShipmentRequest) (*core.Shipment, error)
	UpdateShipment(ctx context.Context, p core.Principal, shipmentID int, req UpdateShipmentRequest) (*core.Shipment, error)
	GetShipment(ctx context.Context, p core.Principal, shipmentID int) (*core.Shipment, error)
	ListShipments(ctx context.Context, p core.Principal, req ShipmentListRequest) ([]core.Shipment, error)
}
