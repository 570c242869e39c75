package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/cache"
	"backoffice/internal/core"
	"backoffice/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Services bundles the core services the application layer orchestrates.
type Services struct {
	Users      core.UserService
	Catalog    core.CatalogService
	Inventory  core.InventoryService
	Orders     core.OrderService
	Ledger     *core.Ledger
	Suppliers  core.SupplierService
	Purchasing core.PurchaseOrderService
	Invoices   core.InvoiceService
	Shipments  core.ShipmentService
}

// NewServices wires the PostgreSQL-backed core services.
func NewServices(pool *pgxpool.Pool, policy core.OverReceiptPolicy, invoiceDueDays int, clock core.Clock) Services {
	inventory := core.NewInventoryService(pool)
	ledger := core.NewLedger(pool)
	return Services{
		Users:      core.NewUserService(pool),
		Catalog:    core.NewCatalogService(pool),
		Inventory:  inventory,
		Orders:     core.NewOrderService(pool, inventory, ledger, clock),
		Ledger:     ledger,
		Suppliers:  core.NewSupplierService(pool),
		Purchasing: core.NewPurchaseOrderService(pool, inventory, policy, clock),
		Invoices:   core.NewInvoiceService(pool, clock, invoiceDueDays),
		Shipments:  core.NewShipmentService(pool, clock),
	}
}

type appService struct {
	svc   Services
	cache cache.InventoryCache
}

// NewAppService constructs an appService that satisfies ApplicationService.
// A nil cache disables inventory caching.
func NewAppService(svc Services, inventoryCache cache.InventoryCache) ApplicationService {
	if inventoryCache == nil {
		inventoryCache = cache.NewNoopInventoryCache()
	}
	return &appService{svc: svc, cache: inventoryCache}
}

// invalidateInventory drops cached listings after stock moved. A cache failure
// is logged and never fails the mutation that already committed.
func (s *appService) invalidateInventory(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		logger.Log.Warn().Err(err).Msg("failed to invalidate inventory cache")
	}
}

// ── Users ────────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateUser(ctx context.Context, req LoginRequest) (*UserSession, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	user, err := s.svc.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	p, err := s.principalFor(ctx, user)
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Int("user_id", user.ID).Str("role", string(user.Role)).Msg("user authenticated")
	return &UserSession{UserID: p.UserID, Username: p.Username, Role: p.Role, SupplierID: p.SupplierID}, nil
}

func (s *appService) BuildPrincipal(ctx context.Context, userID int) (core.Principal, error) {
	user, err := s.svc.Users.GetByID(ctx, userID)
	if err != nil {
		return core.Principal{}, err
	}
	if !user.IsActive {
		return core.Principal{}, fmt.Errorf("%w: user %s is inactive", core.ErrForbidden, user.Username)
	}
	return s.principalFor(ctx, user)
}

func (s *appService) principalFor(ctx context.Context, user *core.User) (core.Principal, error) {
	p := core.Principal{UserID: user.ID, Username: user.Username, Role: user.Role}
	if user.Role != core.RoleSupplier {
		return p, nil
	}
	// An unlinked supplier user stays a principal without a supplier; core rejects
	// it wherever supplier ownership matters.
	supplier, err := s.svc.Suppliers.SupplierForUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return p, nil
		}
		return core.Principal{}, err
	}
	p.SupplierID = &supplier.ID
	return p, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	return s.svc.Users.GetByID(ctx, userID)
}

func (s *appService) CreateUser(ctx context.Context, p core.Principal, req CreateUserRequest) (*core.User, error) {
	if err := p.Require(core.ActionManageUsers); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	role, err := core.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	user, err := s.svc.Users.CreateUser(ctx, core.CreateUserInput{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Int("user_id", user.ID).Str("role", string(role)).Msg("user created")
	return user, nil
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (s *appService) CreateCategory(ctx context.Context, p core.Principal, req CategoryRequest) (*core.Category, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.svc.Catalog.CreateCategory(ctx, p, req.Name)
}

func (s *appService) ListCategories(ctx context.Context, p core.Principal) ([]core.Category, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	return s.svc.Catalog.ListCategories(ctx)
}

func productInput(req ProductRequest) core.ProductInput {
	return core.ProductInput{
		Name:         req.Name,
		SKU:          req.SKU,
		CategoryID:   req.CategoryID,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
	}
}

func (s *appService) CreateProduct(ctx context.Context, p core.Principal, req ProductRequest) (*ProductResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	product, err := s.svc.Catalog.CreateProduct(ctx, p, productInput(req))
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Int("product_id", product.ID).Str("sku", product.SKU).Msg("product created")
	res := newProductResult(*product)
	return &res, nil
}

func (s *appService) UpdateProduct(ctx context.Context, p core.Principal, productID int, req ProductRequest) (*ProductResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	product, err := s.svc.Catalog.UpdateProduct(ctx, p, productID, productInput(req))
	if err != nil {
		return nil, err
	}
	// Effective prices of lines without overrides follow the product.
	s.invalidateInventory(ctx)
	res := newProductResult(*product)
	return &res, nil
}

func (s *appService) GetProduct(ctx context.Context, p core.Principal, productID int) (*ProductResult, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	product, err := s.svc.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	res := newProductResult(*product)
	return &res, nil
}

func (s *appService) ListProducts(ctx context.Context, p core.Principal, req ProductListRequest) ([]ProductResult, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	products, err := s.svc.Catalog.ListProducts(ctx, core.ProductFilter{CategoryID: req.CategoryID, Search: req.Search})
	if err != nil {
		return nil, err
	}
	out := make([]ProductResult, len(products))
	for i, prod := range products {
		out[i] = newProductResult(prod)
	}
	return out, nil
}

// ── Inventory ────────────────────────────────────────────────────────────────

func (s *appService) ListInventory(ctx context.Context, p core.Principal, productID *int) ([]core.InventoryItem, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	filter := core.InventoryFilter{ProductID: productID}
	if items, hit, err := s.cache.GetItems(ctx, filter); err != nil {
		logger.Log.Warn().Err(err).Msg("inventory cache read failed")
	} else if hit {
		return items, nil
	}

	items, err := s.svc.Inventory.ListItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetItems(ctx, filter, items); err != nil {
		logger.Log.Warn().Err(err).Msg("inventory cache write failed")
	}
	return items, nil
}

func (s *appService) GetStock(ctx context.Context, p core.Principal) (*StockResult, error) {
	items, err := s.ListInventory(ctx, p, nil)
	if err != nil {
		return nil, err
	}
	return newStockResult(items), nil
}

func (s *appService) GetInventoryItem(ctx context.Context, p core.Principal, itemID int) (*core.InventoryItem, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	return s.svc.Inventory.GetItem(ctx, itemID)
}

func (s *appService) AddInventory(ctx context.Context, p core.Principal, req AddInventoryRequest) (*core.InventoryItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	item, err := s.svc.Inventory.AddItem(ctx, p, core.AddInventoryInput{
		ProductID:        req.ProductID,
		Unit:             req.Unit,
		Quantity:         req.Quantity,
		Description:      req.Description,
		Location:         req.Location,
		UnitCostPrice:    req.UnitCostPrice,
		UnitSellingPrice: req.UnitSellingPrice,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateInventory(ctx)
	logger.Log.Info().Int("inventory_item_id", item.ID).Int("added", req.Quantity).Int("quantity", item.Quantity).Msg("stock added")
	return item, nil
}

func (s *appService) AdjustInventory(ctx context.Context, p core.Principal, itemID int, req AdjustInventoryRequest) (*core.InventoryItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	item, err := s.svc.Inventory.AdjustQuantity(ctx, p, itemID, req.Delta, req.Notes)
	if err != nil {
		return nil, err
	}
	s.invalidateInventory(ctx)
	logger.Log.Info().Int("inventory_item_id", item.ID).Int("delta", req.Delta).Int("quantity", item.Quantity).Msg("stock adjusted")
	return item, nil
}

func (s *appService) ListMovements(ctx context.Context, p core.Principal, itemID int) ([]core.InventoryMovement, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	return s.svc.Inventory.ListMovements(ctx, itemID)
}

// ── Orders ───────────────────────────────────────────────────────────────────

func orderInput(req OrderRequest) (core.OrderInput, error) {
	orderDate, err := parseDate("order_date", req.OrderDate)
	if err != nil {
		return core.OrderInput{}, err
	}
	lines := make([]core.OrderLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.OrderLineInput{
			ProductID:        l.ProductID,
			InventoryItemID:  l.InventoryItemID,
			Quantity:         l.Quantity,
			UnitSellingPrice: l.UnitSellingPrice,
		}
	}
	return core.OrderInput{
		Customer: core.CustomerInfo{
			Name:    strings.TrimSpace(req.Customer.Name),
			Email:   strings.TrimSpace(req.Customer.Email),
			Phone:   strings.TrimSpace(req.Customer.Phone),
			Address: strings.TrimSpace(req.Customer.Address),
		},
		OrderDate: orderDate,
		Lines:     lines,
	}, nil
}

func (s *appService) PlaceOrder(ctx context.Context, p core.Principal, req OrderRequest) (*OrderResult, error) {
	if err := p.Require(core.ActionManageOrders); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	input, err := orderInput(req)
	if err != nil {
		return nil, err
	}
	order, err := s.svc.Orders.PlaceOrder(ctx, p, input)
	if err != nil {
		return nil, err
	}
	s.invalidateInventory(ctx)
	logger.Log.Info().Int("order_id", order.ID).Int("quantity", order.Quantity).
		Str("total_value", order.TotalValue.StringFixed(2)).Msg("order placed")
	return newOrderResult(order), nil
}

func (s *appService) EditOrder(ctx context.Context, p core.Principal, orderID int, req OrderRequest) (*OrderResult, error) {
	if err := p.Require(core.ActionManageOrders); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	input, err := orderInput(req)
	if err != nil {
		return nil, err
	}
	order, err := s.svc.Orders.EditOrder(ctx, p, orderID, input)
	if err != nil {
		return nil, err
	}
	s.invalidateInventory(ctx)
	logger.Log.Info().Int("order_id", order.ID).Int("quantity", order.Quantity).Msg("order edited")
	return newOrderResult(order), nil
}

func (s *appService) UpdateOrderStatus(ctx context.Context, p core.Principal, orderID int, req OrderStatusRequest) (*OrderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	status, err := core.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}
	order, err := s.svc.Orders.UpdateOrderStatus(ctx, p, orderID, status)
	if err != nil {
		return nil, err
	}
	if status == core.OrderCancelled {
		s.invalidateInventory(ctx)
	}
	logger.Log.Info().Int("order_id", order.ID).Str("status", string(order.Status)).Msg("order status updated")
	return newOrderResult(order), nil
}

func (s *appService) CancelOrder(ctx context.Context, p core.Principal, orderID int) (*OrderResult, error) {
	order, err := s.svc.Orders.CancelOrder(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	s.invalidateInventory(ctx)
	logger.Log.Info().Int("order_id", order.ID).Msg("order cancelled")
	return newOrderResult(order), nil
}

func (s *appService) GetOrder(ctx context.Context, p core.Principal, orderID int) (*OrderResult, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	order, err := s.svc.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return newOrderResult(order), nil
}

func (s *appService) ListOrders(ctx context.Context, p core.Principal, req OrderListRequest) ([]core.Order, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	filter := core.OrderFilter{Search: req.Search}
	if req.Status != "" {
		st := core.OrderStatus(req.Status)
		filter.Status = &st
	}
	return s.svc.Orders.ListOrders(ctx, filter)
}

// ── Ledger ───────────────────────────────────────────────────────────────────

func (s *appService) ListLedger(ctx context.Context, p core.Principal, req LedgerListRequest) ([]core.LedgerEntry, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return nil, err
	}
	return s.svc.Ledger.ListEntries(ctx, core.LedgerFilter{ProductID: req.ProductID, From: from, To: to})
}

func (s *appService) ProductProfit(ctx context.Context, p core.Principal) ([]core.ProductProfit, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	return s.svc.Ledger.ProductProfit(ctx)
}

// ── Suppliers ────────────────────────────────────────────────────────────────

func supplierInput(req SupplierRequest) core.SupplierInput {
	return core.SupplierInput{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		UserID:        req.UserID,
	}
}

func (s *appService) CreateSupplier(ctx context.Context, p core.Principal, req SupplierRequest) (*core.Supplier, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	supplier, err := s.svc.Suppliers.CreateSupplier(ctx, p, supplierInput(req))
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Int("supplier_id", supplier.ID).Str("name", supplier.Name).Msg("supplier created")
	return supplier, nil
}

func (s *appService) UpdateSupplier(ctx context.Context, p core.Principal, supplierID int, req SupplierRequest) (*core.Supplier, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.svc.Suppliers.UpdateSupplier(ctx, p, supplierID, supplierInput(req))
}

func (s *appService) GetSupplier(ctx context.Context, p core.Principal, supplierID int) (*core.Supplier, error) {
	if !p.OwnsSupplier(supplierID) {
		if err := p.Require(core.ActionViewBackOffice); err != nil {
			return nil, err
		}
	}
	return s.svc.Suppliers.GetSupplier(ctx, supplierID)
}

func (s *appService) ListSuppliers(ctx context.Context, p core.Principal) ([]core.Supplier, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	return s.svc.Suppliers.ListSuppliers(ctx)
}

// ── Purchasing ───────────────────────────────────────────────────────────────

func (s *appService) CreatePurchaseOrder(ctx context.Context, p core.Principal, req CreatePORequest) (*core.PurchaseOrder, error) {
	if err := p.Require(core.ActionManagePurchasing); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	expected, err := parseDate("expected_delivery_date", req.ExpectedDeliveryDate)
	if err != nil {
		return nil, err
	}
	lines := make([]core.POLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.POLineInput{
			ProductID:        l.ProductID,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			UnitType:         l.UnitType,
			UnitSellingPrice: l.UnitSellingPrice,
		}
	}
	po, err := s.svc.Purchasing.CreatePO(ctx, p, core.CreatePOInput{
		SupplierID:           req.SupplierID,
		ExpectedDeliveryDate: expected,
		Notes:                req.Notes,
		Lines:                lines,
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Str("po_number", po.PONumber).Int("supplier_id", po.SupplierID).
		Str("total_amount", po.TotalAmount.StringFixed(2)).Msg("purchase order created")
	return po, nil
}

func (s *appService) SendPurchaseOrder(ctx context.Context, p core.Principal, poID int) (*core.PurchaseOrder, error) {
	po, err := s.svc.Purchasing.SendPO(ctx, p, poID)
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Str("po_number", po.PONumber).Msg("purchase order sent")
	return po, nil
}

func (s *appService) ConfirmPurchaseOrder(ctx context.Context, p core.Principal, poID int) (*core.PurchaseOrder, error) {
	po, err := s.svc.Purchasing.ConfirmPO(ctx, p, poID)
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Str("po_number", po.PONumber).Str("by", p.Username).Msg("purchase order confirmed")
	return po, nil
}

func (s *appService) CancelPurchaseOrder(ctx context.Context, p core.Principal, poID int) (*core.PurchaseOrder, error) {
	po, err := s.svc.Purchasing.CancelPO(ctx, p, poID)
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Str("po_number", po.PONumber).Msg("purchase order cancelled")
	return po, nil
}

func (s *appService) ReceiveGoods(ctx context.Context, p core.Principal, poID int, req ReceiveGoodsRequest) (*ReceiptResult, error) {
	if err := p.Require(core.ActionManagePurchasing); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	lines := make([]core.ReceiveLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.ReceiveLineInput{POItemID: l.POItemID, Quantity: l.Quantity}
	}
	receipt, po, err := s.svc.Purchasing.ReceiveGoods(ctx, p, poID, core.ReceiveInput{Lines: lines, Notes: req.Notes})
	if err != nil {
		return nil, err
	}
	s.invalidateInventory(ctx)
	logger.Log.Info().Str("receipt_number", receipt.ReceiptNumber).Str("po_number", po.PONumber).
		Str("status", string(po.Status)).Msg("goods received")
	return &ReceiptResult{Receipt: receipt, PurchaseOrder: po}, nil
}

func (s *appService) GetPurchaseOrder(ctx context.Context, p core.Principal, poID int) (*core.PurchaseOrder, error) {
	return s.svc.Purchasing.GetPO(ctx, p, poID)
}

func (s *appService) ListPurchaseOrders(ctx context.Context, p core.Principal, req POListRequest) (*core.POPage, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	filter := core.POFilter{SupplierID: req.SupplierID, Search: req.Search, Page: req.Page, PageSize: req.PageSize}
	if req.Status != "" {
		st := core.POStatus(req.Status)
		filter.Status = &st
	}
	return s.svc.Purchasing.ListPOs(ctx, p, filter)
}

func (s *appService) PurchaseSummary(ctx context.Context, p core.Principal) (*core.PurchaseSummary, error) {
	return s.svc.Purchasing.PurchaseSummary(ctx, p)
}

func (s *appService) GetReceipt(ctx context.Context, p core.Principal, receiptID int) (*core.GoodsReceipt, error) {
	return s.svc.Purchasing.GetReceipt(ctx, p, receiptID)
}

func (s *appService) ListReceipts(ctx context.Context, p core.Principal, req ReceiptListRequest) ([]core.GoodsReceipt, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	since, err := parseDate("since", req.Since)
	if err != nil {
		return nil, err
	}
	return s.svc.Purchasing.ListReceipts(ctx, p, core.ReceiptFilter{SupplierID: req.SupplierID, Since: since, Search: req.Search})
}

// ── Invoicing ────────────────────────────────────────────────────────────────

func (s *appService) CreateInvoice(ctx context.Context, p core.Principal, req CreateInvoiceRequest) (*core.Invoice, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	inv, err := s.svc.Invoices.CreateInvoice(ctx, p, core.CreateInvoiceInput{
		OrderID:       req.OrderID,
		InvoiceNumber: req.InvoiceNumber,
		DueDate:       due,
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Str("invoice_number", inv.InvoiceNumber).Int("order_id", inv.OrderID).
		Str("amount", inv.Amount.StringFixed(2)).Msg("invoice created")
	return inv, nil
}

func (s *appService) RecalculateInvoice(ctx context.Context, p core.Principal, invoiceID int, req RecalculateInvoiceRequest) (*core.Invoice, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	return s.svc.Invoices.RecalculateInvoice(ctx, p, invoiceID, due)
}

func (s *appService) PayInvoice(ctx context.Context, p core.Principal, invoiceID int) (*core.Invoice, error) {
	inv, err := s.svc.Invoices.MarkInvoicePaid(ctx, p, invoiceID)
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Str("invoice_number", inv.InvoiceNumber).Msg("invoice paid")
	return inv, nil
}

func (s *appService) GetInvoice(ctx context.Context, p core.Principal, invoiceID int) (*core.Invoice, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	return s.svc.Invoices.GetInvoice(ctx, invoiceID)
}

func (s *appService) ListInvoices(ctx context.Context, p core.Principal, req InvoiceListRequest) ([]core.Invoice, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var filter core.InvoiceFilter
	if req.PaymentStatus != "" {
		st := core.PaymentStatus(req.PaymentStatus)
		filter.PaymentStatus = &st
	}
	return s.svc.Invoices.ListInvoices(ctx, filter)
}

func (s *appService) CreatePurchaseInvoice(ctx context.Context, p core.Principal, poID int, req PurchaseInvoiceRequest) (*core.PurchaseInvoice, error) {
	if err := p.Require(core.ActionManagePurchasing); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	invoiceDate, err := parseDate("invoice_date", req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	pi, err := s.svc.Invoices.CreatePurchaseInvoice(ctx, p, core.CreatePurchaseInvoiceInput{
		POID:                  poID,
		SupplierInvoiceNumber: strings.TrimSpace(req.SupplierInvoiceNumber),
		InvoiceDate:           invoiceDate,
		DueDate:               *due,
		Notes:                 req.Notes,
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Str("invoice_number", pi.InvoiceNumber).Str("po_number", pi.PONumber).
		Str("amount", pi.Amount.StringFixed(2)).Msg("purchase invoice recorded")
	return pi, nil
}

func (s *appService) PayPurchaseInvoice(ctx context.Context, p core.Principal, invoiceID int) (*core.PurchaseInvoice, error) {
	pi, err := s.svc.Invoices.MarkPurchaseInvoicePaid(ctx, p, invoiceID)
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Str("invoice_number", pi.InvoiceNumber).Msg("purchase invoice paid")
	return pi, nil
}

func (s *appService) ListPurchaseInvoices(ctx context.Context, p core.Principal, req PurchaseInvoiceListRequest) (*core.PurchaseInvoiceList, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	filter := core.PurchaseInvoiceFilter{SupplierID: req.SupplierID, Search: req.Search}
	if req.PaymentStatus != "" {
		st := core.PurchaseInvoiceStatus(req.PaymentStatus)
		filter.PaymentStatus = &st
	}
	return s.svc.Invoices.ListPurchaseInvoices(ctx, p, filter)
}

func (s *appService) MarkOverdueInvoices(ctx context.Context, now time.Time) (*core.OverdueResult, error) {
	res, err := s.svc.Invoices.MarkOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Int("invoices", res.Invoices).Int("purchase_invoices", res.PurchaseInvoices).Msg("overdue invoices marked")
	return res, nil
}

// ── Shipments ────────────────────────────────────────────────────────────────

func (s *appService) CreateShipment(ctx context.Context, p core.Principal, req CreateShipmentRequest) (*core.Shipment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	dispatch, err := parseDate("dispatch_date", req.DispatchDate)
	if err != nil {
		return nil, err
	}
	sh, err := s.svc.Shipments.CreateShipment(ctx, p, core.CreateShipmentInput{
		OrderID:        req.OrderID,
		TrackingNumber: strings.TrimSpace(req.TrackingNumber),
		Carrier:        strings.TrimSpace(req.Carrier),
		DispatchDate:   dispatch,
		Remarks:        req.Remarks,
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Int("shipment_id", sh.ID).Int("order_id", sh.OrderID).Str("tracking_number", sh.TrackingNumber).Msg("order shipped")
	return sh, nil
}

func (s *appService) UpdateShipment(ctx context.Context, p core.Principal, shipmentID int, req UpdateShipmentRequest) (*core.Shipment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	delivery, err := parseDate("delivery_date", req.DeliveryDate)
	if err != nil {
		return nil, err
	}
	input := core.UpdateShipmentInput{Carrier: req.Carrier, DeliveryDate: delivery, Remarks: req.Remarks}
	if req.Status != nil {
		st, err := core.ParseShipmentStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		input.Status = &st
	}
	sh, err := s.svc.Shipments.UpdateShipment(ctx, p, shipmentID, input)
	if err != nil {
		return nil, err
	}
	logger.Log.Info().Int("shipment_id", sh.ID).Str("status", string(sh.Status)).Msg("shipment updated")
	return sh, nil
}

func (s *appService) GetShipment(ctx context.Context, p core.Principal, shipmentID int) (*core.Shipment, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	return s.svc.Shipments.GetShipment(ctx, shipmentID)
}

func (s *appService) ListShipments(ctx context.Context, p core.Principal, req ShipmentListRequest) ([]core.Shipment, error) {
	if err := p.Require(core.ActionViewBackOffice); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var filter core.ShipmentFilter
	if req.Status != "" {
		st := core.ShipmentStatus(req.Status)
		filter.Status = &st
	}
	return s.svc.Shipments.ListShipments(ctx, filter)
}
