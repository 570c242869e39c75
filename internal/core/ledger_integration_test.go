package core_test

import (
	"context"
	"os"
	"testing"
	"time"

	"backoffice/internal/core"
	"backoffice/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	// Clean and seed test DB
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE shipments, purchase_invoices, invoices, inventory_movements,
		               goods_receipt_items, goods_receipts, purchase_order_items, purchase_orders,
		               document_sequences, suppliers, ledger_entries, order_items, orders,
		               inventory_items, products, categories, users
		RESTART IDENTITY CASCADE;

		INSERT INTO users (id, username, email, password_hash, role) VALUES
		(1, 'admin',   'admin@example.com',   'x', 'admin'),
		(2, 'staff',   'staff@example.com',   'x', 'staff'),
		(3, 'acme',    'acme@example.com',    'x', 'supplier'),
		(4, 'manager', 'manager@example.com', 'x', 'manager'),
		(5, 'globex',  'globex@example.com',  'x', 'supplier');
		SELECT setval('users_id_seq', 100);

		INSERT INTO suppliers (id, name, contact_person, email, user_id) VALUES
		(1, 'Acme Supplies', 'Wile E.', 'orders@acme.example', 3),
		(2, 'Globex',        'Hank',    'sales@globex.example', 5);
		SELECT setval('suppliers_id_seq', 100);

		INSERT INTO categories (id, name) VALUES (1, 'Hardware');
		SELECT setval('categories_id_seq', 100);

		INSERT INTO products (id, name, category_id, sku, cost_price, selling_price, created_by) VALUES
		(1, 'Widget', 1, 'W-001', 30.00,  50.00,  1),
		(2, 'Gadget', 1, 'G-001', 100.00, 150.00, 1);
		SELECT setval('products_id_seq', 100);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

// testNow is the fixed clock used by integration tests.
var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	ctx        context.Context
	pool       *pgxpool.Pool
	catalog    core.CatalogService
	inventory  core.InventoryService
	orders     core.OrderService
	ledger     *core.Ledger
	suppliers  core.SupplierService
	purchasing core.PurchaseOrderService
	invoices   core.InvoiceService
	shipments  core.ShipmentService

	admin, staff, manager, acme, globex core.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pool := setupTestDB(t)
	clock := core.ClockFunc(func() time.Time { return testNow })

	inventory := core.NewInventoryService(pool)
	ledger := core.NewLedger(pool)
	acmeID, globexID := 1, 2
	return &fixture{
		ctx:        context.Background(),
		pool:       pool,
		catalog:    core.NewCatalogService(pool),
		inventory:  inventory,
		orders:     core.NewOrderService(pool, inventory, ledger, clock),
		ledger:     ledger,
		suppliers:  core.NewSupplierService(pool),
		purchasing: core.NewPurchaseOrderService(pool, inventory, core.OverReceiptReject, clock),
		invoices:   core.NewInvoiceService(pool, clock, 30),
		shipments:  core.NewShipmentService(pool, clock),

		admin:   core.Principal{UserID: 1, Username: "admin", Role: core.RoleAdmin},
		staff:   core.Principal{UserID: 2, Username: "staff", Role: core.RoleStaff},
		manager: core.Principal{UserID: 4, Username: "manager", Role: core.RoleManager},
		acme:    core.Principal{UserID: 3, Username: "acme", Role: core.RoleSupplier, SupplierID: &acmeID},
		globex:  core.Principal{UserID: 5, Username: "globex", Role: core.RoleSupplier, SupplierID: &globexID},
	}
}

// stock adds qty of a product in a unit and returns the inventory line.
func (f *fixture) stock(t *testing.T, productID int, unit string, qty int) *core.InventoryItem {
	t.Helper()
	item, err := f.inventory.AddItem(f.ctx, f.staff, core.AddInventoryInput{ProductID: productID, Unit: unit, Quantity: qty})
	if err != nil {
		t.Fatalf("AddItem(product %d, %s, %d) failed: %v", productID, unit, qty, err)
	}
	return item
}

func (f *fixture) quantity(t *testing.T, itemID int) int {
	t.Helper()
	item, err := f.inventory.GetItem(f.ctx, itemID)
	if err != nil {
		t.Fatalf("GetItem(%d) failed: %v", itemID, err)
	}
	return item.Quantity
}

func (f *fixture) placeOrder(t *testing.T, lines ...core.OrderLineInput) *core.Order {
	t.Helper()
	order, err := f.orders.PlaceOrder(f.ctx, f.staff, core.OrderInput{
		Customer: core.CustomerInfo{Name: "Jane Doe", Email: "jane@example.com"},
		Lines:    lines,
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	return order
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestLedger_OneEntryPerOrderItem(t *testing.T) {
	f := newFixture(t)
	widget := f.stock(t, 1, "piece", 10)
	gadget := f.stock(t, 2, "box", 5)

	order := f.placeOrder(t,
		core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 3},
		core.OrderLineInput{InventoryItemID: gadget.ID, Quantity: 2},
	)

	entries, err := f.ledger.ListEntries(f.ctx, core.LedgerFilter{})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != len(order.Items) {
		t.Fatalf("expected %d ledger entries, got %d", len(order.Items), len(entries))
	}
	for _, e := range entries {
		if e.OrderID != order.ID {
			t.Errorf("entry %d linked to order %d, want %d", e.ID, e.OrderID, order.ID)
		}
	}

	productID := 1
	entries, err = f.ledger.ListEntries(f.ctx, core.LedgerFilter{ProductID: &productID})
	if err != nil {
		t.Fatalf("ListEntries(product) failed: %v", err)
	}
	if len(entries) != 1 || !entries[0].Profit.Equal(dec("60")) {
		t.Errorf("widget entries = %+v, want one with profit 60", entries)
	}
}

func TestLedger_ProductProfit(t *testing.T) {
	f := newFixture(t)
	widget := f.stock(t, 1, "piece", 20)
	gadget := f.stock(t, 2, "box", 5)

	f.placeOrder(t, core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 3})
	f.placeOrder(t,
		core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 2},
		core.OrderLineInput{InventoryItemID: gadget.ID, Quantity: 1},
	)

	report, err := f.ledger.ProductProfit(f.ctx)
	if err != nil {
		t.Fatalf("ProductProfit failed: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("expected 2 products, got %d", len(report))
	}
	// Widget: 5 sold, revenue 250, cost 150, profit 100. Gadget: profit 50.
	top := report[0]
	if top.ProductID != 1 || top.QuantitySold != 5 || !top.Revenue.Equal(dec("250")) ||
		!top.Cost.Equal(dec("150")) || !top.Profit.Equal(dec("100")) {
		t.Errorf("widget row = %+v", top)
	}
	if !report[1].Profit.Equal(dec("50")) {
		t.Errorf("gadget profit = %s, want 50", report[1].Profit)
	}
}

func TestLedger_EntriesReplacedOnEdit(t *testing.T) {
	f := newFixture(t)
	widget := f.stock(t, 1, "piece", 10)
	order := f.placeOrder(t, core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 3})

	if _, err := f.orders.EditOrder(f.ctx, f.staff, order.ID, core.OrderInput{
		Customer: order.Customer,
		Lines:    []core.OrderLineInput{{InventoryItemID: widget.ID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("EditOrder failed: %v", err)
	}

	entries, err := f.ledger.ListEntries(f.ctx, core.LedgerFilter{})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].QuantitySold != 1 || !entries[0].Profit.Equal(dec("20")) {
		t.Errorf("entries after edit = %+v, want a single entry for 1 unit", entries)
	}
}

func TestLedger_ExcludesCancelledOrders(t *testing.T) {
	f := newFixture(t)
	widget := f.stock(t, 1, "piece", 10)
	kept := f.placeOrder(t, core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 2})
	dropped := f.placeOrder(t, core.OrderLineInput{InventoryItemID: widget.ID, Quantity: 5})

	if _, err := f.orders.CancelOrder(f.ctx, f.staff, dropped.ID); err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}

	entries, err := f.ledger.ListEntries(f.ctx, core.LedgerFilter{})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].OrderID != kept.ID {
		t.Errorf("entries = %+v, want only order %d", entries, kept.ID)
	}

	report, err := f.ledger.ProductProfit(f.ctx)
	if err != nil {
		t.Fatalf("ProductProfit failed: %v", err)
	}
	if len(report) != 1 || report[0].QuantitySold != 2 || !report[0].Profit.Equal(dec("40")) {
		t.Errorf("report = %+v, want 2 sold with profit 40", report)
	}
}
