package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"backoffice/internal/core"

	"github.com/shopspring/decimal"
)

// stubInventory serves ListItems and AddItem; other methods panic via the nil embed.
type stubInventory struct {
	core.InventoryService
	listCalls int
	items     []core.InventoryItem
}

func (s *stubInventory) ListItems(context.Context, core.InventoryFilter) ([]core.InventoryItem, error) {
	s.listCalls++
	return s.items, nil
}

func (s *stubInventory) AddItem(_ context.Context, _ core.Principal, in core.AddInventoryInput) (*core.InventoryItem, error) {
	return &core.InventoryItem{ID: 7, ProductID: in.ProductID, Quantity: in.Quantity}, nil
}

type stubOrders struct {
	core.OrderService
	got *core.OrderInput
}

func (s *stubOrders) PlaceOrder(_ context.Context, _ core.Principal, in core.OrderInput) (*core.Order, error) {
	s.got = &in
	qty, value, profit := 0, decimal.Zero, decimal.Zero
	for _, l := range in.Lines {
		total, pr := core.LineTotals(l.Quantity, decimal.NewFromInt(50), decimal.NewFromInt(30))
		qty += l.Quantity
		value = value.Add(total)
		profit = profit.Add(pr)
	}
	return &core.Order{ID: 1, Quantity: qty, TotalValue: value, TotalProfit: profit}, nil
}

type stubUsers struct {
	core.UserService
	users map[int]*core.User
}

func (s *stubUsers) GetByID(_ context.Context, id int) (*core.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

type stubSuppliers struct {
	core.SupplierService
	byUser map[int]int
}

func (s *stubSuppliers) SupplierForUser(_ context.Context, userID int) (*core.Supplier, error) {
	if id, ok := s.byUser[userID]; ok {
		return &core.Supplier{ID: id}, nil
	}
	return nil, core.ErrNotFound
}

// recordingCache is an in-memory InventoryCache that counts invalidations.
type recordingCache struct {
	items       map[string][]core.InventoryItem
	invalidated int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{items: map[string][]core.InventoryItem{}}
}

func (c *recordingCache) GetItems(_ context.Context, f core.InventoryFilter) ([]core.InventoryItem, bool, error) {
	items, ok := c.items[filterKey(f)]
	return items, ok, nil
}

func (c *recordingCache) SetItems(_ context.Context, f core.InventoryFilter, items []core.InventoryItem) error {
	c.items[filterKey(f)] = items
	return nil
}

func (c *recordingCache) InvalidateAll(context.Context) error {
	c.invalidated++
	c.items = map[string][]core.InventoryItem{}
	return nil
}

func (c *recordingCache) Close() error { return nil }

func filterKey(f core.InventoryFilter) string {
	if f.ProductID == nil {
		return "all"
	}
	return "product"
}

var (
	staff    = core.Principal{UserID: 2, Username: "staff", Role: core.RoleStaff}
	supplier = core.Principal{UserID: 3, Username: "acme", Role: core.RoleSupplier}
)

func TestListInventory_ServedFromCacheUntilInvalidated(t *testing.T) {
	inv := &stubInventory{items: []core.InventoryItem{{ID: 1, Quantity: 5}}}
	c := newRecordingCache()
	svc := NewAppService(Services{Inventory: inv}, c)
	ctx := context.Background()

	for range 3 {
		if _, err := svc.ListInventory(ctx, staff, nil); err != nil {
			t.Fatalf("ListInventory failed: %v", err)
		}
	}
	if inv.listCalls != 1 {
		t.Errorf("ListItems calls = %d, want 1 (cached)", inv.listCalls)
	}

	if _, err := svc.AddInventory(ctx, staff, AddInventoryRequest{ProductID: 1, Unit: "piece", Quantity: 3}); err != nil {
		t.Fatalf("AddInventory failed: %v", err)
	}
	if c.invalidated != 1 {
		t.Errorf("invalidations = %d, want 1", c.invalidated)
	}
	if _, err := svc.ListInventory(ctx, staff, nil); err != nil {
		t.Fatalf("ListInventory failed: %v", err)
	}
	if inv.listCalls != 2 {
		t.Errorf("ListItems calls after invalidation = %d, want 2", inv.listCalls)
	}
}

func TestListInventory_SupplierForbidden(t *testing.T) {
	svc := NewAppService(Services{Inventory: &stubInventory{}}, nil)
	if _, err := svc.ListInventory(context.Background(), supplier, nil); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestPlaceOrder_MapsRequestAndReturnsTotals(t *testing.T) {
	orders := &stubOrders{}
	c := newRecordingCache()
	svc := NewAppService(Services{Orders: orders}, c)

	res, err := svc.PlaceOrder(context.Background(), staff, OrderRequest{
		Customer:  CustomerRequest{Name: "  Jane Doe ", Email: "jane@example.com"},
		OrderDate: "2026-03-10",
		Lines: []OrderLineRequest{
			{InventoryItemID: 4, Quantity: 3},
			{InventoryItemID: 5, Quantity: 0},
		},
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if orders.got.Customer.Name != "Jane Doe" {
		t.Errorf("customer name = %q, want trimmed", orders.got.Customer.Name)
	}
	if orders.got.OrderDate == nil || orders.got.OrderDate.Format(dateLayout) != "2026-03-10" {
		t.Errorf("order date = %v", orders.got.OrderDate)
	}
	if res.Totals.Quantity != 3 || !res.Totals.TotalProfit.Equal(decimal.NewFromInt(60)) {
		t.Errorf("totals = %+v, want quantity 3 profit 60", res.Totals)
	}
	if c.invalidated != 1 {
		t.Errorf("invalidations = %d, want 1", c.invalidated)
	}
}

func TestPlaceOrder_AuthorizationBeforeValidation(t *testing.T) {
	orders := &stubOrders{}
	svc := NewAppService(Services{Orders: orders}, nil)

	_, err := svc.PlaceOrder(context.Background(), supplier, OrderRequest{})
	if !errors.Is(err, core.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if orders.got != nil {
		t.Error("core was called despite the access check failing")
	}
}

func TestPlaceOrder_ValidationErrors(t *testing.T) {
	svc := NewAppService(Services{Orders: &stubOrders{}}, nil)
	tests := []struct {
		name string
		req  OrderRequest
		want string
	}{
		{"missing customer", OrderRequest{Lines: []OrderLineRequest{{InventoryItemID: 1, Quantity: 1}}}, "customer.name is required"},
		{"no lines", OrderRequest{Customer: CustomerRequest{Name: "Jane"}}, "lines is required"},
		{"negative quantity", OrderRequest{
			Customer: CustomerRequest{Name: "Jane"},
			Lines:    []OrderLineRequest{{InventoryItemID: 1, Quantity: -2}},
		}, "lines[0].quantity must be at least 0"},
		{"bad date", OrderRequest{
			Customer:  CustomerRequest{Name: "Jane"},
			OrderDate: "10/03/2026",
			Lines:     []OrderLineRequest{{InventoryItemID: 1, Quantity: 1}},
		}, "order_date must be a date"},
		{"negative override", OrderRequest{
			Customer: CustomerRequest{Name: "Jane"},
			Lines:    []OrderLineRequest{{InventoryItemID: 1, Quantity: 1, UnitSellingPrice: decimalPtr("-1")}},
		}, "lines[0].unit_selling_price must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), staff, tt.req)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestBuildPrincipal(t *testing.T) {
	users := &stubUsers{users: map[int]*core.User{
		2: {ID: 2, Username: "staff", Role: core.RoleStaff, IsActive: true},
		3: {ID: 3, Username: "acme", Role: core.RoleSupplier, IsActive: true},
		6: {ID: 6, Username: "loose", Role: core.RoleSupplier, IsActive: true},
		9: {ID: 9, Username: "gone", Role: core.RoleStaff, IsActive: false},
	}}
	suppliers := &stubSuppliers{byUser: map[int]int{3: 11}}
	svc := NewAppService(Services{Users: users, Suppliers: suppliers}, nil)
	ctx := context.Background()

	p, err := svc.BuildPrincipal(ctx, 2)
	if err != nil || p.Role != core.RoleStaff || p.SupplierID != nil {
		t.Errorf("staff principal = %+v, %v", p, err)
	}

	p, err = svc.BuildPrincipal(ctx, 3)
	if err != nil || p.SupplierID == nil || *p.SupplierID != 11 {
		t.Errorf("supplier principal = %+v, %v", p, err)
	}

	p, err = svc.BuildPrincipal(ctx, 6)
	if err != nil || p.SupplierID != nil {
		t.Errorf("unlinked supplier principal = %+v, %v", p, err)
	}

	if _, err := svc.BuildPrincipal(ctx, 9); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("inactive user err = %v, want ErrForbidden", err)
	}
	if _, err := svc.BuildPrincipal(ctx, 99); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing user err = %v, want ErrNotFound", err)
	}
}

func TestNewStockResult(t *testing.T) {
	res := newStockResult([]core.InventoryItem{
		{ID: 1, Quantity: 4, EffectiveCostPrice: decimal.NewFromInt(30)},
		{ID: 2, Quantity: 2, EffectiveCostPrice: decimal.RequireFromString("12.50")},
	})
	if len(res.Rows) != 2 || !res.Rows[0].StockValue.Equal(decimal.NewFromInt(120)) {
		t.Errorf("rows = %+v", res.Rows)
	}
	if !res.TotalValue.Equal(decimal.NewFromInt(145)) {
		t.Errorf("total = %s, want 145", res.TotalValue)
	}
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
