package core_test

import (
	"errors"
	"testing"

	"backoffice/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestResolvePrice_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		layers     []core.PriceLayer
		wantPrice  string
		wantSource core.PriceSource
	}{
		{
			name: "override wins",
			layers: []core.PriceLayer{
				{Source: core.PriceSourceOverride, Price: decPtr("60")},
				{Source: core.PriceSourceInventory, Price: decPtr("55")},
				{Source: core.PriceSourceProduct, Price: decPtr("50")},
			},
			wantPrice:  "60",
			wantSource: core.PriceSourceOverride,
		},
		{
			name: "inventory when no override",
			layers: []core.PriceLayer{
				{Source: core.PriceSourceOverride},
				{Source: core.PriceSourceInventory, Price: decPtr("55")},
				{Source: core.PriceSourceProduct, Price: decPtr("50")},
			},
			wantPrice:  "55",
			wantSource: core.PriceSourceInventory,
		},
		{
			name: "zero override still counts as set",
			layers: []core.PriceLayer{
				{Source: core.PriceSourceOverride, Price: decPtr("0")},
				{Source: core.PriceSourceProduct, Price: decPtr("50")},
			},
			wantPrice:  "0",
			wantSource: core.PriceSourceOverride,
		},
		{
			name:       "nothing set",
			layers:     []core.PriceLayer{{Source: core.PriceSourceOverride}},
			wantPrice:  "0",
			wantSource: core.PriceSourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, source := core.ResolvePrice(tt.layers...)
			if !price.Equal(dec(tt.wantPrice)) {
				t.Errorf("price = %s, want %s", price, tt.wantPrice)
			}
			if source != tt.wantSource {
				t.Errorf("source = %s, want %s", source, tt.wantSource)
			}
		})
	}
}

func TestResolveUnitPrices_CostIgnoresOverride(t *testing.T) {
	product := core.Product{CostPrice: dec("30"), SellingPrice: dec("50")}
	item := core.InventoryItem{UnitCostPrice: decPtr("32")}

	got := core.ResolveUnitPrices(decPtr("65"), item, product)
	if !got.Selling.Equal(dec("65")) || got.SellingSource != core.PriceSourceOverride {
		t.Errorf("selling = %s (%s), want 65 (override)", got.Selling, got.SellingSource)
	}
	if !got.Cost.Equal(dec("32")) || got.CostSource != core.PriceSourceInventory {
		t.Errorf("cost = %s (%s), want 32 (inventory)", got.Cost, got.CostSource)
	}

	got = core.ResolveUnitPrices(nil, core.InventoryItem{}, product)
	if !got.Selling.Equal(dec("50")) || !got.Cost.Equal(dec("30")) {
		t.Errorf("fallback = %s/%s, want 50/30", got.Selling, got.Cost)
	}
	if got.SellingSource != core.PriceSourceProduct {
		t.Errorf("selling source = %s, want product", got.SellingSource)
	}
}

func TestLineTotals(t *testing.T) {
	total, profit := core.LineTotals(3, dec("50"), dec("30"))
	if !total.Equal(dec("150")) {
		t.Errorf("total = %s, want 150", total)
	}
	if !profit.Equal(dec("60")) {
		t.Errorf("profit = %s, want 60", profit)
	}

	// Selling below cost yields a negative profit, not an error.
	_, profit = core.LineTotals(2, dec("25"), dec("30"))
	if !profit.Equal(dec("-10")) {
		t.Errorf("profit = %s, want -10", profit)
	}
}

func TestCheckAmount(t *testing.T) {
	for _, ok := range []string{"0", "10", "10.5", "10.01", "-3.25", "10.010"} {
		if err := core.CheckAmount("price", dec(ok)); err != nil {
			t.Errorf("CheckAmount(%s) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"10.005", "0.001", "99.999"} {
		if err := core.CheckAmount("price", dec(bad)); !errors.Is(err, core.ErrValidation) {
			t.Errorf("CheckAmount(%s) = %v, want ErrValidation", bad, err)
		}
	}

	// Accepted amounts keep the stored line total equal to quantity × stored unit price.
	unit := dec("10.01")
	total, _ := core.LineTotals(3, unit, dec("0"))
	if !total.Equal(total.Round(core.MoneyScale)) || !total.Equal(unit.Round(core.MoneyScale).Mul(dec("3"))) {
		t.Errorf("total = %s, want 30.03", total)
	}
}

func TestSumOrder(t *testing.T) {
	items := []core.OrderItem{
		{Quantity: 3, TotalPrice: dec("150"), TotalProfit: dec("60")},
		{Quantity: 2, TotalPrice: dec("300"), TotalProfit: dec("100")},
	}
	qty, value, profit := core.SumOrder(items)
	if qty != 5 || !value.Equal(dec("450")) || !profit.Equal(dec("160")) {
		t.Errorf("SumOrder = %d/%s/%s, want 5/450/160", qty, value, profit)
	}
}

func TestProduct_Margins(t *testing.T) {
	p := core.Product{CostPrice: dec("30"), SellingPrice: dec("50")}
	if !p.ProfitMargin().Equal(dec("20")) {
		t.Errorf("margin = %s, want 20", p.ProfitMargin())
	}
	if !p.ProfitPercentage().Equal(dec("66.67")) {
		t.Errorf("percentage = %s, want 66.67", p.ProfitPercentage())
	}

	free := core.Product{SellingPrice: dec("10")}
	if !free.ProfitPercentage().IsZero() {
		t.Errorf("percentage with zero cost = %s, want 0", free.ProfitPercentage())
	}
}

func TestComputeInvoice(t *testing.T) {
	tests := []struct {
		subtotal string
		tax      string
		amount   string
	}{
		{"200.00", "10.00", "310.00"},
		{"0", "0", "100.00"},
		{"99.99", "5.00", "204.99"},
		{"1234.50", "61.73", "1396.23"},
	}
	for _, tt := range tests {
		t.Run(tt.subtotal, func(t *testing.T) {
			got := core.ComputeInvoice(dec(tt.subtotal))
			if !got.Tax.Equal(dec(tt.tax)) {
				t.Errorf("tax = %s, want %s", got.Tax, tt.tax)
			}
			if !got.DeliveryFee.Equal(dec("100")) {
				t.Errorf("delivery = %s, want 100", got.DeliveryFee)
			}
			if !got.Amount.Equal(dec(tt.amount)) {
				t.Errorf("amount = %s, want %s", got.Amount, tt.amount)
			}
		})
	}
}

func TestOrderSubtotal_LegacyFallback(t *testing.T) {
	items := []core.OrderItem{{TotalPrice: dec("120")}, {TotalPrice: dec("80")}}
	if got := core.OrderSubtotal(items, &core.LegacyLine{Quantity: 9, SellingPrice: dec("1")}); !got.Equal(dec("200")) {
		t.Errorf("with items = %s, want 200 (legacy ignored)", got)
	}
	if got := core.OrderSubtotal(nil, &core.LegacyLine{Quantity: 4, SellingPrice: dec("12.5")}); !got.Equal(dec("50")) {
		t.Errorf("legacy = %s, want 50", got)
	}
	if got := core.OrderSubtotal(nil, nil); !got.IsZero() {
		t.Errorf("empty = %s, want 0", got)
	}
}

func TestOrderStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to core.OrderStatus
		want     bool
	}{
		{core.OrderPending, core.OrderApproved, true},
		{core.OrderPending, core.OrderCancelled, true},
		{core.OrderApproved, core.OrderShipped, true},
		{core.OrderApproved, core.OrderCancelled, true},
		{core.OrderShipped, core.OrderDelivered, true},
		{core.OrderPending, core.OrderShipped, false},
		{core.OrderShipped, core.OrderCancelled, false},
		{core.OrderDelivered, core.OrderPending, false},
		{core.OrderCancelled, core.OrderApproved, false},
		{core.OrderCancelled, core.OrderCancelled, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s → %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if !core.OrderApproved.Editable() || core.OrderShipped.Editable() {
		t.Error("only pending and approved orders should be editable")
	}
}

func TestPOStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to core.POStatus
		want     bool
	}{
		{core.PODraft, core.POSent, true},
		{core.POSent, core.POConfirmed, true},
		{core.POConfirmed, core.POPartiallyReceived, true},
		{core.POConfirmed, core.POReceived, true},
		{core.POPartiallyReceived, core.POReceived, true},
		{core.POPartiallyReceived, core.POCancelled, true},
		{core.PODraft, core.POConfirmed, false},
		{core.POSent, core.POReceived, false},
		{core.POReceived, core.POCancelled, false},
		{core.POCancelled, core.PODraft, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s → %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	for _, st := range []core.POStatus{core.POReceived, core.POCancelled} {
		if !st.IsTerminal() {
			t.Errorf("%s should be terminal", st)
		}
	}
}

func TestReceiptStatus(t *testing.T) {
	full := []core.PurchaseOrderItem{
		{QuantityOrdered: 10, QuantityReceived: 10},
		{QuantityOrdered: 5, QuantityReceived: 5},
	}
	if got := core.ReceiptStatus(full); got != core.POReceived {
		t.Errorf("all received = %s, want received", got)
	}
	partial := []core.PurchaseOrderItem{
		{QuantityOrdered: 10, QuantityReceived: 10},
		{QuantityOrdered: 5, QuantityReceived: 4},
	}
	if got := core.ReceiptStatus(partial); got != core.POPartiallyReceived {
		t.Errorf("one short = %s, want partially_received", got)
	}
}

func TestOverReceiptPolicy_Accept(t *testing.T) {
	tests := []struct {
		name      string
		policy    core.OverReceiptPolicy
		ordered   int
		received  int
		requested int
		want      int
		wantErr   bool
	}{
		{"within pending", core.OverReceiptReject, 10, 4, 6, 6, false},
		{"reject above pending", core.OverReceiptReject, 10, 4, 7, 0, true},
		{"clamp above pending", core.OverReceiptClamp, 10, 4, 7, 6, false},
		{"clamp nothing pending", core.OverReceiptClamp, 10, 10, 3, 0, false},
		{"reject nothing pending", core.OverReceiptReject, 10, 10, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.policy.Accept(tt.ordered, tt.received, tt.requested)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
			if got != tt.want {
				t.Errorf("accepted = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestShipmentStatus_ForwardOnly(t *testing.T) {
	if !core.ShipmentDispatched.CanAdvanceTo(core.ShipmentDelivered) {
		t.Error("dispatched → delivered should be allowed")
	}
	if core.ShipmentDelivered.CanAdvanceTo(core.ShipmentInTransit) {
		t.Error("delivered → in_transit should be rejected")
	}
	if core.ShipmentInTransit.CanAdvanceTo(core.ShipmentInTransit) {
		t.Error("same status is not an advance")
	}
}

func TestDocumentNumber_FormatAndParse(t *testing.T) {
	if got := core.FormatDocumentNumber("PO", 2026, 7); got != "PO-2026-0007" {
		t.Errorf("format = %q, want PO-2026-0007", got)
	}
	if got := core.FormatDocumentNumber("INV", 2026, 12345); got != "INV-2026-12345" {
		t.Errorf("format = %q, want INV-2026-12345", got)
	}

	prefix, year, n, err := core.ParseDocumentNumber("GR-2025-0042")
	if err != nil || prefix != "GR" || year != 2025 || n != 42 {
		t.Errorf("parse = %s/%d/%d/%v, want GR/2025/42/nil", prefix, year, n, err)
	}
	for _, bad := range []string{"PO-26-0001", "po-2026-0001", "PO-2026-01", "PO2026-0001"} {
		if _, _, _, err := core.ParseDocumentNumber(bad); !errors.Is(err, core.ErrValidation) {
			t.Errorf("parse %q err = %v, want ErrValidation", bad, err)
		}
	}
}

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    core.Unit
		wantErr bool
	}{
		{"piece", core.UnitPiece, false},
		{" PCS ", core.UnitPiece, false},
		{"ltr", core.UnitLiter, false},
		{"Dozen", core.UnitDozen, false},
		{"barrel", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := core.NormalizeUnit(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("NormalizeUnit(%q) = %q, %v; want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestPrincipal_Permissions(t *testing.T) {
	supplierID := 7
	admin := core.Principal{UserID: 1, Role: core.RoleAdmin}
	manager := core.Principal{UserID: 2, Role: core.RoleManager}
	staff := core.Principal{UserID: 3, Role: core.RoleStaff}
	supplier := core.Principal{UserID: 4, Role: core.RoleSupplier, SupplierID: &supplierID}

	tests := []struct {
		name   string
		p      core.Principal
		action core.Action
		want   bool
	}{
		{"manager manages orders", manager, core.ActionManageOrders, true},
		{"manager cannot purchase", manager, core.ActionManagePurchasing, false},
		{"manager views purchasing", manager, core.ActionViewPurchasing, true},
		{"staff purchases", staff, core.ActionManagePurchasing, true},
		{"staff cannot manage users", staff, core.ActionManageUsers, false},
		{"admin manages users", admin, core.ActionManageUsers, true},
		{"supplier confirms", supplier, core.ActionConfirmPurchase, true},
		{"supplier cannot order", supplier, core.ActionManageOrders, false},
		{"supplier cannot see back office", supplier, core.ActionViewBackOffice, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Can(tt.action); got != tt.want {
				t.Errorf("Can(%s) = %v, want %v", tt.action, got, tt.want)
			}
			err := tt.p.Require(tt.action)
			if tt.want && err != nil {
				t.Errorf("Require(%s) = %v, want nil", tt.action, err)
			}
			if !tt.want && !errors.Is(err, core.ErrForbidden) {
				t.Errorf("Require(%s) = %v, want ErrForbidden", tt.action, err)
			}
		})
	}

	if !supplier.OwnsSupplier(7) || supplier.OwnsSupplier(8) {
		t.Error("OwnsSupplier should match only the linked supplier")
	}
}

func TestInsufficientStockError_Is(t *testing.T) {
	var err error = &core.InsufficientStockError{Shortfalls: []core.StockShortfall{
		{ProductName: "Widget", SKU: "W-1", Unit: core.UnitBox, Available: 2, Requested: 5, Deficit: 3},
	}}
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Error("InsufficientStockError should match ErrInsufficientStock")
	}
	if errors.Is(err, core.ErrValidation) {
		t.Error("InsufficientStockError should not match ErrValidation")
	}
	want := "insufficient stock for Widget (W-1, box): available 2, requested 5, short by 3"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}
